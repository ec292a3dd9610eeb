// Package errors renders the five diagnostic kinds spec §7 names
// (MissingHeader, ParseError, CompileError, RuntimeError, TypeError) as
// colorized, line-annotated terminal output, the way the teacher repo's
// own error formatter renders its richer diagnostic set.
package errors

import (
	"fmt"
	"strings"
)

// Kind is one of the five alphabet diagnostic kinds.
type Kind int

const (
	MissingHeader Kind = iota
	ParseError
	CompileError
	RuntimeError
	TypeError
)

func (k Kind) String() string {
	switch k {
	case MissingHeader:
		return "MissingHeader"
	case ParseError:
		return "ParseError"
	case CompileError:
		return "CompileError"
	case RuntimeError:
		return "RuntimeError"
	case TypeError:
		return "TypeError"
	default:
		return "Error"
	}
}

// Diagnostic is one reported problem: its kind, the line it occurred on
// (0 when not applicable, e.g. a TypeError raised during registration
// before any source line is attached), and a human-readable message.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Message string
}

func (d Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", d.Kind, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Formatter renders Diagnostics with an optional one-line source-context
// excerpt, mirroring the teacher's colorized `--> file:line` style at a
// scale that fits a language with no columns, labels, or fix-it hints.
type Formatter struct {
	Colors     bool
	ShowSource bool
}

// NewFormatter returns a Formatter with colors following the terminal's
// own TTY/NO_COLOR detection and source context shown.
func NewFormatter() *Formatter {
	return &Formatter{Colors: true, ShowSource: true}
}

// Format renders d, optionally underlining the offending line if
// sourceLines has enough lines to cover it.
func (f *Formatter) Format(d Diagnostic, sourceLines []string) string {
	var sb strings.Builder

	levelStr := f.colorize(d.Kind.String(), f.kindColor(d.Kind))
	sb.WriteString(fmt.Sprintf("%s: %s\n", levelStr, d.Message))

	if d.Line > 0 {
		arrow := f.colorize("-->", ColorCyan)
		sb.WriteString(fmt.Sprintf(" %s line %d\n", arrow, d.Line))

		if f.ShowSource && d.Line <= len(sourceLines) {
			line := sourceLines[d.Line-1]
			lineNum := f.colorize(fmt.Sprintf("%d", d.Line), ColorCyan)
			pipe := f.colorize("|", ColorCyan)
			sb.WriteString(fmt.Sprintf("  %s %s %s\n", lineNum, pipe, line))
		}
	}

	return sb.String()
}

// FormatAll renders every diagnostic in order, followed by a summary
// line when there is more than one.
func (f *Formatter) FormatAll(diags []Diagnostic, sourceLines []string) string {
	var sb strings.Builder
	for i, d := range diags {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.Format(d, sourceLines))
	}
	if len(diags) > 1 {
		sb.WriteString(fmt.Sprintf("\n%d errors\n", len(diags)))
	}
	return sb.String()
}

func (f *Formatter) kindColor(k Kind) Color {
	switch k {
	case RuntimeError:
		return ColorRed
	case TypeError:
		return ColorRed
	case CompileError:
		return ColorRed
	case ParseError:
		return ColorYellow
	default:
		return ColorRed
	}
}

func (f *Formatter) colorize(s string, color Color) string {
	if !f.Colors {
		return s
	}
	return Colorize(s, color)
}
