// Package repl implements an interactive read-eval-print loop over
// internal/runtime: a line at a time, accumulated across unbalanced
// brackets, fed through one persistent session.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	alphaerrors "github.com/alphabet-lang/alphabet/internal/errors"
	"github.com/alphabet-lang/alphabet/internal/runtime"
)

// replHeader is prepended to every unit fed to the runtime — the REPL
// user never types the mandatory `#alphabet<...>` header themselves.
const replHeader = "#alphabet<repl>\n"

// Config controls prompts; everything else about a session is fixed.
type Config struct {
	PromptPrimary  string
	PromptContinue string
}

// DefaultConfig matches the teacher's REPL prompt style.
func DefaultConfig() Config {
	return Config{PromptPrimary: ">>> ", PromptContinue: "... "}
}

// REPL is one interactive session: a reader, a persistent runtime, and
// the multi-line input buffer with its bracket-depth tracker.
type REPL struct {
	rt       *runtime.Runtime
	reader   *bufio.Reader
	writer   io.Writer
	reporter *alphaerrors.Reporter

	buffer    strings.Builder
	multiline bool

	promptPrimary  string
	promptContinue string
}

// New creates a REPL reading from stdin and writing to stdout.
func New(config Config) *REPL {
	rt := runtime.New()
	reporter := alphaerrors.NewReporter()
	reporter.SetOutput(os.Stdout)
	return &REPL{
		rt:             rt,
		reader:         bufio.NewReader(os.Stdin),
		writer:         os.Stdout,
		reporter:       reporter,
		promptPrimary:  config.PromptPrimary,
		promptContinue: config.PromptContinue,
	}
}

// Run drives the loop until EOF or :quit.
func (r *REPL) Run() {
	r.printWelcome()

	for {
		prompt := r.promptPrimary
		if r.multiline {
			prompt = r.promptContinue
		}
		fmt.Fprint(r.writer, prompt)

		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(r.writer, "\nBye!")
				return
			}
			fmt.Fprintf(r.writer, "Error reading input: %v\n", err)
			continue
		}
		line = strings.TrimRight(line, "\r\n")

		if !r.multiline && strings.HasPrefix(line, ":") {
			if r.handleCommand(line) {
				continue
			}
		}

		if r.multiline {
			r.buffer.WriteString("\n")
		}
		r.buffer.WriteString(line)

		if bracketDepth(r.buffer.String()) > 0 {
			r.multiline = true
			continue
		}

		input := r.buffer.String()
		r.buffer.Reset()
		r.multiline = false

		if strings.TrimSpace(input) == "" {
			continue
		}
		r.execute(input)
	}
}

func (r *REPL) printWelcome() {
	fmt.Fprintln(r.writer, "alphabet REPL")
	fmt.Fprintln(r.writer, "Type :help for help, :quit to exit")
	fmt.Fprintln(r.writer)
}

func (r *REPL) handleCommand(line string) bool {
	switch strings.TrimSpace(line) {
	case ":help", ":h", ":?":
		r.printHelp()
		return true
	case ":quit", ":q", ":exit":
		fmt.Fprintln(r.writer, "Bye!")
		os.Exit(0)
		return true
	case ":reset":
		r.rt.Reset()
		fmt.Fprintln(r.writer, "Session reset.")
		return true
	default:
		fmt.Fprintf(r.writer, "Unknown command: %s\n", line)
		fmt.Fprintln(r.writer, "Type :help for available commands.")
		return true
	}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.writer, "Available commands:")
	fmt.Fprintln(r.writer, "  :help, :h, :?   Show this help message")
	fmt.Fprintln(r.writer, "  :quit, :q, :exit Exit the REPL")
	fmt.Fprintln(r.writer, "  :reset          Discard all globals and classes, start fresh")
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, "Unfinished statements (open '{', '[', or '(') continue on the next line.")
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, "Example:")
	fmt.Fprintln(r.writer, "  >>> 5 x = 10")
	fmt.Fprintln(r.writer, "  >>> z.o(x + 1)")
}

func (r *REPL) execute(input string) {
	_, diags := r.rt.Eval(replHeader + input)
	if len(diags) == 0 {
		return
	}
	r.reporter.SetSource(replHeader, replHeader+input)
	for _, d := range diags {
		r.reporter.Report(alphaerrors.Diagnostic{Kind: d.Kind, Line: d.Line, Message: d.Message}, replHeader)
	}
}

// bracketDepth counts unbalanced '{', '[', '(' outside of string
// literals, mirroring the teacher's bracket-depth tracker; alphabet
// strings only use double quotes with no escape sequences.
func bracketDepth(input string) int {
	depth := 0
	inString := false
	for i := 0; i < len(input); i++ {
		c := input[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
	}
	return depth
}
