package errors

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reporter accumulates Diagnostics for one compilation/run and renders
// them against cached source text.
type Reporter struct {
	formatter   *Formatter
	sourceCache map[string][]string
	diags       []Diagnostic
	out         io.Writer
}

// NewReporter creates a Reporter that prints to stderr by default.
func NewReporter() *Reporter {
	return &Reporter{
		formatter:   NewFormatter(),
		sourceCache: make(map[string][]string),
		out:         os.Stderr,
	}
}

// SetOutput redirects rendered diagnostics to w.
func (r *Reporter) SetOutput(w io.Writer) { r.out = w }

// SetFormatter overrides the default formatter.
func (r *Reporter) SetFormatter(f *Formatter) { r.formatter = f }

// LoadSource caches filename's lines for source-context rendering. A
// failed read just means diagnostics for that file render without a
// source excerpt.
func (r *Reporter) LoadSource(filename string) {
	if _, ok := r.sourceCache[filename]; ok {
		return
	}
	file, err := os.Open(filename)
	if err != nil {
		return
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	r.sourceCache[filename] = lines
}

// SetSource registers content directly, for the REPL and in-memory runs
// that have no file on disk to load.
func (r *Reporter) SetSource(key, content string) {
	r.sourceCache[key] = strings.Split(content, "\n")
}

// Report records d and prints its rendered form immediately.
func (r *Reporter) Report(d Diagnostic, sourceKey string) {
	r.diags = append(r.diags, d)
	fmt.Fprint(r.out, r.formatter.Format(d, r.sourceCache[sourceKey]))
}

// HasErrors reports whether any diagnostic has been recorded.
func (r *Reporter) HasErrors() bool { return len(r.diags) > 0 }

// Count returns the number of diagnostics recorded so far.
func (r *Reporter) Count() int { return len(r.diags) }

// Diagnostics returns every diagnostic recorded so far.
func (r *Reporter) Diagnostics() []Diagnostic { return r.diags }

// Clear discards all recorded diagnostics, keeping the source cache.
func (r *Reporter) Clear() { r.diags = nil }
