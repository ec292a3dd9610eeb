// Package runtime glues the scanner, parser, compiler, and VM into the
// single Run/Eval surface shared by the CLI, the REPL, and the language
// server's diagnostics.
package runtime

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/alphabet-lang/alphabet/internal/bytecode"
	"github.com/alphabet-lang/alphabet/internal/compiler"
	alphaerrors "github.com/alphabet-lang/alphabet/internal/errors"
	"github.com/alphabet-lang/alphabet/internal/ffi"
	"github.com/alphabet-lang/alphabet/internal/lexer"
	"github.com/alphabet-lang/alphabet/internal/parser"
	"github.com/alphabet-lang/alphabet/internal/vm"
)

// Diagnostic is one missing-header, parse, compile, or runtime problem,
// with the line it occurred on when known, in a form the CLI and the
// REPL both render directly.
type Diagnostic struct {
	Kind    alphaerrors.Kind
	Line    int
	Message string
}

// Runtime is a persistent alphabet session: one compiler (so class IDs
// and global slots stay stable across incremental evaluations) and one
// VM (so globals, static fields, and defined classes survive from one
// Eval call to the next). This is what lets the REPL behave like a
// single growing program instead of restarting from scratch each line.
type Runtime struct {
	comp    *compiler.Compiler
	machine *vm.VM
	classes map[uint16]*bytecode.CompiledClass

	MaxStack int
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	FFI      *ffi.Bridge
}

// New creates a Runtime with a fresh compiler and VM.
func New() *Runtime {
	r := &Runtime{
		comp:    compiler.New(),
		classes: make(map[uint16]*bytecode.CompiledClass),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
	r.resetVM()
	return r
}

func (r *Runtime) resetVM() {
	r.machine = vm.New(&bytecode.Program{Classes: r.classes}, r.MaxStack, r.Stdin, r.Stdout, r.Stderr)
	if r.FFI != nil {
		r.machine.SetFFI(r.FFI)
	}
}

// Reset discards every global and class defined so far, starting a
// fresh session while keeping the same Runtime value (and its
// Stdin/Stdout/Stderr wiring) alive — what the REPL's `:reset` uses.
func (r *Runtime) Reset() {
	r.comp = compiler.New()
	r.classes = make(map[uint16]*bytecode.CompiledClass)
	r.resetVM()
}

// compile lexes and parses source (which must already carry its
// `#alphabet<...>` header), then compiles it against this Runtime's
// persistent compiler. It returns the fresh program fragment plus
// parse/compile diagnostics.
func (r *Runtime) compile(source string) (*bytecode.Program, []Diagnostic) {
	toks, err := lexer.New(source).ScanTokens()
	if err != nil {
		return nil, []Diagnostic{{Kind: alphaerrors.MissingHeader, Message: err.Error()}}
	}
	p := parser.New(toks)
	stmts := p.Parse()
	if p.HasErrors() {
		diags := make([]Diagnostic, len(p.Errors()))
		for i, e := range p.Errors() {
			diags[i] = Diagnostic{Kind: alphaerrors.ParseError, Line: e.Line, Message: e.Message}
		}
		return nil, diags
	}
	prog, err := r.comp.Compile(stmts)
	if err != nil {
		ce, ok := err.(compiler.CompileError)
		if ok {
			return nil, []Diagnostic{{Kind: alphaerrors.CompileError, Line: ce.Line, Message: ce.Message}}
		}
		return nil, []Diagnostic{{Kind: alphaerrors.CompileError, Message: err.Error()}}
	}
	return prog, nil
}

// Run compiles and executes source as a complete, standalone program —
// the mode the CLI's file runner uses, through RunWithFFI. It starts
// from a clean Runtime of its own so a one-shot run never depends on
// prior session state.
func Run(source string, stdin io.Reader, stdout, stderr io.Writer, maxStack int) error {
	return RunWithFFI(source, stdin, stdout, stderr, maxStack, nil)
}

// RunWithFFI behaves like Run but installs bridge as the z.x() backend,
// for the CLI's file-running mode with an alphabet.toml ffi_allowed_dirs.
func RunWithFFI(source string, stdin io.Reader, stdout, stderr io.Writer, maxStack int, bridge *ffi.Bridge) error {
	r := &Runtime{comp: compiler.New(), classes: make(map[uint16]*bytecode.CompiledClass), FFI: bridge}
	r.MaxStack = maxStack
	r.Stdin, r.Stdout, r.Stderr = stdin, stdout, stderr
	_, diags := r.Eval(source)
	if len(diags) > 0 {
		reporter := alphaerrors.NewReporter()
		reporter.SetOutput(stderr)
		reporter.SetSource("<source>", source)
		for _, d := range diags {
			reporter.Report(alphaerrors.Diagnostic{Kind: d.Kind, Line: d.Line, Message: d.Message}, "<source>")
		}
		return fmt.Errorf("%d diagnostic(s)", len(diags))
	}
	return nil
}

// Eval compiles source against this session's running state and, on a
// clean compile, executes only the newly compiled fragment: new class
// bodies are merged into the session's class table, any new static
// field initializers run once, and the new top-level statements run
// against the globals already built up by earlier calls. It returns the
// Program fragment that ran (nil on a diagnostic) and any diagnostics.
func (r *Runtime) Eval(source string) (*bytecode.Program, []Diagnostic) {
	if r.machine == nil {
		r.resetVM()
	}
	prog, diags := r.compile(source)
	if len(diags) > 0 {
		return nil, diags
	}
	for id, class := range prog.Classes {
		r.classes[id] = class
	}
	r.machine.Program = &bytecode.Program{
		Main:        prog.Main,
		StaticInit:  prog.StaticInit,
		Classes:     r.classes,
		ClassByName: prog.ClassByName,
		Globals:     prog.Globals,
	}
	if err := r.machine.Run(); err != nil {
		return prog, []Diagnostic{{Kind: alphaerrors.RuntimeError, Message: err.Error()}}
	}
	return prog, nil
}

// Disassemble compiles source and renders its main instruction stream
// plus every class's method bodies as text, a human-readable cousin of
// the §6 fingerprint format. The CLI does not call it; -c/--compile
// writes the fingerprint through CompileToBytecode.
func (r *Runtime) Disassemble(source string) (string, error) {
	prog, diags := r.compile(source)
	if len(diags) > 0 {
		return "", fmt.Errorf("%d diagnostic(s)", len(diags))
	}
	var b bytes.Buffer
	fmt.Fprintln(&b, "== main ==")
	for _, instr := range prog.Main {
		fmt.Fprintln(&b, instr.String())
	}
	for _, class := range prog.Classes {
		fmt.Fprintf(&b, "\n== class %s (id=%d) ==\n", class.Name, class.ID)
		for name, method := range class.Methods {
			fmt.Fprintf(&b, "-- method %s --\n", name)
			for _, instr := range method.Instructions {
				fmt.Fprintln(&b, instr.String())
			}
		}
		for name, method := range class.StaticMethods {
			fmt.Fprintf(&b, "-- static method %s --\n", name)
			for _, instr := range method.Instructions {
				fmt.Fprintln(&b, instr.String())
			}
		}
	}
	return b.String(), nil
}

// CompileToBytecode compiles source and fingerprints its main stream in
// the §6 on-disk format, for the CLI's -c/--compile -o path.
func CompileToBytecode(source string, w io.Writer) error {
	r := &Runtime{comp: compiler.New(), classes: make(map[uint16]*bytecode.CompiledClass)}
	prog, diags := r.compile(source)
	if len(diags) > 0 {
		reporter := alphaerrors.NewReporter()
		reporter.SetSource("<source>", source)
		for _, d := range diags {
			reporter.Report(alphaerrors.Diagnostic{Kind: d.Kind, Line: d.Line, Message: d.Message}, "<source>")
		}
		return fmt.Errorf("%d diagnostic(s)", len(diags))
	}
	return bytecode.WriteFingerprint(w, prog.Main)
}
