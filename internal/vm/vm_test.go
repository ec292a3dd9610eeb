package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alphabet-lang/alphabet/internal/compiler"
	"github.com/alphabet-lang/alphabet/internal/lexer"
	"github.com/alphabet-lang/alphabet/internal/parser"
	"github.com/alphabet-lang/alphabet/internal/vm"
)

func runSource(t *testing.T, src string) (stdout, stderr string) {
	t.Helper()
	full := "#alphabet<x>\n" + src
	toks, err := lexer.New(full).ScanTokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := parser.New(toks)
	stmts := p.Parse()
	if p.HasErrors() {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	prog, err := compiler.New().Compile(stmts)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	var out, errBuf bytes.Buffer
	machine := vm.New(prog, 0, strings.NewReader(""), &out, &errBuf)
	if err := machine.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	return out.String(), errBuf.String()
}

func TestSeedPrintString(t *testing.T) {
	out, _ := runSource(t, `z.o("hi")`)
	if out != "hi\n" {
		t.Fatalf("got %q", out)
	}
}

func TestSeedArithmeticPrecedence(t *testing.T) {
	out, _ := runSource(t, "5 x = 10 + 20 * 3\nz.o(x)")
	if out != "70\n" {
		t.Fatalf("got %q", out)
	}
}

func TestSeedLoop(t *testing.T) {
	out, _ := runSource(t, "5 i = 0\nl (i < 3) { 5 i = i + 1 }\nz.o(i)")
	if out != "3\n" {
		t.Fatalf("got %q", out)
	}
}

func TestSeedMethodCall(t *testing.T) {
	out, _ := runSource(t, "c A { v m 5 g() { r 10 } }\n15 o = n A()\nz.o(o.g())")
	if out != "10\n" {
		t.Fatalf("got %q", out)
	}
}

func TestSeedListIndex(t *testing.T) {
	out, _ := runSource(t, "13 a = [1,2,3]\nz.o(a[1])")
	if out != "2\n" {
		t.Fatalf("got %q", out)
	}
}

func TestSeedTryHandleThrow(t *testing.T) {
	out, _ := runSource(t, "t { z.t() } h (12 e) { z.o(e) }")
	if out != "Custom Error 15\n" {
		t.Fatalf("got %q", out)
	}
}

func TestDivisionByZeroIsUnhandledWithoutHandler(t *testing.T) {
	out, errOut := runSource(t, "z.o(1 / 0)")
	if out != "" {
		t.Fatalf("expected no stdout, got %q", out)
	}
	if !strings.Contains(errOut, "Unhandled exception") {
		t.Fatalf("expected unhandled exception report, got %q", errOut)
	}
}

func TestDivisionByZeroIsCaughtByHandler(t *testing.T) {
	out, _ := runSource(t, "t { z.o(1 / 0) } h (12 e) { z.o(e) }")
	if !strings.Contains(out, "division by zero") {
		t.Fatalf("expected handler to see division-by-zero message, got %q", out)
	}
}

func TestModuloByZeroIsNaNNotError(t *testing.T) {
	out, _ := runSource(t, "z.o(5 % 0)")
	if out != "NaN\n" {
		t.Fatalf("got %q", out)
	}
}

func TestListIndexOutOfRangeReturnsNull(t *testing.T) {
	out, _ := runSource(t, "13 a = [1,2]\nz.o(a[9])")
	if out != "null\n" {
		t.Fatalf("got %q", out)
	}
}

func TestIfWithoutElseLeavesNoStackValue(t *testing.T) {
	out, _ := runSource(t, `i (1 < 2) { z.o("yes") }`)
	if out != "yes\n" {
		t.Fatalf("got %q", out)
	}
}

func TestLogicalAndShortCircuits(t *testing.T) {
	out, _ := runSource(t, `z.o((1 < 2) && (3 < 4))`)
	if out != "1\n" {
		t.Fatalf("got %q", out)
	}
	out, _ = runSource(t, `z.o((1 < 2) && (4 < 3))`)
	if out != "0\n" {
		t.Fatalf("got %q", out)
	}
	// a false left side must skip the right side, which would divide by zero
	out, _ = runSource(t, `z.o((4 < 3) && (1 / 0))`)
	if out != "0\n" {
		t.Fatalf("got %q", out)
	}
}

func TestLogicalOrShortCircuits(t *testing.T) {
	out, _ := runSource(t, `z.o((4 < 3) || (1 < 2))`)
	if out != "1\n" {
		t.Fatalf("got %q", out)
	}
	// a true left side must skip the right side, which would divide by zero
	out, _ = runSource(t, `z.o((1 < 2) || (1 / 0))`)
	if out != "1\n" {
		t.Fatalf("got %q", out)
	}
}

func TestEmptyTryDoesNotEnterHandler(t *testing.T) {
	out, _ := runSource(t, `t { z.o("ok") } h (12 e) { z.o("nope") }`)
	if out != "ok\n" {
		t.Fatalf("got %q", out)
	}
}

func TestStaticFieldAccessAcrossClasses(t *testing.T) {
	out, _ := runSource(t, "c A { v s 5 n = 7 }\nz.o(A.n)")
	if out != "7\n" {
		t.Fatalf("got %q", out)
	}
}

func TestPrivateFieldRejectedFromOutsideClass(t *testing.T) {
	_, errOut := runSource(t, "c A { p 5 n = 1 }\n15 o = n A()\nz.o(o.n)")
	if !strings.Contains(errOut, "Unhandled exception") {
		t.Fatalf("expected a private-access runtime error, got stderr %q", errOut)
	}
}

func TestReassigningAMethodParameterUpdatesTheParameterNotAGlobal(t *testing.T) {
	out, _ := runSource(t, "c A { v m 5 g(5 y) { y = y + 1 r y } }\n15 o = n A()\nz.o(o.g(5))")
	if out != "6\n" {
		t.Fatalf("got %q, want the reassigned parameter value 6", out)
	}
}

func TestMapLiteralAndStringConcat(t *testing.T) {
	out, _ := runSource(t, "14 d = {\"k\": 7}\nz.o(d[\"k\"])")
	if out != "7\n" {
		t.Fatalf("got %q", out)
	}
	out, _ = runSource(t, `z.o("a" + "b")`)
	if out != "ab\n" {
		t.Fatalf("got %q", out)
	}
}
