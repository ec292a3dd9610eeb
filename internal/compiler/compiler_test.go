package compiler_test

import (
	"strings"
	"testing"

	"github.com/alphabet-lang/alphabet/internal/bytecode"
	"github.com/alphabet-lang/alphabet/internal/compiler"
	"github.com/alphabet-lang/alphabet/internal/lexer"
	"github.com/alphabet-lang/alphabet/internal/parser"
)

func compileSource(t *testing.T, src string) (*bytecode.Program, error) {
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
	return compiler.New().Compile(stmts)
}

func TestClassIDsStartAt15InSourceOrder(t *testing.T) {
	prog, err := compileSource(t, "c A { }\nc B { }\n")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if prog.ClassByName["A"] != 15 || prog.ClassByName["B"] != 16 {
		t.Fatalf("expected A=15, B=16, got A=%d, B=%d", prog.ClassByName["A"], prog.ClassByName["B"])
	}
}

func TestUnsupportedComparatorIsCompileError(t *testing.T) {
	_, err := compileSource(t, "z.o(1 <= 2)\n")
	if err == nil {
		t.Fatal("expected a CompileError for '<=', got nil")
	}
	ce, ok := err.(compiler.CompileError)
	if !ok {
		t.Fatalf("expected compiler.CompileError, got %T", err)
	}
	if !strings.Contains(ce.Message, "<=") {
		t.Fatalf("expected message to mention the operator, got %q", ce.Message)
	}
}

func TestUnaryAtIsReservedAndRejected(t *testing.T) {
	_, err := compileSource(t, "z.o(@5)\n")
	if err == nil {
		t.Fatal("expected a CompileError for unary '@', got nil")
	}
}

func TestNestedClassDeclarationIsRejected(t *testing.T) {
	_, err := compileSource(t, "c A { v m 5 f() { c B { } r 1 } }\n")
	if err == nil {
		t.Fatal("expected a CompileError for a nested class declaration, got nil")
	}
}

func TestDuplicateClassNameKeepsFirstID(t *testing.T) {
	prog, err := compileSource(t, "c A { v m 5 f() { r 1 } }\nc A { v m 5 g() { r 2 } }\n")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if prog.ClassByName["A"] != 15 || len(prog.Classes) != 1 {
		t.Fatalf("expected one class A with ID 15, got ID %d and %d classes", prog.ClassByName["A"], len(prog.Classes))
	}
}

func TestNewArgumentsDoNotUnbalanceTheStack(t *testing.T) {
	prog, err := compileSource(t, "c A { }\n15 o = n A(1, 2, 3)\nz.o(o)\n")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	depth := 0
	for _, instr := range prog.Main {
		if instr.Op == bytecode.New {
			break
		}
		switch instr.Op {
		case bytecode.PushConst:
			depth++
		case bytecode.Pop:
			depth--
		}
	}
	if depth != 0 {
		t.Fatalf("expected constructor arguments popped before NEW, net stack depth %d", depth)
	}
}

func TestRepeatedCompileReusesGlobalSlots(t *testing.T) {
	c := compiler.New()
	toks, err := lexer.New("#alphabet<x>\n5 x = 1\n").ScanTokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := parser.New(toks)
	if _, err := c.Compile(p.Parse()); err != nil {
		t.Fatalf("first compile error: %v", err)
	}

	toks2, err := lexer.New("#alphabet<x>\nx = 2\nz.o(x)\n").ScanTokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p2 := parser.New(toks2)
	prog2, err := c.Compile(p2.Parse())
	if err != nil {
		t.Fatalf("second compile error: %v", err)
	}
	if len(prog2.Globals) != 1 || prog2.Globals[0] != "x" {
		t.Fatalf("expected the single global slot x to be reused, got %v", prog2.Globals)
	}
	store := prog2.Main[1]
	if store.Op != bytecode.StoreVar || store.Operand.Kind != bytecode.OperandInt || store.Operand.Int != 0 {
		t.Fatalf("expected x = 2 to store into global slot 0, got %s", store)
	}
}
