package parser

import (
	"testing"

	"github.com/alphabet-lang/alphabet/internal/ast"
	"github.com/alphabet-lang/alphabet/internal/lexer"
)

func parse(t *testing.T, src string) ([]ast.Stmt, *Parser) {
	t.Helper()
	toks, err := lexer.New("#alphabet<x>\n" + src).ScanTokens()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := New(toks)
	stmts := p.Parse()
	return stmts, p
}

func TestVarDeclarationWithInitializer(t *testing.T) {
	stmts, p := parse(t, "5 x = 10")
	if p.HasErrors() {
		t.Fatalf("unexpected errors: %v", p.Errors())
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	v, ok := stmts[0].(*ast.Var)
	if !ok {
		t.Fatalf("expected *ast.Var, got %T", stmts[0])
	}
	if v.Initializer == nil {
		t.Fatalf("expected initializer")
	}
}

func TestIfElseStatement(t *testing.T) {
	stmts, p := parse(t, "i (1) { r 1 } e { r 2 }")
	if p.HasErrors() {
		t.Fatalf("unexpected errors: %v", p.Errors())
	}
	ifStmt, ok := stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", stmts[0])
	}
	if ifStmt.Else == nil {
		t.Fatalf("expected else branch")
	}
}

func TestClassWithSuperclassAndInterfaces(t *testing.T) {
	stmts, p := parse(t, "c Dog ^ Animal, Named { m 5 bark() { r 1 } }")
	if p.HasErrors() {
		t.Fatalf("unexpected errors: %v", p.Errors())
	}
	class, ok := stmts[0].(*ast.Class)
	if !ok {
		t.Fatalf("expected *ast.Class, got %T", stmts[0])
	}
	if class.Superclass == nil || class.Superclass.Lexeme != "Animal" {
		t.Fatalf("expected superclass Animal, got %v", class.Superclass)
	}
	if len(class.Interfaces) != 1 || class.Interfaces[0].Lexeme != "Named" {
		t.Fatalf("expected one interface Named, got %v", class.Interfaces)
	}
}

func TestMethodWithVisibilityAndStatic(t *testing.T) {
	stmts, p := parse(t, "c Foo { v s m 5 bar() { r 1 } }")
	if p.HasErrors() {
		t.Fatalf("unexpected errors: %v", p.Errors())
	}
	class := stmts[0].(*ast.Class)
	if len(class.Methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(class.Methods))
	}
	m := class.Methods[0]
	if !m.IsStatic || m.Visibility == nil {
		t.Fatalf("expected static + visibility set, got %+v", m)
	}
}

func TestInvalidAssignmentTargetIsRejected(t *testing.T) {
	_, p := parse(t, "1 + 2 = 3")
	if !p.HasErrors() {
		t.Fatalf("expected an error for invalid assignment target")
	}
}

func TestTryHandleStatement(t *testing.T) {
	stmts, p := parse(t, "t { 5 x = 1 } h (12 e) { r 0 }")
	if p.HasErrors() {
		t.Fatalf("unexpected errors: %v", p.Errors())
	}
	tryStmt, ok := stmts[0].(*ast.Try)
	if !ok {
		t.Fatalf("expected *ast.Try, got %T", stmts[0])
	}
	if tryStmt.ExceptionVar.Lexeme != "e" {
		t.Fatalf("expected exception var named 'e', got %q", tryStmt.ExceptionVar.Lexeme)
	}
}

func TestBareReturnDoesNotPanic(t *testing.T) {
	stmts, p := parse(t, "c A { m 5 foo() { r } }")
	if p.HasErrors() {
		t.Fatalf("unexpected errors: %v", p.Errors())
	}
	_ = stmts
}

func TestSynchronizeRecoversAfterMalformedDeclaration(t *testing.T) {
	stmts, p := parse(t, "5 = ; c Ok { }")
	if !p.HasErrors() {
		t.Fatalf("expected at least one error")
	}
	found := false
	for _, s := range stmts {
		if c, ok := s.(*ast.Class); ok && c.Name.Lexeme == "Ok" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected parser to recover and still parse class Ok, got %v", stmts)
	}
}

func TestListAndMapLiterals(t *testing.T) {
	stmts, p := parse(t, "13 xs = [1, 2, 3]")
	if p.HasErrors() {
		t.Fatalf("unexpected errors: %v", p.Errors())
	}
	v := stmts[0].(*ast.Var)
	list, ok := v.Initializer.(*ast.ListLiteral)
	if !ok {
		t.Fatalf("expected *ast.ListLiteral, got %T", v.Initializer)
	}
	if len(list.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(list.Elements))
	}
}

func TestCallChainAndFieldAccess(t *testing.T) {
	stmts, p := parse(t, "z.o(x.y())")
	if p.HasErrors() {
		t.Fatalf("unexpected errors: %v", p.Errors())
	}
	exprStmt, ok := stmts[0].(*ast.ExpressionStmt)
	if !ok {
		t.Fatalf("expected *ast.ExpressionStmt, got %T", stmts[0])
	}
	call, ok := exprStmt.Expression.(*ast.Call)
	if !ok {
		t.Fatalf("expected *ast.Call, got %T", exprStmt.Expression)
	}
	if _, ok := call.Callee.(*ast.Get); !ok {
		t.Fatalf("expected callee to be a Get, got %T", call.Callee)
	}
}
