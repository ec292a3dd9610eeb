package compiler

import (
	"fmt"

	"github.com/alphabet-lang/alphabet/internal/ast"
	"github.com/alphabet-lang/alphabet/internal/token"
	"github.com/alphabet-lang/alphabet/internal/typesys"
)

// checkTypes implements Pass 2a: verify every top-level var's initializer
// flows into its declared type, and every method's return expressions
// flow into its declared return type.
func (c *Compiler) checkTypes(statements []ast.Stmt) {
	for _, stmt := range statements {
		switch s := stmt.(type) {
		case *ast.Var:
			if s.Initializer == nil {
				continue
			}
			c.checkAssignable(s.Initializer, int(s.TypeID.Literal), s.Name.Line)
		case *ast.Class:
			if s.IsInterface {
				continue
			}
			for _, method := range s.Methods {
				c.checkMethodReturns(method)
			}
		}
	}
}

func (c *Compiler) checkMethodReturns(method *ast.Function) {
	returnType := int(method.ReturnType.Literal)
	for _, stmt := range method.Body {
		c.checkReturnsIn(stmt, returnType)
	}
}

// checkReturnsIn walks nested blocks/if/loop/try bodies looking for
// Return statements, since a return may be buried under control flow
// rather than sitting directly in the method body.
func (c *Compiler) checkReturnsIn(stmt ast.Stmt, returnType int) {
	switch s := stmt.(type) {
	case *ast.Return:
		if s.Value != nil {
			c.checkAssignable(s.Value, returnType, s.Keyword.Line)
		}
	case *ast.Block:
		for _, sub := range s.Statements {
			c.checkReturnsIn(sub, returnType)
		}
	case *ast.If:
		c.checkReturnsIn(s.Then, returnType)
		if s.Else != nil {
			c.checkReturnsIn(s.Else, returnType)
		}
	case *ast.Loop:
		c.checkReturnsIn(s.Body, returnType)
	case *ast.Try:
		c.checkReturnsIn(s.TryBlock, returnType)
		c.checkReturnsIn(s.HandleBlock, returnType)
	}
}

func (c *Compiler) checkAssignable(expr ast.Expr, declared int, line int) {
	inferred := c.inferType(expr)
	if !typesys.Assignable(inferred, declared) {
		panic(CompileError{Line: line, Message: fmt.Sprintf("cannot assign type %d to declared type %d", inferred, declared)})
	}
}

// inferType implements the coarse, best-effort inference rules of §4.4.
// It is never the sole arbiter of runtime behavior — only of whether the
// compile-time assignability check accepts a declaration.
func (c *Compiler) inferType(expr ast.Expr) int {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Kind {
		case ast.LiteralNumber:
			return typesys.F64
		case ast.LiteralString:
			return typesys.Str
		default:
			return typesys.I32
		}
	case *ast.Binary:
		return c.inferBinary(e)
	case *ast.Variable:
		if id, ok := c.classMap[e.Name.Lexeme]; ok {
			return int(id)
		}
		return typesys.I32
	case *ast.New:
		if id, ok := c.classMap[e.Name.Lexeme]; ok {
			return int(id)
		}
		return typesys.I32
	case *ast.ListLiteral:
		return typesys.List
	case *ast.MapLiteral:
		return typesys.Map
	case *ast.Grouping:
		return c.inferType(e.Expression)
	case *ast.Unary:
		return c.inferType(e.Right)
	case *ast.Assign:
		return c.inferType(e.Value)
	default:
		return typesys.I32
	}
}

func (c *Compiler) inferBinary(b *ast.Binary) int {
	left := c.inferType(b.Left)
	right := c.inferType(b.Right)
	switch b.Operator.Kind {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		switch {
		case typesys.IsInteger(left) && typesys.IsInteger(right):
			if left > right {
				return left
			}
			return right
		case typesys.IsFloat(left) || typesys.IsFloat(right):
			return typesys.F64
		default:
			return typesys.I32
		}
	default:
		return typesys.I32
	}
}
