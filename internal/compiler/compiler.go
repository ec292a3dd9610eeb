// Package compiler lowers the parser's AST into the bytecode package's
// instruction streams: a two-pass walk that first assigns user classes
// their IDs, then type-checks declared initializers and return values,
// then emits code for every class and the main stream.
package compiler

import (
	"fmt"

	"github.com/alphabet-lang/alphabet/internal/ast"
	"github.com/alphabet-lang/alphabet/internal/bytecode"
	"github.com/alphabet-lang/alphabet/internal/token"
	"github.com/alphabet-lang/alphabet/internal/typesys"
)

// CompileError is raised by the type checker or by codegen encountering a
// construct it has no lowering for (e.g. unary '@'). It is never
// recovered — the compile aborts.
type CompileError struct {
	Line    int
	Message string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Compiler holds the state threaded through both compiler passes.
type Compiler struct {
	types      *typesys.Registry
	classMap   map[string]uint16
	classOrder []string
	globals    []string
	code       []bytecode.Instruction
}

// New creates a Compiler with a fresh primitive type registry.
func New() *Compiler {
	return &Compiler{
		types:    typesys.New(),
		classMap: make(map[string]uint16),
	}
}

// Compile runs both passes and returns the finished Program, or the first
// CompileError encountered.
func (c *Compiler) Compile(statements []ast.Stmt) (prog *bytecode.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(CompileError)
			if !ok {
				panic(r)
			}
			prog, err = nil, ce
		}
	}()

	c.assignClassIDs(statements)
	c.checkTypes(statements)

	classes := make(map[uint16]*bytecode.CompiledClass, len(c.classOrder))
	var staticInit []bytecode.Instruction
	for _, stmt := range statements {
		class, ok := stmt.(*ast.Class)
		if !ok || class.IsInterface {
			continue
		}
		compiled := c.compileClass(class)
		classes[compiled.ID] = compiled
		staticInit = append(staticInit, compiled.StaticInit...)
	}

	c.code = nil
	for _, stmt := range statements {
		if _, ok := stmt.(*ast.Class); ok {
			continue
		}
		c.emitStmt(stmt)
	}
	c.emit(bytecode.Halt, bytecode.Operand{}, 0)

	classByName := make(map[string]uint16, len(c.classMap))
	for name, id := range c.classMap {
		classByName[name] = id
	}

	return &bytecode.Program{
		Main:        c.code,
		StaticInit:  staticInit,
		Classes:     classes,
		ClassByName: classByName,
		Globals:     c.globals,
	}, nil
}

// assignClassIDs implements Pass 1: enumerate top-level non-interface
// classes and allocate IDs in source order, starting at 15.
func (c *Compiler) assignClassIDs(statements []ast.Stmt) {
	for _, stmt := range statements {
		class, ok := stmt.(*ast.Class)
		if !ok || class.IsInterface {
			continue
		}
		name := class.Name.Lexeme
		if _, exists := c.classMap[name]; exists {
			continue
		}
		id, err := c.types.Register(name)
		if err != nil {
			panic(CompileError{Line: class.Name.Line, Message: err.Error()})
		}
		c.classMap[name] = uint16(id)
		c.classOrder = append(c.classOrder, name)
	}
}

// addGlobal appends name to the compiler-local global list the first
// time it is declared (Var, or a try/handle exception variable) and
// returns its index. A name already present keeps its original index.
func (c *Compiler) addGlobal(name string) int {
	for i, g := range c.globals {
		if g == name {
			return i
		}
	}
	c.globals = append(c.globals, name)
	return len(c.globals) - 1
}

// globalIndex reports the index of an already-declared global, without
// creating one.
func (c *Compiler) globalIndex(name string) (int, bool) {
	for i, g := range c.globals {
		if g == name {
			return i, true
		}
	}
	return 0, false
}

func (c *Compiler) emit(op bytecode.OpCode, operand bytecode.Operand, line int) int {
	c.code = append(c.code, bytecode.Instruction{Op: op, Operand: operand, Line: line})
	return len(c.code) - 1
}

func (c *Compiler) patch(idx int, target int) {
	c.code[idx].Operand = bytecode.IntOperand(int64(target))
}

func (c *Compiler) here() int { return len(c.code) }

// ---------------------------------------------------------------------------
// statements
// ---------------------------------------------------------------------------

func (c *Compiler) emitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		c.emitExpr(s.Expression)
		c.emit(bytecode.Pop, bytecode.Operand{}, 0)
	case *ast.Var:
		if s.Initializer != nil {
			c.emitExpr(s.Initializer)
		} else {
			c.emit(bytecode.PushConst, bytecode.NullOperand(), s.Name.Line)
		}
		idx := c.addGlobal(s.Name.Lexeme)
		c.emit(bytecode.StoreVar, bytecode.IntOperand(int64(idx)), s.Name.Line)
	case *ast.Block:
		for _, sub := range s.Statements {
			c.emitStmt(sub)
		}
	case *ast.If:
		c.emitExpr(s.Condition)
		falseJump := c.emit(bytecode.JumpIfFalse, bytecode.Operand{}, 0)
		c.emitStmt(s.Then)
		if s.Else != nil {
			exitJump := c.emit(bytecode.Jump, bytecode.Operand{}, 0)
			c.patch(falseJump, c.here())
			c.emitStmt(s.Else)
			c.patch(exitJump, c.here())
		} else {
			c.patch(falseJump, c.here())
		}
	case *ast.Loop:
		start := c.here()
		c.emitExpr(s.Condition)
		exitJump := c.emit(bytecode.JumpIfFalse, bytecode.Operand{}, 0)
		c.emitStmt(s.Body)
		c.emit(bytecode.Jump, bytecode.IntOperand(int64(start)), 0)
		c.patch(exitJump, c.here())
	case *ast.Try:
		setupIdx := c.emit(bytecode.SetupTry, bytecode.Operand{}, 0)
		c.emitStmt(s.TryBlock)
		c.emit(bytecode.PopTry, bytecode.Operand{}, 0)
		exitJump := c.emit(bytecode.Jump, bytecode.Operand{}, 0)
		c.patch(setupIdx, c.here())
		idx := c.addGlobal(s.ExceptionVar.Lexeme)
		c.emit(bytecode.StoreVar, bytecode.IntOperand(int64(idx)), s.ExceptionVar.Line)
		c.emit(bytecode.Pop, bytecode.Operand{}, 0)
		c.emitStmt(s.HandleBlock)
		c.patch(exitJump, c.here())
	case *ast.Return:
		if s.Value != nil {
			c.emitExpr(s.Value)
		} else {
			c.emit(bytecode.PushConst, bytecode.NullOperand(), s.Keyword.Line)
		}
		c.emit(bytecode.Ret, bytecode.Operand{}, s.Keyword.Line)
	case *ast.Class:
		panic(CompileError{Line: s.Name.Line, Message: "nested class declarations are not supported"})
	default:
		panic(CompileError{Message: fmt.Sprintf("no codegen for statement %T", stmt)})
	}
}

// ---------------------------------------------------------------------------
// expressions
// ---------------------------------------------------------------------------

func (c *Compiler) emitExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Literal:
		c.emitLiteral(e)
	case *ast.Variable:
		c.emitVariable(e)
	case *ast.Assign:
		c.emitExpr(e.Value)
		if idx, ok := c.globalIndex(e.Name.Lexeme); ok {
			c.emit(bytecode.StoreVar, bytecode.IntOperand(int64(idx)), e.Name.Line)
		} else {
			c.emit(bytecode.StoreVar, bytecode.StringOperand(e.Name.Lexeme), e.Name.Line)
		}
	case *ast.Logical:
		c.emitLogical(e)
	case *ast.Binary:
		c.emitBinary(e)
	case *ast.Unary:
		c.emitUnary(e)
	case *ast.Grouping:
		c.emitExpr(e.Expression)
	case *ast.Get:
		c.emitExpr(e.Object)
		if c.isClassReceiver(e.Object) {
			c.emit(bytecode.GetStatic, bytecode.StringOperand(e.Name.Lexeme), e.Name.Line)
		} else {
			c.emit(bytecode.LoadField, bytecode.StringOperand(e.Name.Lexeme), e.Name.Line)
		}
	case *ast.Set:
		c.emitExpr(e.Object)
		c.emitExpr(e.Value)
		if c.isClassReceiver(e.Object) {
			c.emit(bytecode.SetStatic, bytecode.StringOperand(e.Name.Lexeme), e.Name.Line)
		} else {
			c.emit(bytecode.StoreField, bytecode.StringOperand(e.Name.Lexeme), e.Name.Line)
		}
	case *ast.New:
		// Constructor dispatch isn't implemented (see §4.5): arguments are
		// evaluated for any side effects and then discarded, rather than
		// left on the stack, so the operand stack stays balanced.
		for _, arg := range e.Arguments {
			c.emitExpr(arg)
			c.emit(bytecode.Pop, bytecode.Operand{}, e.Name.Line)
		}
		c.emit(bytecode.New, bytecode.StringOperand(e.Name.Lexeme), e.Name.Line)
	case *ast.Call:
		c.emitCall(e)
	case *ast.ListLiteral:
		for _, el := range e.Elements {
			c.emitExpr(el)
		}
		c.emit(bytecode.BuildList, bytecode.IntOperand(int64(len(e.Elements))), 0)
	case *ast.MapLiteral:
		for i := range e.Keys {
			c.emitExpr(e.Keys[i])
			c.emitExpr(e.Values[i])
		}
		c.emit(bytecode.BuildMap, bytecode.IntOperand(int64(len(e.Keys))), 0)
	case *ast.IndexExpr:
		c.emitExpr(e.Object)
		c.emitExpr(e.Index)
		c.emit(bytecode.LoadIndex, bytecode.Operand{}, 0)
	default:
		panic(CompileError{Message: fmt.Sprintf("no codegen for expression %T", expr)})
	}
}

func (c *Compiler) emitLiteral(lit *ast.Literal) {
	switch lit.Kind {
	case ast.LiteralNumber:
		c.emit(bytecode.PushConst, bytecode.FloatOperand(lit.Number), 0)
	case ast.LiteralString:
		c.emit(bytecode.PushConst, bytecode.StringOperand(lit.Str), 0)
	default:
		c.emit(bytecode.PushConst, bytecode.NullOperand(), 0)
	}
}

func (c *Compiler) emitVariable(v *ast.Variable) {
	name := v.Name.Lexeme
	if name == "z" {
		c.emit(bytecode.PushConst, bytecode.StringOperand("SYSTEM_Z"), v.Name.Line)
		return
	}
	if idx, ok := c.globalIndex(name); ok {
		c.emit(bytecode.LoadVar, bytecode.IntOperand(int64(idx)), v.Name.Line)
		return
	}
	if id, ok := c.classMap[name]; ok {
		c.emit(bytecode.PushConst, bytecode.IntOperand(int64(id)), v.Name.Line)
		return
	}
	c.emit(bytecode.LoadVar, bytecode.StringOperand(name), v.Name.Line)
}

func (c *Compiler) isClassReceiver(expr ast.Expr) bool {
	v, ok := expr.(*ast.Variable)
	if !ok {
		return false
	}
	_, ok = c.classMap[v.Name.Lexeme]
	return ok
}

// emitLogical lowers && and || into a boolean-result sequence built from
// JUMP_IF_FALSE/JUMP/PUSH_CONST — there is no DUP opcode to re-push a
// short-circuited operand, so both branches explicitly push a 1.0/0.0
// sentinel instead, matching NOT's truthiness convention. The reference
// compiler has no lowering for Logical at all; this fills that gap.
func (c *Compiler) emitLogical(l *ast.Logical) {
	switch l.Operator.Kind {
	case token.AND:
		c.emitExpr(l.Left)
		falseJump1 := c.emit(bytecode.JumpIfFalse, bytecode.Operand{}, 0)
		c.emitExpr(l.Right)
		falseJump2 := c.emit(bytecode.JumpIfFalse, bytecode.Operand{}, 0)
		c.emit(bytecode.PushConst, bytecode.FloatOperand(1), 0)
		exitJump := c.emit(bytecode.Jump, bytecode.Operand{}, 0)
		c.patch(falseJump1, c.here())
		c.patch(falseJump2, c.here())
		c.emit(bytecode.PushConst, bytecode.FloatOperand(0), 0)
		c.patch(exitJump, c.here())
	case token.OR:
		c.emitExpr(l.Left)
		leftFalse := c.emit(bytecode.JumpIfFalse, bytecode.Operand{}, 0)
		c.emit(bytecode.PushConst, bytecode.FloatOperand(1), 0)
		trueExit1 := c.emit(bytecode.Jump, bytecode.Operand{}, 0)
		c.patch(leftFalse, c.here())
		c.emitExpr(l.Right)
		rightFalse := c.emit(bytecode.JumpIfFalse, bytecode.Operand{}, 0)
		c.emit(bytecode.PushConst, bytecode.FloatOperand(1), 0)
		trueExit2 := c.emit(bytecode.Jump, bytecode.Operand{}, 0)
		c.patch(rightFalse, c.here())
		c.emit(bytecode.PushConst, bytecode.FloatOperand(0), 0)
		c.patch(trueExit1, c.here())
		c.patch(trueExit2, c.here())
	}
}

var binaryOps = map[token.Kind]bytecode.OpCode{
	token.PLUS:    bytecode.Add,
	token.MINUS:   bytecode.Sub,
	token.STAR:    bytecode.Mul,
	token.SLASH:   bytecode.Div,
	token.PERCENT: bytecode.Mod,
	token.EQ:      bytecode.Eq,
	token.GT:      bytecode.Gt,
	token.LT:      bytecode.Lt,
}

// emitBinary only lowers the eight operators the reference compiler's
// op_map covers (+ - * / % == < >). '!=', '<=', '>=' have VM opcodes
// reserved for them but, per §4.4, "other comparators are not emitted" —
// reaching one here is a CompileError rather than a silent no-op.
func (c *Compiler) emitBinary(b *ast.Binary) {
	op, ok := binaryOps[b.Operator.Kind]
	if !ok {
		panic(CompileError{Line: b.Operator.Line, Message: fmt.Sprintf("operator %q has no bytecode lowering", b.Operator.Lexeme)})
	}
	c.emitExpr(b.Left)
	c.emitExpr(b.Right)
	c.emit(op, bytecode.Operand{}, b.Operator.Line)
}

func (c *Compiler) emitUnary(u *ast.Unary) {
	switch u.Operator.Kind {
	case token.NOT:
		c.emitExpr(u.Right)
		c.emit(bytecode.Not, bytecode.Operand{}, u.Operator.Line)
	case token.MINUS:
		c.emit(bytecode.PushConst, bytecode.FloatOperand(0), u.Operator.Line)
		c.emitExpr(u.Right)
		c.emit(bytecode.Sub, bytecode.Operand{}, u.Operator.Line)
	case token.AT:
		// Reserved per spec §9 open question (iv): parsed but never lowered.
		panic(CompileError{Line: u.Operator.Line, Message: "unary '@' is reserved and has no bytecode lowering"})
	default:
		panic(CompileError{Line: u.Operator.Line, Message: fmt.Sprintf("unknown unary operator %q", u.Operator.Lexeme)})
	}
}

func (c *Compiler) emitCall(call *ast.Call) {
	switch callee := call.Callee.(type) {
	case *ast.Get:
		c.emitExpr(callee.Object)
		for _, arg := range call.Arguments {
			c.emitExpr(arg)
		}
		if callee.Name.Lexeme == "o" {
			c.emit(bytecode.Print, bytecode.Operand{}, callee.Name.Line)
		} else {
			c.emit(bytecode.Call, bytecode.CallOperand(callee.Name.Lexeme, len(call.Arguments)), callee.Name.Line)
		}
	case *ast.Variable:
		name := callee.Name.Lexeme
		if name == "z" {
			c.emit(bytecode.PushConst, bytecode.StringOperand("SYSTEM_Z"), callee.Name.Line)
		}
		for _, arg := range call.Arguments {
			c.emitExpr(arg)
		}
		c.emit(bytecode.Call, bytecode.CallOperand(name, len(call.Arguments)), callee.Name.Line)
	default:
		panic(CompileError{Line: call.Paren.Line, Message: "unsupported call target"})
	}
}
