package compiler

import (
	"github.com/alphabet-lang/alphabet/internal/ast"
	"github.com/alphabet-lang/alphabet/internal/bytecode"
	"github.com/alphabet-lang/alphabet/internal/token"
)

// compileClass implements Pass 2b for one non-interface class: instance
// and static method bodies, plus a static-init stream that runs each
// static field's initializer in source order before the main stream.
func (c *Compiler) compileClass(class *ast.Class) *bytecode.CompiledClass {
	methods := make(map[string]bytecode.MethodBytecode)
	staticMethods := make(map[string]bytecode.MethodBytecode)
	methodVisibility := make(map[string]bool)
	fieldVisibility := make(map[string]bool)

	for _, method := range class.Methods {
		compiled := c.compileMethod(method)
		if isPrivate(method.Visibility) {
			methodVisibility[method.Name.Lexeme] = true
		}
		if method.IsStatic {
			staticMethods[method.Name.Lexeme] = compiled
		} else {
			methods[method.Name.Lexeme] = compiled
		}
	}

	savedCode := c.code
	c.code = nil
	classID := c.classMap[class.Name.Lexeme]
	for _, field := range class.Fields {
		if isPrivate(field.Visibility) {
			fieldVisibility[field.Name.Lexeme] = true
		}
		if field.IsStatic && field.Initializer != nil {
			c.emit(bytecode.PushConst, bytecode.IntOperand(int64(classID)), field.Name.Line)
			c.emitExpr(field.Initializer)
			c.emit(bytecode.SetStatic, bytecode.StringOperand(field.Name.Lexeme), field.Name.Line)
			c.emit(bytecode.Pop, bytecode.Operand{}, field.Name.Line)
		}
	}
	staticInit := c.code
	c.code = savedCode

	var superclass string
	if class.Superclass != nil {
		superclass = class.Superclass.Lexeme
	}

	return &bytecode.CompiledClass{
		Name:             class.Name.Lexeme,
		Superclass:       superclass,
		ID:               classID,
		Methods:          methods,
		StaticMethods:    staticMethods,
		StaticInit:       staticInit,
		FieldVisibility:  fieldVisibility,
		MethodVisibility: methodVisibility,
	}
}

func (c *Compiler) compileMethod(method *ast.Function) bytecode.MethodBytecode {
	savedCode := c.code
	c.code = nil
	for _, stmt := range method.Body {
		c.emitStmt(stmt)
	}
	if len(c.code) == 0 || c.code[len(c.code)-1].Op != bytecode.Ret {
		c.emit(bytecode.PushConst, bytecode.NullOperand(), method.Name.Line)
		c.emit(bytecode.Ret, bytecode.Operand{}, method.Name.Line)
	}
	body := c.code
	c.code = savedCode

	params := make([]string, len(method.Params))
	for i, p := range method.Params {
		params[i] = p.Name.Lexeme
	}
	return bytecode.MethodBytecode{Params: params, Instructions: body}
}

func isPrivate(visibility *token.Token) bool {
	return visibility != nil && visibility.Kind == token.PRIVATE
}
