// Package parser implements a recursive-descent, single-token-lookahead
// parser that turns a token stream into the tagged AST in package ast.
//
// Parse errors unwind to the nearest declaration boundary via panic/
// recover — the direct Go analogue of the exception-based recovery the
// reference implementation uses (raise/except around each declaration).
// Recovery then resynchronizes on the next 'c', 'm', 'i', 'l', or 'r'
// token and parsing continues.
package parser

import (
	"fmt"

	"github.com/alphabet-lang/alphabet/internal/ast"
	"github.com/alphabet-lang/alphabet/internal/token"
)

// Error is a single parse error, carrying the line it was raised on.
type Error struct {
	Line    int
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// parseError is the panic payload used for unwinding to the declaration
// boundary. It is never exposed outside this package.
type parseError struct{}

// Parser consumes a token vector and produces a statement list.
type Parser struct {
	tokens  []token.Token
	current int
	errors  []Error
}

// New creates a Parser over tokens (normally the output of the lexer).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse runs the program rule: declaration*. Malformed declarations are
// dropped; parsing continues after each resynchronization point.
func (p *Parser) Parse() []ast.Stmt {
	var statements []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// Errors returns every parse error collected during Parse.
func (p *Parser) Errors() []Error { return p.errors }

// HasErrors reports whether any parse error was collected.
func (p *Parser) HasErrors() bool { return len(p.errors) > 0 }

// ---------------------------------------------------------------------------
// declarations
// ---------------------------------------------------------------------------

func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()

	if p.check(token.INTERFACE) {
		p.advance()
		return p.interfaceDeclaration()
	}
	if p.check(token.CLASS) && p.checkNextIsIdentifier() {
		p.advance()
		return p.classDeclaration()
	}
	return p.statement()
}

func (p *Parser) interfaceDeclaration() ast.Stmt {
	name := p.consumeIdentifier("expect interface name")
	p.consume(token.LBRACE, "expect '{' before interface body")

	var methods []*ast.Function
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if !p.match(token.METHOD) {
			panic(p.errorAt(p.peek(), "interfaces can only contain methods"))
		}
		returnType := p.consume(token.NUMBER, "expect return type id")
		methodName := p.consumeIdentifier("expect method name")
		p.consume(token.LPAREN, "expect '(' after method name")
		params := p.parameterList()
		p.consume(token.RPAREN, "expect ')' after parameters")
		methods = append(methods, &ast.Function{Name: methodName, Params: params, ReturnType: returnType})
	}
	p.consume(token.RBRACE, "expect '}' after interface body")
	return &ast.Class{Name: name, IsInterface: true, Methods: methods}
}

func (p *Parser) classDeclaration() ast.Stmt {
	name := p.consumeIdentifier("expect class name")
	var superclass *token.Token
	var interfaces []token.Token
	if p.match(token.CARET) {
		super := p.consumeIdentifier("expect superclass or interface name")
		superclass = &super
		for p.match(token.COMMA) {
			interfaces = append(interfaces, p.consumeIdentifier("expect interface name"))
		}
	}
	p.consume(token.LBRACE, "expect '{' before class body")

	var methods []*ast.Function
	var fields []*ast.Var
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		visibility, isStatic := p.memberModifiers()
		switch {
		case p.match(token.METHOD):
			methods = append(methods, p.method(visibility, isStatic))
		case p.check(token.NUMBER):
			fields = append(fields, p.varDeclaration(visibility, isStatic))
		default:
			panic(p.errorAt(p.peek(), "expect method or field declaration"))
		}
	}
	p.consume(token.RBRACE, "expect '}' after class body")
	return &ast.Class{Name: name, Superclass: superclass, Methods: methods, Fields: fields, Interfaces: interfaces}
}

// memberModifiers consumes a run of 'v'/'p'/'s' modifiers. A repeated
// visibility or static modifier breaks the loop silently rather than
// raising an error, per the grammar note in §4.3.
func (p *Parser) memberModifiers() (visibility *token.Token, isStatic bool) {
	for {
		switch {
		case p.check(token.PUBLIC) || p.check(token.PRIVATE):
			if visibility != nil {
				return visibility, isStatic
			}
			tok := p.advance()
			visibility = &tok
		case p.check(token.STATIC):
			if isStatic {
				return visibility, isStatic
			}
			p.advance()
			isStatic = true
		default:
			return visibility, isStatic
		}
	}
}

func (p *Parser) method(visibility *token.Token, isStatic bool) *ast.Function {
	returnType := p.consume(token.NUMBER, "expect return type id")
	name := p.consumeIdentifier("expect method name")
	p.consume(token.LPAREN, "expect '(' after method name")
	params := p.parameterList()
	p.consume(token.RPAREN, "expect ')' after parameters")
	p.consume(token.LBRACE, "expect '{' before method body")
	body := p.block()
	return &ast.Function{Name: name, Params: params, Body: body, ReturnType: returnType, Visibility: visibility, IsStatic: isStatic}
}

func (p *Parser) parameterList() []*ast.Var {
	var params []*ast.Var
	if p.check(token.RPAREN) {
		return params
	}
	for {
		typeID := p.consume(token.NUMBER, "expect parameter type id")
		name := p.consumeIdentifier("expect parameter name")
		params = append(params, &ast.Var{TypeID: typeID, Name: name})
		if !p.match(token.COMMA) {
			break
		}
	}
	return params
}

func (p *Parser) varDeclaration(visibility *token.Token, isStatic bool) *ast.Var {
	typeID := p.consume(token.NUMBER, "expect type id")
	name := p.consumeIdentifier("expect variable name")
	var initializer ast.Expr
	if p.match(token.ASSIGN) {
		initializer = p.expression()
	}
	return &ast.Var{TypeID: typeID, Name: name, Initializer: initializer, Visibility: visibility, IsStatic: isStatic}
}

// ---------------------------------------------------------------------------
// statements
// ---------------------------------------------------------------------------

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.LOOP):
		return p.loopStatement()
	case p.match(token.TRY):
		return p.tryStatement()
	case p.match(token.LBRACE):
		return &ast.Block{Statements: p.block()}
	case p.check(token.NUMBER):
		return p.varDeclaration(nil, false)
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) ifStatement() ast.Stmt {
	p.consume(token.LPAREN, "expect '(' after 'i'")
	condition := p.expression()
	p.consume(token.RPAREN, "expect ')' after if condition")
	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(token.ELSE) {
		elseBranch = p.statement()
	}
	return &ast.If{Condition: condition, Then: thenBranch, Else: elseBranch}
}

func (p *Parser) loopStatement() ast.Stmt {
	p.consume(token.LPAREN, "expect '(' after 'l'")
	condition := p.expression()
	p.consume(token.RPAREN, "expect ')' after loop condition")
	body := p.statement()
	return &ast.Loop{Condition: condition, Body: body}
}

func (p *Parser) tryStatement() ast.Stmt {
	p.consume(token.LBRACE, "expect '{' before try block")
	tryBlock := &ast.Block{Statements: p.block()}
	p.consume(token.HANDLE, "expect 'h' after try block")
	p.consume(token.LPAREN, "expect '(' after 'h'")
	exceptionTy := p.consume(token.NUMBER, "expect exception type id")
	exceptionVar := p.consumeIdentifier("expect exception variable name")
	p.consume(token.RPAREN, "expect ')' after exception catch details")
	p.consume(token.LBRACE, "expect '{' before handle block")
	handleBlock := &ast.Block{Statements: p.block()}
	return &ast.Try{TryBlock: tryBlock, ExceptionTy: exceptionTy, ExceptionVar: exceptionVar, HandleBlock: handleBlock}
}

func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(token.RBRACE) && !p.isAtEnd() {
		value = p.tryExpression()
	}
	return &ast.Return{Keyword: keyword, Value: value}
}

// tryExpression attempts to parse an expression, swallowing a failure and
// returning nil instead — mirrors the reference implementation's
// try/except around the optional return value.
func (p *Parser) tryExpression() (expr ast.Expr) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); !ok {
				panic(r)
			}
			expr = nil
		}
	}()
	return p.expression()
}

func (p *Parser) block() []ast.Stmt {
	var statements []ast.Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	p.consume(token.RBRACE, "expect '}' after block")
	return statements
}

func (p *Parser) expressionStatement() ast.Stmt {
	return &ast.ExpressionStmt{Expression: p.expression()}
}

// ---------------------------------------------------------------------------
// expressions — precedence ladder: assignment > or > and > equality >
// comparison > term > factor > unary > call > primary.
// ---------------------------------------------------------------------------

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	expr := p.orExpr()
	if p.match(token.ASSIGN) {
		equals := p.previous()
		value := p.assignment()
		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Value: value}
		case *ast.Get:
			return &ast.Set{Object: target.Object, Name: target.Name, Value: value}
		default:
			panic(p.errorAt(equals, "invalid assignment target"))
		}
	}
	return expr
}

func (p *Parser) orExpr() ast.Expr {
	expr := p.andExpr()
	for p.match(token.OR) {
		operator := p.previous()
		right := p.andExpr()
		expr = &ast.Logical{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) andExpr() ast.Expr {
	expr := p.equality()
	for p.match(token.AND) {
		operator := p.previous()
		right := p.equality()
		expr = &ast.Logical{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.match(token.EQ, token.NE) {
		operator := p.previous()
		right := p.comparison()
		expr = &ast.Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(token.GT, token.GE, token.LT, token.LE) {
		operator := p.previous()
		right := p.term()
		expr = &ast.Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.match(token.MINUS, token.PLUS) {
		operator := p.previous()
		right := p.factor()
		expr = &ast.Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(token.SLASH, token.STAR, token.PERCENT) {
		operator := p.previous()
		right := p.unary()
		expr = &ast.Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(token.NOT, token.MINUS, token.AT) {
		operator := p.previous()
		right := p.unary()
		return &ast.Unary{Operator: operator, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(token.LPAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			name := p.consumeIdentifier("expect property name after '.'")
			expr = &ast.Get{Object: expr, Name: name}
		case p.match(token.LBRACKET):
			index := p.expression()
			p.consume(token.RBRACKET, "expect ']' after index")
			expr = &ast.IndexExpr{Object: expr, Index: index}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.consume(token.RPAREN, "expect ')' after arguments")
	return &ast.Call{Callee: callee, Paren: paren, Arguments: args}
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(token.NUMBER):
		return &ast.Literal{Kind: ast.LiteralNumber, Number: p.previous().Literal}
	case p.match(token.STRING):
		return &ast.Literal{Kind: ast.LiteralString, Str: p.previous().Lexeme}
	case p.match(token.SYSTEM):
		return &ast.Variable{Name: p.previous()}
	case p.match(token.NEW):
		name := p.consumeIdentifier("expect class name after 'n'")
		var args []ast.Expr
		if p.match(token.LPAREN) {
			if !p.check(token.RPAREN) {
				for {
					args = append(args, p.expression())
					if !p.match(token.COMMA) {
						break
					}
				}
			}
			p.consume(token.RPAREN, "expect ')' after arguments")
		}
		return &ast.New{Name: name, Arguments: args}
	case p.isIdentifier():
		return &ast.Variable{Name: p.advance()}
	case p.match(token.LBRACKET):
		var elements []ast.Expr
		if !p.check(token.RBRACKET) {
			for {
				elements = append(elements, p.expression())
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		p.consume(token.RBRACKET, "expect ']' after list elements")
		return &ast.ListLiteral{Elements: elements}
	case p.match(token.LBRACE):
		var keys, values []ast.Expr
		if !p.check(token.RBRACE) {
			for {
				keys = append(keys, p.expression())
				p.consume(token.COLON, "expect ':' after map key")
				values = append(values, p.expression())
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		p.consume(token.RBRACE, "expect '}' after map elements")
		return &ast.MapLiteral{Keys: keys, Values: values}
	case p.match(token.LPAREN):
		expr := p.expression()
		p.consume(token.RPAREN, "expect ')' after expression")
		return &ast.Grouping{Expression: expr}
	}
	panic(p.errorAt(p.peek(), "expect expression"))
}

// ---------------------------------------------------------------------------
// token helpers
// ---------------------------------------------------------------------------

// isIdentifier reports whether the current token may serve as a name:
// either a real IDENT token, or a single reserved-letter keyword token
// being used as a name (e.g. a method literally called 'g').
func (p *Parser) isIdentifier() bool {
	if p.isAtEnd() {
		return false
	}
	t := p.peek()
	return t.Kind == token.IDENT || isSingleLetterLexeme(t.Lexeme)
}

func (p *Parser) checkNextIsIdentifier() bool {
	if p.current+1 >= len(p.tokens) {
		return false
	}
	t := p.tokens[p.current+1]
	return t.Kind == token.IDENT || isSingleLetterLexeme(t.Lexeme)
}

func isSingleLetterLexeme(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p *Parser) consumeIdentifier(message string) token.Token {
	if p.isIdentifier() {
		return p.advance()
	}
	panic(p.errorAt(p.peek(), message))
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(kind token.Kind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) consume(kind token.Kind, message string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	panic(p.errorAt(p.peek(), message))
}

func (p *Parser) errorAt(tok token.Token, message string) parseError {
	p.errors = append(p.errors, Error{Line: tok.Line, Message: message})
	return parseError{}
}

// synchronize discards tokens until the next token is a 'c', 'm', 'i',
// 'l', or 'r' keyword, so the next declaration starts on that keyword.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case token.CLASS, token.METHOD, token.IF, token.LOOP, token.RETURN:
			return
		}
		p.advance()
	}
}
