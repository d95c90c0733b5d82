// Package parser builds an *ast.Program from source text. It is a small
// recursive-descent parser over internal/lexer's token stream; ParseExpr
// additionally serves pattern authoring, which uses the same surface
// syntax as programs.
package parser

import (
	"fmt"

	"github.com/johnli0135/numpy-types/internal/ast"
	"github.com/johnli0135/numpy-types/internal/lexer"
	"github.com/johnli0135/numpy-types/internal/token"
)

// Parser holds the token stream and lookahead.
type Parser struct {
	tokens []token.Token
	pos    int
	errs   []error
}

// Parse lexes and parses src into a Program.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks}
	prog := &ast.Program{Body: p.parseBlockTopLevel()}
	if len(p.errs) > 0 {
		return prog, p.errs[0]
	}
	return prog, nil
}

// ParseExpr parses a single expression, used to build pattern ASTs for
// capture groups that stand for an expression rather than a whole program
// (internal/checker/pattern's entry point for `_x`-style sub-patterns).
func ParseExpr(src string) (ast.Expression, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks}
	e := p.parseExpression(0)
	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}
	return e, nil
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt token.Type, what string) token.Token {
	if p.cur().Type != tt {
		p.errs = append(p.errs, fmt.Errorf("line %d: expected %s, got %q", p.cur().Line, what, p.cur().Lexeme))
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) skipNewlines() {
	for p.cur().Type == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) parseBlockTopLevel() []ast.Statement {
	var stmts []ast.Statement
	p.skipNewlines()
	for p.cur().Type != token.EOF {
		stmts = append(stmts, p.parseStatement())
		p.skipNewlines()
	}
	return stmts
}

// parseSuite parses `: NEWLINE INDENT stmt+ DEDENT`.
func (p *Parser) parseSuite() []ast.Statement {
	p.expect(token.COLON, "':'")
	p.skipNewlines()
	p.expect(token.INDENT, "indented block")
	var stmts []ast.Statement
	for p.cur().Type != token.DEDENT && p.cur().Type != token.EOF {
		stmts = append(stmts, p.parseStatement())
		p.skipNewlines()
	}
	if p.cur().Type == token.DEDENT {
		p.advance()
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Type {
	case token.PASS:
		t := p.advance()
		return &ast.Pass{Token: t}
	case token.ASSERT:
		t := p.advance()
		return &ast.Assert{Token: t, Value: p.parseExpression(0)}
	case token.RETURN:
		t := p.advance()
		return &ast.Return{Token: t, Value: p.parseExpression(0)}
	case token.IMPORT:
		return p.parseImport()
	case token.IF:
		return p.parseIf()
	case token.DEF:
		return p.parseFunctionDef()
	default:
		return p.parseAssignOrExpr()
	}
}

func (p *Parser) parseImport() ast.Statement {
	t := p.advance() // 'import'
	name := p.expect(token.IDENT, "module name")
	path := name.Lexeme
	alias := path
	if p.cur().Type == token.AS {
		p.advance()
		alias = p.expect(token.IDENT, "alias").Lexeme
	}
	return &ast.Import{Token: t, Path: path, Alias: alias}
}

func (p *Parser) parseIf() ast.Statement {
	t := p.advance() // 'if'
	pred := p.parseExpression(0)
	top := p.parseSuite()
	var bot []ast.Statement
	if p.cur().Type == token.ELSE {
		p.advance()
		bot = p.parseSuite()
	}
	return &ast.If{Token: t, Pred: pred, Top: top, Bot: bot}
}

func (p *Parser) parseFunctionDef() ast.Statement {
	t := p.advance() // 'def'
	name := p.expect(token.IDENT, "function name").Lexeme
	p.expect(token.LPAREN, "'('")
	var params []*ast.Param
	for p.cur().Type != token.RPAREN && p.cur().Type != token.EOF {
		pt := p.cur()
		pname := p.expect(token.IDENT, "parameter name").Lexeme
		p.expect(token.COLON, "':'")
		anno := p.parseExpression(0)
		params = append(params, &ast.Param{Token: pt, Name: pname, Anno: anno})
		if p.cur().Type == token.COMMA {
			p.advance()
		}
	}
	p.expect(token.RPAREN, "')'")
	p.expect(token.ARROW, "'->'")
	ret := p.parseExpression(0)
	body := p.parseSuite()
	return &ast.FunctionDef{Token: t, Name: name, Args: params, ReturnType: ret, Body: body}
}

func (p *Parser) parseAssignOrExpr() ast.Statement {
	t := p.cur()
	if p.cur().Type == token.IDENT && (p.peek(1).Type == token.ASSIGN || p.peek(1).Type == token.COLON) {
		name := p.advance()
		lhs := &ast.Name{Token: name, Value: name.Lexeme}
		var anno ast.Expression
		if p.cur().Type == token.COLON {
			p.advance()
			anno = p.parseExpression(0)
		}
		var rhs ast.Expression
		if p.cur().Type == token.ASSIGN {
			p.advance()
			rhs = p.parseExpression(0)
		}
		return &ast.Assign{Token: t, Lhs: lhs, Anno: anno, Rhs: rhs}
	}
	e := p.parseExpression(0)
	return &ast.ExprStmt{Token: t, Value: e}
}

// Operator precedence, lowest to highest.
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precCompare
	precAdd
	precMul
	precCall
)

func precOf(tt token.Type) int {
	switch tt {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.LT, token.GT, token.LE, token.GE:
		return precCompare
	case token.PLUS:
		return precAdd
	case token.STAR:
		return precMul
	default:
		return precLowest
	}
}

func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parseUnary()
	for {
		op := p.cur().Type
		prec := precOf(op)
		if prec == precLowest || prec < minPrec {
			break
		}
		opTok := p.advance()
		right := p.parseExpression(prec + 1)
		left = &ast.BinOp{Token: opTok, Op: opTok.Lexeme, Left: left, Right: right}
	}
	if p.cur().Type == token.IF {
		// ternary: `left if pred else right`
		t := p.advance()
		pred := p.parseExpression(precOr)
		p.expect(token.ELSE, "'else'")
		right := p.parseExpression(minPrec)
		return &ast.IfExp{Token: t, Left: left, Pred: pred, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.cur().Type == token.NOT {
		t := p.advance()
		return &ast.UnaryNot{Token: t, Value: p.parseExpression(precNot)}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(e ast.Expression) ast.Expression {
	for {
		switch p.cur().Type {
		case token.DOT:
			p.advance()
			field := p.expect(token.IDENT, "attribute name").Lexeme
			base := attributeBase(e)
			e = &ast.Attribute{Token: e.Tok(), Value: base + "." + field}
		case token.LBRACKET:
			t := p.advance()
			sub := p.parseExpression(0)
			p.expect(token.RBRACKET, "']'")
			e = &ast.Index{Token: t, Base: e, Sub: sub}
		case token.LPAREN:
			t := p.advance()
			var args []ast.Expression
			for p.cur().Type != token.RPAREN && p.cur().Type != token.EOF {
				args = append(args, p.parseExpression(0))
				if p.cur().Type == token.COMMA {
					p.advance()
				}
			}
			p.expect(token.RPAREN, "')'")
			e = &ast.Call{Token: t, Fn: e, Args: args}
		default:
			return e
		}
	}
}

func attributeBase(e ast.Expression) string {
	switch v := e.(type) {
	case *ast.Name:
		return v.Value
	case *ast.Attribute:
		return v.Value
	default:
		return ""
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	t := p.cur()
	switch t.Type {
	case token.NUMBER:
		p.advance()
		n := 0
		for _, c := range t.Lexeme {
			n = n*10 + int(c-'0')
		}
		return &ast.Num{Token: t, N: n}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Token: t, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Token: t, Value: false}
	case token.NONE:
		p.advance()
		return &ast.NoneLit{Token: t}
	case token.IDENT:
		p.advance()
		return &ast.Name{Token: t, Value: t.Lexeme}
	case token.LPAREN:
		p.advance()
		e := p.parseExpression(0)
		p.expect(token.RPAREN, "')'")
		return e
	case token.LAMBDA:
		p.advance()
		var args []string
		for p.cur().Type != token.COLON && p.cur().Type != token.EOF {
			args = append(args, p.expect(token.IDENT, "lambda parameter").Lexeme)
			if p.cur().Type == token.COMMA {
				p.advance()
			}
		}
		p.expect(token.COLON, "':'")
		body := p.parseExpression(0)
		return &ast.Lambda{Token: t, Args: args, Body: body}
	default:
		p.errs = append(p.errs, fmt.Errorf("line %d: unexpected token %q", t.Line, t.Lexeme))
		p.advance()
		return &ast.NoneLit{Token: t}
	}
}
