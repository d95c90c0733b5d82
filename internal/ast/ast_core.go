// Package ast defines the syntax tree accepted by the checker. The checker
// itself only depends on Node/Kind dispatch, so any front end producing
// these nodes can feed it; internal/parser is the one this repo ships.
package ast

import "github.com/johnli0135/numpy-types/internal/token"

// Node is the base interface for every AST node. Kind returns the
// node-kind name used by the pattern matcher's `x__Kind` capture
// convention (internal/checker/pattern).
type Node interface {
	Tok() token.Token
	Kind() string
}

// Expression is a Node that yields a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a Node that has only an effect on the Context.
type Statement interface {
	Node
	statementNode()
}

// Program is the root of every parsed source file: a flat list of
// statements (module body).
type Program struct {
	Body []Statement
}

func (p *Program) Tok() token.Token { return token.Token{} }
func (p *Program) Kind() string     { return "Module" }

// Pass is the no-op statement.
type Pass struct {
	Token token.Token
}

func (p *Pass) Tok() token.Token { return p.Token }
func (p *Pass) Kind() string     { return "Pass" }
func (p *Pass) statementNode()   {}

// Assign is `lhs = rhs`, optionally with a type annotation
// (`lhs: Anno = rhs`) or annotation-only (`lhs: Anno`, Rhs == nil).
type Assign struct {
	Token token.Token
	Lhs   *Name
	Anno  Expression // nil if unannotated
	Rhs   Expression // nil for annotation-only declarations
}

func (a *Assign) Tok() token.Token { return a.Token }
func (a *Assign) Kind() string     { return "Assign" }
func (a *Assign) statementNode()   {}

// If is the `if p: top else: bot` statement.
type If struct {
	Token token.Token
	Pred  Expression
	Top   []Statement
	Bot   []Statement
}

func (i *If) Tok() token.Token { return i.Token }
func (i *If) Kind() string     { return "If" }
func (i *If) statementNode()   {}

// Return is `return e`.
type Return struct {
	Token token.Token
	Value Expression
}

func (r *Return) Tok() token.Token { return r.Token }
func (r *Return) Kind() string     { return "Return" }
func (r *Return) statementNode()   {}

// Assert is `assert e`.
type Assert struct {
	Token token.Token
	Value Expression
}

func (a *Assert) Tok() token.Token { return a.Token }
func (a *Assert) Kind() string     { return "Assert" }
func (a *Assert) statementNode()   {}

// FunctionDef is `def f(args) -> ret: body`.
type FunctionDef struct {
	Token      token.Token
	Name       string
	Args       []*Param
	ReturnType Expression
	Body       []Statement
}

func (f *FunctionDef) Tok() token.Token { return f.Token }
func (f *FunctionDef) Kind() string     { return "FunctionDef" }
func (f *FunctionDef) statementNode()   {}

// Param is one `name: Type` function argument.
type Param struct {
	Token token.Token
	Name  string
	Anno  Expression
}

func (p *Param) Tok() token.Token { return p.Token }
func (p *Param) Kind() string     { return "Param" }

// Import is `import numpy as np`.
type Import struct {
	Token token.Token
	Path  string
	Alias string
}

func (im *Import) Tok() token.Token { return im.Token }
func (im *Import) Kind() string     { return "Import" }
func (im *Import) statementNode()   {}

// ExprStmt wraps an expression evaluated for effect (e.g. `print(x)`).
type ExprStmt struct {
	Token token.Token
	Value Expression
}

func (e *ExprStmt) Tok() token.Token { return e.Token }
func (e *ExprStmt) Kind() string     { return "ExprStmt" }
func (e *ExprStmt) statementNode()   {}
