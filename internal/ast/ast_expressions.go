package ast

import "github.com/johnli0135/numpy-types/internal/token"

// Name is a bare identifier reference, e.g. `a`.
type Name struct {
	Token token.Token
	Value string
}

func (n *Name) Tok() token.Token { return n.Token }
func (n *Name) Kind() string     { return "Name" }
func (n *Name) expressionNode()  {}

// Attribute is `obj.field`, e.g. `np.zeros`.
type Attribute struct {
	Token token.Token
	Value string // dotted name rendered as a single string, e.g. "np.zeros"
}

func (a *Attribute) Tok() token.Token { return a.Token }
func (a *Attribute) Kind() string     { return "Attribute" }
func (a *Attribute) expressionNode()  {}

// Num is an integer literal.
type Num struct {
	Token token.Token
	N     int
}

func (n *Num) Tok() token.Token { return n.Token }
func (n *Num) Kind() string     { return "Num" }
func (n *Num) expressionNode()  {}

// BoolLit is `True` or `False`.
type BoolLit struct {
	Token token.Token
	Value bool
}

func (b *BoolLit) Tok() token.Token { return b.Token }
func (b *BoolLit) Kind() string     { return "BoolLit" }
func (b *BoolLit) expressionNode()  {}

// NoneLit is the `None` literal.
type NoneLit struct {
	Token token.Token
}

func (n *NoneLit) Tok() token.Token { return n.Token }
func (n *NoneLit) Kind() string     { return "NoneLit" }
func (n *NoneLit) expressionNode()  {}

// BinOp is any binary operator expression: `a op b` for
// op in {or, and, +, *, ==, <, >, <=, >=}.
type BinOp struct {
	Token token.Token
	Op    string
	Left  Expression
	Right Expression
}

func (b *BinOp) Tok() token.Token { return b.Token }
func (b *BinOp) Kind() string     { return "BinOp" }
func (b *BinOp) expressionNode()  {}

// UnaryNot is `not e`.
type UnaryNot struct {
	Token token.Token
	Value Expression
}

func (u *UnaryNot) Tok() token.Token { return u.Token }
func (u *UnaryNot) Kind() string     { return "UnaryNot" }
func (u *UnaryNot) expressionNode()  {}

// IfExp is the ternary `l if p else r`.
type IfExp struct {
	Token token.Token
	Left  Expression
	Pred  Expression
	Right Expression
}

func (i *IfExp) Tok() token.Token { return i.Token }
func (i *IfExp) Kind() string     { return "IfExp" }
func (i *IfExp) expressionNode()  {}

// Index is `base[sub]`, used only in type annotations (e.g. `array[a+1]`).
type Index struct {
	Token token.Token
	Base  Expression
	Sub   Expression
}

func (i *Index) Tok() token.Token { return i.Token }
func (i *Index) Kind() string     { return "Index" }
func (i *Index) expressionNode()  {}

// Call is `f(args...)`.
type Call struct {
	Token token.Token
	Fn    Expression
	Args  []Expression
}

func (c *Call) Tok() token.Token { return c.Token }
func (c *Call) Kind() string     { return "Call" }
func (c *Call) expressionNode()  {}

// Lambda is `lambda args: body`.
type Lambda struct {
	Token token.Token
	Args  []string
	Body  Expression
}

func (l *Lambda) Tok() token.Token { return l.Token }
func (l *Lambda) Kind() string     { return "Lambda" }
func (l *Lambda) expressionNode()  {}
