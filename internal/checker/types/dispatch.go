package types

import (
	"fmt"

	"github.com/johnli0135/numpy-types/internal/ast"
)

// FromAST converts a parsed annotation expression (`bool`, `int`,
// `array[n+1]`) into a Type. It serves assignment annotations and function
// return types; parameter annotations go through FromParam instead.
func FromAST(e ast.Expression) (Type, error) {
	switch n := e.(type) {
	case *ast.Name:
		switch n.Value {
		case "bool":
			return TBool{}, nil
		case "int":
			return TInt{}, nil
		default:
			return nil, fmt.Errorf("unknown type annotation %q", n.Value)
		}
	case *ast.Index:
		base, ok := n.Base.(*ast.Name)
		if !ok || base.Value != "array" {
			return nil, fmt.Errorf("unsupported type annotation %s[...]", describe(n.Base))
		}
		shape, err := ExprToAExp(n.Sub)
		if err != nil {
			return nil, err
		}
		return TArray{N: shape}, nil
	default:
		return nil, fmt.Errorf("unsupported type annotation syntax")
	}
}

func describe(e ast.Expression) string {
	if e == nil {
		return "<nil>"
	}
	return e.Kind()
}

// ExprToAExp converts a parsed arithmetic-shaped expression (identifiers,
// integer literals, `+`, `*`) into an AExp index term; FromAST uses it for
// the shape inside `array[a+1]`-style annotations.
func ExprToAExp(e ast.Expression) (AExp, error) {
	switch n := e.(type) {
	case *ast.Name:
		return AVar{Name: n.Value}, nil
	case *ast.Num:
		return ALit{N: n.N}, nil
	case *ast.BinOp:
		l, err := ExprToAExp(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := ExprToAExp(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "+":
			return Add{L: l, R: r}, nil
		case "*":
			return Mul{L: l, R: r}, nil
		default:
			return nil, fmt.Errorf("operator %q is not valid in an index expression", n.Op)
		}
	default:
		return nil, fmt.Errorf("expression of kind %s is not a valid index term", describe(e))
	}
}

// FromParam converts a function parameter's name and annotation into a
// (name, Type) pair.
//
// A bare `bool`/`int` annotation on a parameter binds the parameter's own
// index variable: `def f(a: int, b: array[a])` needs `a`'s type itself to
// be `AVar("a")` so the shape reference `array[a]` in a sibling parameter
// resolves to the very same variable by name. FromAST's generic handling of
// `bool`/`int` (used for assign/return-type annotations, where no variable
// name is available to bind) instead produces the opaque Bool/Int marker.
func FromParam(p *ast.Param) (string, Type, error) {
	if name, ok := p.Anno.(*ast.Name); ok {
		switch name.Value {
		case "bool":
			return p.Name, BVar{Name: p.Name}, nil
		case "int":
			return p.Name, AVar{Name: p.Name}, nil
		}
	}
	t, err := FromAST(p.Anno)
	if err != nil {
		return "", nil, err
	}
	return p.Name, t, nil
}
