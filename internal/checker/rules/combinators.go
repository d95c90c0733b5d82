package rules

import (
	"github.com/johnli0135/numpy-types/internal/ast"
	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/pattern"
	"github.com/johnli0135/numpy-types/internal/checker/types"
)

// kindOpMatcher matches a *ast.BinOp of a specific operator spelling. The
// same Kind() ("BinOp") covers `or`, `and`, `+`, `*`, and every comparison,
// so a bare pattern.OfKind isn't discriminating enough on its own.
type kindOpMatcher struct{ op string }

func opMatcher(op string) pattern.Matcher { return kindOpMatcher{op: op} }

func (m kindOpMatcher) Matches(n ast.Node) (pattern.Captures, bool) {
	b, ok := n.(*ast.BinOp)
	if !ok || b.Op != m.op {
		return nil, false
	}
	return pattern.Captures{}, true
}

// callNameMatcher matches an ExprStmt wrapping a call to a bare-named
// function, e.g. `print(x)` used as a statement.
type callNameMatcher struct{ name string }

func (m callNameMatcher) Matches(n ast.Node) (pattern.Captures, bool) {
	es, ok := n.(*ast.ExprStmt)
	if !ok {
		return nil, false
	}
	c, ok := es.Value.(*ast.Call)
	if !ok {
		return nil, false
	}
	fn, ok := c.Fn.(*ast.Name)
	if !ok || fn.Value != m.name {
		return nil, false
	}
	return pattern.Captures{}, true
}

// assignMatcher distinguishes `lhs: Anno [= rhs]` from plain `lhs = rhs`,
// since both parse to *ast.Assign and need different actions.
type assignMatcher struct{ wantAnno bool }

func (m assignMatcher) Matches(n ast.Node) (pattern.Captures, bool) {
	a, ok := n.(*ast.Assign)
	if !ok || (a.Anno != nil) != m.wantAnno {
		return nil, false
	}
	return pattern.Captures{}, true
}

// BinaryOperator builds the rule for one binary operator: analyze Left,
// then analyze Right under every resulting Γ, unify each operand against a
// fresh index variable of the operator's algebra (minted by mintVar), and
// return ctor applied to those fresh variables. An operand whose type is
// still an unresolved variable is thereby constrained to the algebra
// rather than rejected. Every combination across every left/right outcome
// is kept: a binary operator's result set is the full cross product, not
// just the first success.
func BinaryOperator(name, op string, mintVar func(id string) types.Type, ctor func(l, r types.Type) types.Type) Rule {
	action := func(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
		b := node.(*ast.BinOp)
		leftOuts, err := Analyze(ck, []*context.Context{ctx}, b.Left)
		if err != nil {
			return nil, err
		}
		var out []Outcome
		for _, lo := range leftOuts {
			rightOuts, err := Analyze(ck, []*context.Context{lo.Ctx}, b.Right)
			if err != nil {
				return nil, err
			}
			for _, ro := range rightOuts {
				lv := mintVar(ck.IDs.Next())
				rv := mintVar(ck.IDs.Next())
				if err := ro.Ctx.Unify(lv, ro.Ctx.Under(lo.Result)); err != nil {
					return nil, err
				}
				if err := ro.Ctx.Unify(rv, ro.Ctx.Under(ro.Result)); err != nil {
					return nil, err
				}
				out = append(out, Outcome{Ctx: ro.Ctx, Result: ctor(lv, rv)})
			}
		}
		return out, nil
	}
	return Rule{Name: name, Pattern: opMatcher(op), Action: action}
}

func intOperand(id string) types.Type  { return types.AEVar{Name: id} }
func boolOperand(id string) types.Type { return types.BEVar{Name: id} }

// Literal builds an Action for a pure literal node whose type depends only
// on the node itself: None/True/False/integers infer as the index-term
// singleton types directly.
func Literal(f func(node ast.Node) (types.Type, error)) Action {
	return func(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
		t, err := f(node)
		if err != nil {
			return nil, err
		}
		return []Outcome{{Ctx: ctx, Result: t}}, nil
	}
}
