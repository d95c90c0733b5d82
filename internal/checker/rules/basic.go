package rules

import (
	"github.com/johnli0135/numpy-types/internal/ast"
	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/pattern"
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/checker/verifier"
)

// BasicRules builds the default rule set for the core grammar: module and
// statement threading, literals, boolean and arithmetic operators,
// branches, functions, and the handful of statement forms (assert, return,
// print) with their own semantics. Library bundles
// (internal/checker/library) append to this set rather than replacing it.
func BasicRules() []Rule {
	return []Rule{
		{Name: "module", Pattern: pattern.OfKind("Module"), Action: moduleAction},
		{Name: "assign_anno", Pattern: assignMatcher{wantAnno: true}, Action: assignAnnoAction},
		{Name: "assign", Pattern: assignMatcher{wantAnno: false}, Action: assignAction},
		{Name: "skip", Pattern: pattern.OfKind("Pass"), Action: skipAction},
		{Name: "ident", Pattern: pattern.OfKind("Name"), Action: identAction},
		{Name: "attr_ident", Pattern: pattern.OfKind("Attribute"), Action: attrIdentAction},
		{Name: "lit_None", Pattern: pattern.OfKind("NoneLit"), Action: Literal(litNone)},
		{Name: "lit_True", Pattern: boolLitMatcher{value: true}, Action: Literal(litBool)},
		{Name: "lit_False", Pattern: boolLitMatcher{value: false}, Action: Literal(litBool)},
		{Name: "lit_num", Pattern: pattern.OfKind("Num"), Action: Literal(litNum)},
		BinaryOperator("bool_or", "or", boolOperand, orCtor),
		BinaryOperator("bool_and", "and", boolOperand, andCtor),
		{Name: "bool_not", Pattern: pattern.OfKind("UnaryNot"), Action: boolNotAction},
		BinaryOperator("int_add", "+", intOperand, addCtor),
		BinaryOperator("int_mul", "*", intOperand, mulCtor),
		BinaryOperator("int_eq", "==", intOperand, eqCtor),
		BinaryOperator("int_lt", "<", intOperand, ltCtor),
		BinaryOperator("int_gt", ">", intOperand, gtCtor),
		BinaryOperator("int_le", "<=", intOperand, leCtor),
		BinaryOperator("int_ge", ">=", intOperand, geCtor),
		{Name: "cond", Pattern: pattern.OfKind("If"), Action: condAction},
		{Name: "cond_expr", Pattern: pattern.OfKind("IfExp"), Action: condExprAction},
		{Name: "fun_def", Pattern: pattern.OfKind("FunctionDef"), Action: funDefAction},
		{Name: "fun_call", Pattern: pattern.OfKind("Call"), Action: funCallAction},
		{Name: "lambda_expr", Pattern: pattern.OfKind("Lambda"), Action: lambdaAction},
		{Name: "assert", Pattern: pattern.OfKind("Assert"), Action: assertAction},
		{Name: "return", Pattern: pattern.OfKind("Return"), Action: returnAction},
		{Name: "print", Pattern: callNameMatcher{name: "print"}, Action: printAction},
		{Name: "expr_stmt", Pattern: pattern.OfKind("ExprStmt"), Action: exprStmtAction},
	}
}

func moduleAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	p := node.(*ast.Program)
	return AnalyzeBody(ck, []*context.Context{ctx}, p.Body)
}

type boolLitMatcher struct{ value bool }

func (m boolLitMatcher) Matches(n ast.Node) (pattern.Captures, bool) {
	b, ok := n.(*ast.BoolLit)
	if !ok || b.Value != m.value {
		return nil, false
	}
	return pattern.Captures{}, true
}

func litNone(ast.Node) (types.Type, error) { return types.TNone{}, nil }

func litBool(node ast.Node) (types.Type, error) {
	return types.BLit{Value: node.(*ast.BoolLit).Value}, nil
}

func litNum(node ast.Node) (types.Type, error) {
	return types.ALit{N: node.(*ast.Num).N}, nil
}

func asBExp(t types.Type) (types.BExp, error) {
	b, ok := t.(types.BExp)
	if !ok {
		return nil, &ValueError{Msg: "expected a boolean-valued expression, got " + t.String()}
	}
	return b, nil
}

func orCtor(l, r types.Type) types.Type  { return types.Or{L: l.(types.BExp), R: r.(types.BExp)} }
func andCtor(l, r types.Type) types.Type { return types.And{L: l.(types.BExp), R: r.(types.BExp)} }
func addCtor(l, r types.Type) types.Type { return types.Add{L: l.(types.AExp), R: r.(types.AExp)} }
func mulCtor(l, r types.Type) types.Type { return types.Mul{L: l.(types.AExp), R: r.(types.AExp)} }
func eqCtor(l, r types.Type) types.Type  { return types.Eq{L: l.(types.AExp), R: r.(types.AExp)} }
func ltCtor(l, r types.Type) types.Type  { return types.Lt{L: l.(types.AExp), R: r.(types.AExp)} }
func gtCtor(l, r types.Type) types.Type  { return types.Gt{L: l.(types.AExp), R: r.(types.AExp)} }
func leCtor(l, r types.Type) types.Type  { return types.Le{L: l.(types.AExp), R: r.(types.AExp)} }
func geCtor(l, r types.Type) types.Type  { return types.Ge{L: l.(types.AExp), R: r.(types.AExp)} }

// boolNotAction types `not e` the same way BinaryOperator types its
// operands: the operand unifies against a fresh boolean variable, so a
// still-unresolved operand is constrained rather than rejected.
func boolNotAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	u := node.(*ast.UnaryNot)
	outs, err := Analyze(ck, []*context.Context{ctx}, u.Value)
	if err != nil {
		return nil, err
	}
	var out []Outcome
	for _, o := range outs {
		v := types.BEVar{Name: ck.IDs.Next()}
		if err := o.Ctx.Unify(v, o.Ctx.Under(o.Result)); err != nil {
			return nil, err
		}
		out = append(out, Outcome{Ctx: o.Ctx, Result: types.Not{X: v}})
	}
	return out, nil
}

func skipAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	return []Outcome{{Ctx: ctx, Result: types.TNone{}}}, nil
}

// lookup resolves a bound name. Only function bindings are schemes: those
// are instantiated per lookup (prenex polymorphism). Instantiating anything
// else would sever the link between a parameter and the shape annotations
// that mention it by name.
func lookup(ctx *context.Context, name string) (types.Type, error) {
	t, err := ctx.Typeof(name)
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Under(t).(types.TFun); ok {
		t = ctx.Instantiate(t)
	}
	return t, nil
}

func identAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	t, err := lookup(ctx, node.(*ast.Name).Value)
	if err != nil {
		return nil, err
	}
	return []Outcome{{Ctx: ctx, Result: t}}, nil
}

func attrIdentAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	t, err := lookup(ctx, node.(*ast.Attribute).Value)
	if err != nil {
		return nil, err
	}
	return []Outcome{{Ctx: ctx, Result: t}}, nil
}

func assignAnnoAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	a := node.(*ast.Assign)
	declared, err := types.FromAST(a.Anno)
	if err != nil {
		return nil, err
	}
	if a.Rhs == nil {
		newCtx := ctx.Copy()
		newCtx.Annotate(a.Lhs.Value, declared, false)
		return []Outcome{{Ctx: newCtx, Result: types.TNone{}}}, nil
	}
	rhsOuts, err := Analyze(ck, []*context.Context{ctx}, a.Rhs)
	if err != nil {
		return nil, err
	}
	var out []Outcome
	for _, ro := range rhsOuts {
		inferred := ro.Ctx.Under(ro.Result)
		if err := ro.Ctx.Unify(declared, inferred); err != nil {
			return nil, err
		}
		ro.Ctx.Annotate(a.Lhs.Value, ro.Ctx.Under(declared), false)
		out = append(out, Outcome{Ctx: ro.Ctx, Result: types.TNone{}})
	}
	return out, nil
}

// assignAction implements plain `lhs = rhs`. Rebinding an already-typed
// name with a new value of the *same* index algebra (both arithmetic, or
// both boolean) intentionally skips unification, since `n = n + 1` must
// not force the old and new value equal; anything else unifies the old and
// new type before the rebind, so reassigning a structural type (array,
// tuple, function) still catches a genuine type change. A function-valued
// RHS (e.g. a lambda) is flipped to a scheme before storage, so the
// unification variables it leaked while checking its body become
// generalizable type parameters instead of a fixed monomorphic type shared
// by every use of the name.
func assignAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	a := node.(*ast.Assign)
	rhsOuts, err := Analyze(ck, []*context.Context{ctx}, a.Rhs)
	if err != nil {
		return nil, err
	}
	var out []Outcome
	for _, ro := range rhsOuts {
		newT := ro.Ctx.Under(ro.Result)
		if old, err := ro.Ctx.Typeof(a.Lhs.Value); err == nil {
			oldT := ro.Ctx.Under(old)
			_, oldA := oldT.(types.AExp)
			_, newA := newT.(types.AExp)
			_, oldB := oldT.(types.BExp)
			_, newB := newT.(types.BExp)
			sameKindIndex := (oldA && newA) || (oldB && newB)
			if !sameKindIndex {
				if err := ro.Ctx.Unify(oldT, newT); err != nil {
					return nil, err
				}
			}
		}
		if _, isFun := newT.(types.TFun); isFun {
			newT = types.Flipped(ro.Ctx.Fixed(), newT)
		}
		ro.Ctx.Annotate(a.Lhs.Value, newT, false)
		out = append(out, Outcome{Ctx: ro.Ctx, Result: types.TNone{}})
	}
	return out, nil
}

// analyzeBranch analyzes a branch predicate and returns, per predicate
// outcome, the pair of contexts refined with the predicate as an
// assumption and with its negation. Statement ifs and ternary expressions
// both go through it; they differ only in what they analyze under the two
// refined contexts.
func analyzeBranch(ck *Checker, ctx *context.Context, pred ast.Expression) ([][2]*context.Context, error) {
	predOuts, err := Analyze(ck, []*context.Context{ctx}, pred)
	if err != nil {
		return nil, err
	}
	var out [][2]*context.Context
	for _, po := range predOuts {
		pb, err := asBExp(po.Ctx.Under(po.Result))
		if err != nil {
			return nil, err
		}
		topCtx := po.Ctx.Copy()
		topCtx.Assume(pb)
		botCtx := po.Ctx.Copy()
		botCtx.Assume(types.Not{X: pb})
		out = append(out, [2]*context.Context{topCtx, botCtx})
	}
	return out, nil
}

// condAction implements the `if`/`else` statement: both branches are
// analyzed under a Γ refined with the predicate (or its negation) as an
// assumption, and their outcome lists are concatenated. An `if` doesn't
// pick a branch, it fans out into both.
func condAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	i := node.(*ast.If)
	branches, err := analyzeBranch(ck, ctx, i.Pred)
	if err != nil {
		return nil, err
	}
	var out []Outcome
	for _, br := range branches {
		topOuts, err := AnalyzeBody(ck, []*context.Context{br[0]}, i.Top)
		if err != nil {
			return nil, err
		}
		botOuts, err := AnalyzeBody(ck, []*context.Context{br[1]}, i.Bot)
		if err != nil {
			return nil, err
		}
		out = append(out, topOuts...)
		out = append(out, botOuts...)
	}
	return out, nil
}

// condExprAction implements the ternary `l if p else r`: the
// expression-valued twin of condAction, fanning out over both arms.
func condExprAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	ie := node.(*ast.IfExp)
	branches, err := analyzeBranch(ck, ctx, ie.Pred)
	if err != nil {
		return nil, err
	}
	var out []Outcome
	for _, br := range branches {
		leftOuts, err := Analyze(ck, []*context.Context{br[0]}, ie.Left)
		if err != nil {
			return nil, err
		}
		rightOuts, err := Analyze(ck, []*context.Context{br[1]}, ie.Right)
		if err != nil {
			return nil, err
		}
		out = append(out, leftOuts...)
		out = append(out, rightOuts...)
	}
	return out, nil
}

// funDefAction implements `def f(args) -> ret: body`: the body is checked
// against a Γ where every parameter is bound and fixed (the verifier
// universally quantifies fixed names), the declared return type threads
// through `return` statements via Checker.ReturnType, and the function's
// own binding in the *outer* Γ is a generalized scheme: fresh, then
// flipped, so unification variables the body happened to leak become
// properly universally/existentially quantified type parameters rather
// than leaking this call's internal plumbing into every call site.
func funDefAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	f := node.(*ast.FunctionDef)
	fnCtx := ctx.Copy()
	paramTypes := make([]types.Type, len(f.Args))
	for i, p := range f.Args {
		name, t, err := types.FromParam(p)
		if err != nil {
			return nil, err
		}
		fnCtx.Annotate(name, t, true)
		paramTypes[i] = t
	}

	var retType types.Type = types.TNone{}
	if f.ReturnType != nil {
		rt, err := types.FromAST(f.ReturnType)
		if err != nil {
			return nil, err
		}
		retType = rt
	}

	// The domain is the tuple of parameter types, collapsed to the bare
	// type when there is exactly one parameter. The nested binding of f is
	// this function type over the parameters' own names. Identifier lookup
	// instantiates every function binding, so a recursive call inside the
	// body sees a fresh instance of this signature: its names are renamed,
	// not shared with the enclosing parameters.
	var paramType types.Type = types.TTuple{Elems: paramTypes}
	if len(paramTypes) == 1 {
		paramType = paramTypes[0]
	}
	monoType := types.TFun{A: paramType, B: retType}
	fnCtx.Annotate(f.Name, monoType, true)

	prevReturn := ck.ReturnType
	ck.ReturnType = retType
	bodyOuts, err := AnalyzeBody(ck, []*context.Context{fnCtx}, f.Body)
	ck.ReturnType = prevReturn
	if err != nil {
		return nil, err
	}

	// Verify the body's contexts now: a def is checked at its definition,
	// whether or not the program ever calls it.
	bodyCtxs := make([]*context.Context, 0, len(bodyOuts))
	for _, o := range bodyOuts {
		bodyCtxs = append(bodyCtxs, o.Ctx)
	}
	if err := verifier.Verify(bodyCtxs, ck.Oracle); err != nil {
		return nil, err
	}

	fixedNames := fnCtx.Fixed()
	resolved := fnCtx.Under(monoType)
	freshened := fnCtx.Fresh(resolved)
	generalized := types.Flipped(fixedNames, freshened)

	newCtx := ctx.Copy()
	newCtx.Annotate(f.Name, generalized, false)
	return []Outcome{{Ctx: newCtx, Result: types.TNone{}}}, nil
}

// argsOutcome pairs one threading of a call's arguments with the types
// inferred along it.
type argsOutcome struct {
	Ctx   *context.Context
	Types []types.Type
}

// analyzeEach threads a Γ through exprs left to right, fanning out over
// every outcome each expression produces.
func analyzeEach(ck *Checker, ctx *context.Context, exprs []ast.Expression) ([]argsOutcome, error) {
	outs := []argsOutcome{{Ctx: ctx}}
	for _, e := range exprs {
		var next []argsOutcome
		for _, cur := range outs {
			eOuts, err := Analyze(ck, []*context.Context{cur.Ctx}, e)
			if err != nil {
				return nil, err
			}
			for _, eo := range eOuts {
				ts := append(append([]types.Type{}, cur.Types...), eo.Ctx.Under(eo.Result))
				next = append(next, argsOutcome{Ctx: eo.Ctx, Types: ts})
			}
		}
		outs = next
	}
	return outs, nil
}

// funCallAction implements `f(args)`: infer the callee and every argument,
// allocate a fresh Fun(?a, ?b), unify it with the callee's type, then
// unify the full argument tuple against ?a in one shot; the call's type is
// ?b. The one-shot tuple unification is what makes an arity mismatch a
// type error: a partial application has nothing to fall back to. A
// callee whose type is still an unresolved variable (a lambda parameter
// like the f in `lambda f, g: lambda x: f(g(x))`) is constrained to the
// minted function shape by the same unification.
func funCallAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	c := node.(*ast.Call)
	fnOuts, err := Analyze(ck, []*context.Context{ctx}, c.Fn)
	if err != nil {
		return nil, err
	}
	var out []Outcome
	for _, fo := range fnOuts {
		argOuts, err := analyzeEach(ck, fo.Ctx, c.Args)
		if err != nil {
			return nil, err
		}
		for _, ao := range argOuts {
			a := types.TEVar{Name: ck.IDs.Next()}
			b := types.TEVar{Name: ck.IDs.Next()}
			if err := ao.Ctx.Unify(types.TFun{A: a, B: b}, ao.Ctx.Under(fo.Result)); err != nil {
				return nil, err
			}
			if err := ao.Ctx.Unify(types.TTuple{Elems: ao.Types}, a); err != nil {
				return nil, err
			}
			out = append(out, Outcome{Ctx: ao.Ctx, Result: b})
		}
	}
	return out, nil
}

// lambdaAction implements `lambda args: body`: each argument gets a fresh,
// un-generalized unification variable (lambdas are not let-bound, so their
// type stays monomorphic within the enclosing expression, constrained only
// by how they're actually used/called), and the resulting type is
// Fun(Tuple(arg_types), body): the same tuple-of-arguments domain a call
// site unifies against.
func lambdaAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	l := node.(*ast.Lambda)
	lamCtx := ctx.Copy()
	argTypes := make([]types.Type, len(l.Args))
	for i, name := range l.Args {
		tv := types.TEVar{Name: ck.IDs.Next()}
		lamCtx.Annotate(name, tv, false)
		argTypes[i] = tv
	}
	bodyOuts, err := Analyze(ck, []*context.Context{lamCtx}, l.Body)
	if err != nil {
		return nil, err
	}
	var out []Outcome
	for _, bo := range bodyOuts {
		elems := make([]types.Type, len(argTypes))
		for i, at := range argTypes {
			elems[i] = bo.Ctx.Under(at)
		}
		fn := types.TFun{A: types.TTuple{Elems: elems}, B: bo.Ctx.Under(bo.Result)}
		out = append(out, Outcome{Ctx: bo.Ctx, Result: fn})
	}
	return out, nil
}

func assertAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	a := node.(*ast.Assert)
	outs, err := Analyze(ck, []*context.Context{ctx}, a.Value)
	if err != nil {
		return nil, err
	}
	var out []Outcome
	for _, o := range outs {
		b, err := asBExp(o.Ctx.Under(o.Result))
		if err != nil {
			return nil, err
		}
		o.Ctx.Assume(b)
		out = append(out, Outcome{Ctx: o.Ctx, Result: types.TNone{}})
	}
	return out, nil
}

func returnAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	r := node.(*ast.Return)
	var outs []Outcome
	var err error
	if r.Value == nil {
		outs = []Outcome{{Ctx: ctx, Result: types.TNone{}}}
	} else {
		outs, err = Analyze(ck, []*context.Context{ctx}, r.Value)
		if err != nil {
			return nil, err
		}
	}
	want := ck.ReturnType
	if want == nil {
		want = types.TNone{}
	}
	var out []Outcome
	for _, o := range outs {
		if err := o.Ctx.Unify(want, o.Ctx.Under(o.Result)); err != nil {
			return nil, err
		}
		out = append(out, Outcome{Ctx: o.Ctx, Result: types.TNone{}})
	}
	return out, nil
}

// printAction type-checks print's arguments (whatever they are) purely for
// their side effect of catching unbound names or ill-typed expressions,
// then discards them: a print statement is always well-typed as TNone once
// its arguments are.
func printAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	c := node.(*ast.ExprStmt).Value.(*ast.Call)
	argOuts, err := analyzeEach(ck, ctx, c.Args)
	if err != nil {
		return nil, err
	}
	out := make([]Outcome, 0, len(argOuts))
	for _, ao := range argOuts {
		out = append(out, Outcome{Ctx: ao.Ctx, Result: types.TNone{}})
	}
	return out, nil
}

// exprStmtAction is the fallback for any other expression used as a
// statement (e.g. a library call made for its side effects): type-check it
// and discard the result.
func exprStmtAction(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error) {
	e := node.(*ast.ExprStmt)
	outs, err := Analyze(ck, []*context.Context{ctx}, e.Value)
	if err != nil {
		return nil, err
	}
	out := make([]Outcome, 0, len(outs))
	for _, o := range outs {
		out = append(out, Outcome{Ctx: o.Ctx, Result: types.TNone{}})
	}
	return out, nil
}
