package subst

import (
	"fmt"
	"sort"

	"github.com/johnli0135/numpy-types/internal/checker/types"
)

// Unify walks t1 and t2 and either records their equivalence in sigma or
// returns a *types.UnificationError explaining why they can't be made
// equal. Variable positions (TEVar/TUVar/AEVar/BEVar) are
// resolved against sigma first, then unioned rather than compared
// structurally. Arithmetic and boolean index terms that aren't themselves
// variables are unified "as index expressions": they are never decomposed
// (there is no structural equality for `a+1` vs `b`), they are simply
// unioned, leaving the real equality as a residual constraint for the SMT
// oracle to settle.
func Unify(sigma *Substitution, t1, t2 types.Type) error {
	t1 = sigma.Find(t1)
	t2 = sigma.Find(t2)
	if t1.String() == t2.String() {
		return nil
	}

	v1, v2 := isVar(t1), isVar(t2)
	if v1 || v2 {
		k1, k2 := varKind(t1), varKind(t2)
		// A general-type variable ("t") can stand for anything; an
		// arithmetic or boolean index variable only for terms of its own
		// algebra.
		if v1 && v2 {
			if k1 != k2 && k1 != "t" && k2 != "t" {
				return types.NewUnificationError(fmt.Sprintf("variable kind mismatch: %s vs %s", k1, k2), t1, t2)
			}
			sigma.Union(t1, t2)
			return nil
		}
		if v1 && k1 != "t" && k1 != kindOf(t2) {
			return types.NewUnificationError(fmt.Sprintf("variable %s cannot stand for a %s", headName(t1), kindOf(t2)), t1, t2)
		}
		if v2 && k2 != "t" && k2 != kindOf(t1) {
			return types.NewUnificationError(fmt.Sprintf("variable %s cannot stand for a %s", headName(t2), kindOf(t1)), t1, t2)
		}
		sigma.Union(t1, t2)
		return nil
	}

	if handled, err := unifyOpaque(t1, t2); handled {
		return err
	}

	switch a := t1.(type) {
	case types.TNone:
		if _, ok := t2.(types.TNone); ok {
			return nil
		}
	case types.TArray:
		if b, ok := t2.(types.TArray); ok {
			return unifyIndex(sigma, a.N, b.N)
		}
	case types.TTuple:
		if b, ok := t2.(types.TTuple); ok {
			if len(a.Elems) != len(b.Elems) {
				return types.NewUnificationError(fmt.Sprintf("tuple arity mismatch: %d vs %d", len(a.Elems), len(b.Elems)), t1, t2)
			}
			for i := range a.Elems {
				if err := Unify(sigma, a.Elems[i], b.Elems[i]); err != nil {
					return err
				}
			}
			return nil
		}
	case types.TFun:
		if b, ok := t2.(types.TFun); ok {
			if err := Unify(sigma, a.A, b.A); err != nil {
				return err
			}
			return Unify(sigma, a.B, b.B)
		}
	default:
		if kindOf(t1) != "t" && kindOf(t1) == kindOf(t2) {
			return unifyIndex(sigma, t1, t2)
		}
	}
	return types.NewUnificationError(fmt.Sprintf("head constructor mismatch: %s vs %s", headName(t1), headName(t2)), t1, t2)
}

// unifyOpaque handles the opaque `Bool`/`Int` annotation types: declaring a
// value `bool`/`int` forgets any precise index-term refinement it carries,
// so it unifies trivially with any term of the matching algebra (and with
// itself), but never across kinds or with TNone/TArray/TTuple/TFun. handled
// is false when neither side is TBool/TInt, meaning the caller should fall
// through to the structural switch.
func unifyOpaque(t1, t2 types.Type) (handled bool, err error) {
	_, t1Bool := t1.(types.TBool)
	_, t2Bool := t2.(types.TBool)
	_, t1Int := t1.(types.TInt)
	_, t2Int := t2.(types.TInt)
	if !t1Bool && !t2Bool && !t1Int && !t2Int {
		return false, nil
	}
	switch {
	case t1Bool && t2Bool:
		return true, nil
	case t1Int && t2Int:
		return true, nil
	case t1Bool && kindOf(t2) == "b":
		return true, nil
	case t2Bool && kindOf(t1) == "b":
		return true, nil
	case t1Int && kindOf(t2) == "a":
		return true, nil
	case t2Int && kindOf(t1) == "a":
		return true, nil
	default:
		return true, types.NewUnificationError(fmt.Sprintf("head constructor mismatch: %s vs %s", headName(t1), headName(t2)), t1, t2)
	}
}

// unifyIndex unions two non-variable index terms of the same algebra
// (arithmetic or boolean), recording the fact that they denote the same
// value without attempting to decompose them structurally.
func unifyIndex(sigma *Substitution, a, b types.Type) error {
	if kindOf(a) != kindOf(b) {
		return types.NewUnificationError("arithmetic/boolean index kind mismatch", a, b)
	}
	sigma.Union(a, b)
	return nil
}

func isVar(t types.Type) bool {
	switch t.(type) {
	case types.TEVar, types.TUVar, types.AEVar, types.BEVar:
		return true
	}
	return false
}

// varKind reports which algebra a variable belongs to: "a" for
// arithmetic-index variables, "b" for boolean-index variables, "t" for
// general type variables.
func varKind(t types.Type) string {
	switch t.(type) {
	case types.AEVar:
		return "a"
	case types.BEVar:
		return "b"
	default:
		return "t"
	}
}

// kindOf classifies any Type the same way varKind classifies variables, so
// a variable and a concrete term can be checked for compatibility. The
// opaque annotation types classify with the algebra they erase, so an
// index variable can stand for a value declared plain `int` or `bool`.
func kindOf(t types.Type) string {
	switch t.(type) {
	case types.TInt:
		return "a"
	case types.TBool:
		return "b"
	case types.AExp:
		return "a"
	case types.BExp:
		return "b"
	default:
		return "t"
	}
}

func headName(t types.Type) string {
	switch t.(type) {
	case types.TNone:
		return "None"
	case types.TBool:
		return "bool"
	case types.TInt:
		return "int"
	case types.TArray:
		return "array"
	case types.TTuple:
		return "tuple"
	case types.TFun:
		return "function"
	default:
		return t.String()
	}
}

// Under deep-substitutes every variable reachable from t through sigma,
// recursing into array shapes, tuple elements, and function
// domains/codomains so the result contains no variable sigma has already
// resolved. Repeated application is a no-op.
func Under(sigma *Substitution, t types.Type) types.Type {
	t = sigma.Find(t)
	switch v := t.(type) {
	case types.TArray:
		return types.TArray{N: Under(sigma, v.N).(types.AExp)}
	case types.TTuple:
		elems := make([]types.Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = Under(sigma, e)
		}
		return types.TTuple{Elems: elems}
	case types.TFun:
		return types.TFun{A: Under(sigma, v.A), B: Under(sigma, v.B)}
	case types.Add:
		return types.Add{L: Under(sigma, v.L).(types.AExp), R: Under(sigma, v.R).(types.AExp)}
	case types.Mul:
		return types.Mul{L: Under(sigma, v.L).(types.AExp), R: Under(sigma, v.R).(types.AExp)}
	case types.Not:
		return types.Not{X: Under(sigma, v.X).(types.BExp)}
	case types.And:
		return types.And{L: Under(sigma, v.L).(types.BExp), R: Under(sigma, v.R).(types.BExp)}
	case types.Or:
		return types.Or{L: Under(sigma, v.L).(types.BExp), R: Under(sigma, v.R).(types.BExp)}
	case types.Eq:
		return types.Eq{L: Under(sigma, v.L).(types.AExp), R: Under(sigma, v.R).(types.AExp)}
	case types.Lt:
		return types.Lt{L: Under(sigma, v.L).(types.AExp), R: Under(sigma, v.R).(types.AExp)}
	case types.Gt:
		return types.Gt{L: Under(sigma, v.L).(types.AExp), R: Under(sigma, v.R).(types.AExp)}
	case types.Le:
		return types.Le{L: Under(sigma, v.L).(types.AExp), R: Under(sigma, v.R).(types.AExp)}
	case types.Ge:
		return types.Ge{L: Under(sigma, v.L).(types.AExp), R: Under(sigma, v.R).(types.AExp)}
	default:
		return t
	}
}

// ToSMT lowers every arithmetic/boolean fact sigma knows (both resolved
// bindings and residual equalities) into a single conjoined formula, for
// the verifier to hand to an Oracle alongside the context's own
// assumptions.
func (s *Substitution) ToSMT() types.BExp {
	var facts []types.BExp

	keys := make([]string, 0, len(s.keyTerms))
	for k := range s.keyTerms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fact, ok := arithmeticFact(s.keyTerms[k], s.parent[k]); ok {
			facts = append(facts, fact)
		}
	}
	for _, eq := range s.equalities {
		if fact, ok := arithmeticFact(eq.L, eq.R); ok {
			facts = append(facts, fact)
		}
	}
	return conjoin(facts)
}

func arithmeticFact(l, r types.Type) (types.BExp, bool) {
	if la, ok := l.(types.AExp); ok {
		if ra, ok2 := r.(types.AExp); ok2 {
			return types.Eq{L: la, R: ra}, true
		}
	}
	if lb, ok := l.(types.BExp); ok {
		if rb, ok2 := r.(types.BExp); ok2 {
			return types.Or{
				L: types.And{L: lb, R: rb},
				R: types.And{L: types.Not{X: lb}, R: types.Not{X: rb}},
			}, true
		}
	}
	return nil, false
}

func conjoin(facts []types.BExp) types.BExp {
	if len(facts) == 0 {
		return types.BLit{Value: true}
	}
	out := facts[0]
	for _, f := range facts[1:] {
		out = types.And{L: out, R: f}
	}
	return out
}
