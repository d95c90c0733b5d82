package verifier

import (
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/config"
)

// BoundedOracle decides a Formula without an external SMT solver. The body
// is split into its disjuncts; inside each disjunct, an equality conjunct
// that pins an existential variable to an already-computable term assigns
// it directly, iterated to a fixpoint, and only the variables left over
// are enumerated by brute force: integers over [-Bound, Bound], booleans
// over both values. Checked programs only ever constrain small literal
// array shapes, so the residual enumeration stays tiny and the procedure
// is exact for them.
type BoundedOracle struct {
	Bound int
}

// NewBoundedOracle builds a BoundedOracle with the default bound.
func NewBoundedOracle() *BoundedOracle {
	return &BoundedOracle{Bound: config.DefaultOracleBound}
}

func (o *BoundedOracle) Check(f Formula) (Result, error) {
	bound := o.Bound
	if bound <= 0 {
		bound = config.DefaultOracleBound
	}
	var foralls, exists []Quantifier
	for _, q := range f.Quantifiers {
		if q.Kind == ForAll {
			foralls = append(foralls, q)
		} else {
			exists = append(exists, q)
		}
	}
	disjuncts := flattenOr(f.Body)
	if forallHolds(foralls, 0, bound, map[string]int{}, map[string]bool{}, exists, disjuncts) {
		return Sat, nil
	}
	return Unsat, nil
}

// forallHolds enumerates every assignment of the universally quantified
// variables; each combination must satisfy at least one disjunct.
// Existentials distribute over the disjunction, so each disjunct is
// decided on its own.
func forallHolds(qs []Quantifier, idx, bound int, ints map[string]int, bools map[string]bool, exists []Quantifier, disjuncts []types.BExp) bool {
	if idx == len(qs) {
		for _, d := range disjuncts {
			if disjunctSat(d, exists, bound, ints, bools) {
				return true
			}
		}
		return false
	}
	q := qs[idx]
	if q.Sort == SortBool {
		for _, v := range [...]bool{false, true} {
			bools[q.Name] = v
			if !forallHolds(qs, idx+1, bound, ints, bools, exists, disjuncts) {
				return false
			}
		}
		return true
	}
	for v := -bound; v <= bound; v++ {
		ints[q.Name] = v
		if !forallHolds(qs, idx+1, bound, ints, bools, exists, disjuncts) {
			return false
		}
	}
	return true
}

// disjunctSat decides one disjunct under a fixed assignment of the
// universally quantified variables. Propagated assignments may land
// outside [-bound, bound]; only enumerated variables are range-limited.
func disjunctSat(d types.BExp, exists []Quantifier, bound int, ints map[string]int, bools map[string]bool) bool {
	localInts := make(map[string]int, len(ints))
	for k, v := range ints {
		localInts[k] = v
	}
	localBools := make(map[string]bool, len(bools))
	for k, v := range bools {
		localBools[k] = v
	}
	existNames := make(map[string]bool, len(exists))
	for _, q := range exists {
		existNames[q.Name] = true
	}

	conjs := flattenAnd(d)
	for changed := true; changed; {
		changed = false
		for _, c := range conjs {
			eq, ok := c.(types.Eq)
			if !ok {
				continue
			}
			if propagate(eq.L, eq.R, existNames, localInts) || propagate(eq.R, eq.L, existNames, localInts) {
				changed = true
			}
		}
	}

	var rest []Quantifier
	for _, q := range exists {
		if q.Sort == SortInt {
			if _, ok := localInts[q.Name]; ok {
				continue
			}
		} else if _, ok := localBools[q.Name]; ok {
			continue
		}
		rest = append(rest, q)
	}
	return enumerate(rest, 0, bound, localInts, localBools, d)
}

// propagate assigns v := eval(e) when v is an unassigned existential
// variable and every variable e mentions is already assigned.
func propagate(v, e types.AExp, existNames map[string]bool, ints map[string]int) bool {
	name, ok := indexVarName(v)
	if !ok || !existNames[name] {
		return false
	}
	if _, assigned := ints[name]; assigned {
		return false
	}
	for n := range e.Names() {
		if _, assigned := ints[n]; !assigned {
			return false
		}
	}
	ints[name] = evalA(e, ints)
	return true
}

func indexVarName(e types.AExp) (string, bool) {
	switch v := e.(type) {
	case types.AVar:
		return v.Name, true
	case types.AEVar:
		return v.Name, true
	}
	return "", false
}

func enumerate(qs []Quantifier, idx, bound int, ints map[string]int, bools map[string]bool, body types.BExp) bool {
	if idx == len(qs) {
		return evalB(body, ints, bools)
	}
	q := qs[idx]
	if q.Sort == SortBool {
		for _, v := range [...]bool{false, true} {
			bools[q.Name] = v
			if enumerate(qs, idx+1, bound, ints, bools, body) {
				return true
			}
		}
		return false
	}
	for v := -bound; v <= bound; v++ {
		ints[q.Name] = v
		if enumerate(qs, idx+1, bound, ints, bools, body) {
			return true
		}
	}
	return false
}

func flattenOr(b types.BExp) []types.BExp {
	if or, ok := b.(types.Or); ok {
		return append(flattenOr(or.L), flattenOr(or.R)...)
	}
	return []types.BExp{b}
}

func flattenAnd(b types.BExp) []types.BExp {
	if and, ok := b.(types.And); ok {
		return append(flattenAnd(and.L), flattenAnd(and.R)...)
	}
	return []types.BExp{b}
}

func evalA(e types.AExp, ints map[string]int) int {
	switch v := e.(type) {
	case types.ALit:
		return v.N
	case types.AVar:
		return ints[v.Name]
	case types.AEVar:
		return ints[v.Name]
	case types.Add:
		return evalA(v.L, ints) + evalA(v.R, ints)
	case types.Mul:
		return evalA(v.L, ints) * evalA(v.R, ints)
	default:
		return 0
	}
}

func evalB(e types.BExp, ints map[string]int, bools map[string]bool) bool {
	switch v := e.(type) {
	case types.BLit:
		return v.Value
	case types.BVar:
		return bools[v.Name]
	case types.BEVar:
		return bools[v.Name]
	case types.Not:
		return !evalB(v.X, ints, bools)
	case types.And:
		return evalB(v.L, ints, bools) && evalB(v.R, ints, bools)
	case types.Or:
		return evalB(v.L, ints, bools) || evalB(v.R, ints, bools)
	case types.Eq:
		return evalA(v.L, ints) == evalA(v.R, ints)
	case types.Lt:
		return evalA(v.L, ints) < evalA(v.R, ints)
	case types.Gt:
		return evalA(v.L, ints) > evalA(v.R, ints)
	case types.Le:
		return evalA(v.L, ints) <= evalA(v.R, ints)
	case types.Ge:
		return evalA(v.L, ints) >= evalA(v.R, ints)
	default:
		return false
	}
}
