// Package verifier turns a Γ (or fan-out set of Γs) into a single
// quantified boolean/arithmetic formula and asks an Oracle whether it is
// satisfiable. Fixed (user-declared, non-generalizable) variables are
// universally quantified, since the checked property must hold for every
// concrete instantiation of a function's parameters, while every other
// free variable is existentially quantified: a unification variable only
// needs *some* satisfying value to exist.
package verifier

import (
	"sort"

	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/types"
)

// UnsatisfiableError is returned when the quantified formula built from a
// Γ-set has no satisfying assignment. The top-level check driver looks for
// this type to decide whether a careful-mode retry applies.
type UnsatisfiableError struct{}

func (*UnsatisfiableError) Error() string { return "unsatisfiable constraint" }

// QuantifierKind distinguishes universal from existential binding.
type QuantifierKind int

const (
	Exists QuantifierKind = iota
	ForAll
)

// Sort is the SMT sort a quantified variable ranges over.
type Sort int

const (
	SortInt Sort = iota
	SortBool
)

// Quantifier binds one variable name over one sort.
type Quantifier struct {
	Kind QuantifierKind
	Name string
	Sort Sort
}

// Formula is a quantifier prefix over a boolean/arithmetic body, the unit an
// Oracle decides.
type Formula struct {
	Quantifiers []Quantifier
	Body        types.BExp
}

// Result is an Oracle's verdict on a Formula's satisfiability.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

// Oracle is the decision-procedure boundary: given a closed,
// fully-quantified Formula, decide satisfiability. BoundedOracle is the
// concrete implementation shipped; anything that can decide quantified
// linear integer arithmetic with booleans can stand in for it.
type Oracle interface {
	Check(f Formula) (Result, error)
}

// BuildFormula lowers a Γ-set into a disjunction of per-Γ conjunctions Φ
// and quantifies its free variables: variables fixed in any Γ_i are
// universally quantified (outermost), the rest existentially.
func BuildFormula(ctxs []*context.Context) Formula {
	var disjuncts []types.BExp
	fixedUnion := map[string]bool{}
	for _, c := range ctxs {
		phi := c.Sigma.ToSMT()
		for _, a := range c.Assumptions() {
			phi = types.And{L: phi, R: a}
		}
		disjuncts = append(disjuncts, phi)
		for n := range c.Fixed() {
			fixedUnion[n] = true
		}
	}
	body := disjoin(disjuncts)

	ints, bools := sortsOf(body)
	var forallNames, existsNames []string
	for n := range ints {
		if fixedUnion[n] {
			forallNames = append(forallNames, n)
		} else {
			existsNames = append(existsNames, n)
		}
	}
	for n := range bools {
		if fixedUnion[n] {
			forallNames = append(forallNames, n)
		} else {
			existsNames = append(existsNames, n)
		}
	}
	sort.Strings(forallNames)
	sort.Strings(existsNames)

	var qs []Quantifier
	for _, n := range forallNames {
		qs = append(qs, Quantifier{Kind: ForAll, Name: n, Sort: sortOfName(n, ints, bools)})
	}
	for _, n := range existsNames {
		qs = append(qs, Quantifier{Kind: Exists, Name: n, Sort: sortOfName(n, ints, bools)})
	}
	return Formula{Quantifiers: qs, Body: body}
}

func sortOfName(n string, ints, bools map[string]bool) Sort {
	if ints[n] {
		return SortInt
	}
	_ = bools
	return SortBool
}

func disjoin(fs []types.BExp) types.BExp {
	if len(fs) == 0 {
		return types.BLit{Value: true}
	}
	out := fs[0]
	for _, f := range fs[1:] {
		out = types.Or{L: out, R: f}
	}
	return out
}

// sortsOf classifies every AVar/AEVar name in b as an integer-sorted
// variable and every BVar/BEVar name as boolean-sorted. A to_smt()-derived
// formula never contains TEVar/TUVar (those only ever appear inside
// structural Types, never inside a BExp tree), so this exhausts every free
// name BuildFormula needs to quantify.
func sortsOf(b types.BExp) (ints, bools map[string]bool) {
	ints, bools = map[string]bool{}, map[string]bool{}
	walkSorts(b, ints, bools)
	return
}

func walkSorts(t types.Type, ints, bools map[string]bool) {
	switch v := t.(type) {
	case types.AVar:
		ints[v.Name] = true
	case types.AEVar:
		ints[v.Name] = true
	case types.BVar:
		bools[v.Name] = true
	case types.BEVar:
		bools[v.Name] = true
	case types.Add:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	case types.Mul:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	case types.Not:
		walkSorts(v.X, ints, bools)
	case types.And:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	case types.Or:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	case types.Eq:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	case types.Lt:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	case types.Gt:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	case types.Le:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	case types.Ge:
		walkSorts(v.L, ints, bools)
		walkSorts(v.R, ints, bools)
	}
}

// Verify builds Φ from the Γ-set, asks the oracle, and returns
// *UnsatisfiableError if it can't be satisfied.
func Verify(ctxs []*context.Context, oracle Oracle) error {
	f := BuildFormula(ctxs)
	result, err := oracle.Check(f)
	if err != nil {
		return err
	}
	if result == Unsat {
		return &UnsatisfiableError{}
	}
	return nil
}
