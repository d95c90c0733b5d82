package verifier_test

import (
	"testing"

	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/checker/verifier"
)

func TestBuildFormulaQuantifiesFixedNamesUniversally(t *testing.T) {
	c := context.New(types.NewIDSource())
	c.Annotate("a", types.AVar{Name: "a"}, true)
	c.Assume(types.Ge{L: types.AVar{Name: "a"}, R: types.ALit{N: 0}})

	f := verifier.BuildFormula([]*context.Context{c})
	var sawForall bool
	for _, q := range f.Quantifiers {
		if q.Name == "a" {
			if q.Kind != verifier.ForAll {
				t.Errorf("fixed name %q should be universally quantified, got kind %v", q.Name, q.Kind)
			}
			sawForall = true
		}
	}
	if !sawForall {
		t.Fatalf("expected %q to appear in the quantifier prefix", "a")
	}
}

func TestBuildFormulaQuantifiesFreeNamesExistentially(t *testing.T) {
	c := context.New(types.NewIDSource())
	ev := types.AEVar{Name: "t1"}
	if err := c.Unify(ev, types.ALit{N: 3}); err != nil {
		t.Fatalf("Unify: %v", err)
	}
	c.Annotate("x", types.TArray{N: ev}, false)

	f := verifier.BuildFormula([]*context.Context{c})
	for _, q := range f.Quantifiers {
		if q.Name == "t1" && q.Kind != verifier.Exists {
			t.Errorf("unfixed name %q should be existential, got kind %v", q.Name, q.Kind)
		}
	}
}

func TestBoundedOracleAcceptsSatisfiableFormula(t *testing.T) {
	o := verifier.NewBoundedOracle()
	f := verifier.Formula{
		Quantifiers: []verifier.Quantifier{{Kind: verifier.Exists, Name: "n", Sort: verifier.SortInt}},
		Body:        types.Eq{L: types.AVar{Name: "n"}, R: types.ALit{N: 3}},
	}
	result, err := o.Check(f)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result != verifier.Sat {
		t.Errorf("Check(∃n. n = 3) = %v, want Sat", result)
	}
}

func TestBoundedOracleRejectsUnsatisfiableFormula(t *testing.T) {
	o := verifier.NewBoundedOracle()
	// ∀n. n = n + 1 has no satisfying assignment.
	f := verifier.Formula{
		Quantifiers: []verifier.Quantifier{{Kind: verifier.ForAll, Name: "n", Sort: verifier.SortInt}},
		Body:        types.Eq{L: types.AVar{Name: "n"}, R: types.Add{L: types.AVar{Name: "n"}, R: types.ALit{N: 1}}},
	}
	result, err := o.Check(f)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result != verifier.Unsat {
		t.Errorf("Check(∀n. n = n+1) = %v, want Unsat", result)
	}
}

func TestVerifyReturnsUnsatisfiableError(t *testing.T) {
	c := context.New(types.NewIDSource())
	c.Annotate("n", types.AVar{Name: "n"}, true)
	c.Assume(types.Eq{L: types.AVar{Name: "n"}, R: types.Add{L: types.AVar{Name: "n"}, R: types.ALit{N: 1}}})

	err := verifier.Verify([]*context.Context{c}, verifier.NewBoundedOracle())
	if err == nil {
		t.Fatalf("expected Verify to reject an impossible assumption")
	}
	if _, ok := err.(*verifier.UnsatisfiableError); !ok {
		t.Fatalf("expected *verifier.UnsatisfiableError, got %T", err)
	}
}

func TestVerifyAcceptsSatisfiableAssumptions(t *testing.T) {
	c := context.New(types.NewIDSource())
	c.Annotate("n", types.AVar{Name: "n"}, true)
	c.Assume(types.Ge{L: types.AVar{Name: "n"}, R: types.AVar{Name: "n"}})

	if err := verifier.Verify([]*context.Context{c}, verifier.NewBoundedOracle()); err != nil {
		t.Errorf("Verify rejected a trivially true assumption: %v", err)
	}
}
