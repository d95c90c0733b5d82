package subst_test

import (
	"testing"

	"github.com/johnli0135/numpy-types/internal/checker/subst"
	"github.com/johnli0135/numpy-types/internal/checker/types"
)

// preferConcrete is a small compare function for tests: a variable always
// loses to a concrete representative, and between two variables the
// lexicographically smaller name wins. It mirrors the shape of the
// checker's real compare function without importing the context package.
func preferConcrete(a, b types.Type) bool {
	av, bv := isVar(a), isVar(b)
	if av && !bv {
		return false
	}
	if !av && bv {
		return true
	}
	if av && bv {
		return a.String() < b.String()
	}
	return false
}

func isVar(t types.Type) bool {
	switch t.(type) {
	case types.AEVar, types.BEVar, types.TEVar, types.TUVar:
		return true
	}
	return false
}

func TestUnionPrefersConcreteRepresentative(t *testing.T) {
	s := subst.New(preferConcrete)
	v := types.AEVar{Name: "x"}
	lit := types.ALit{N: 3}
	s.Union(v, lit)

	if got := s.Find(v); got.String() != lit.String() {
		t.Errorf("Find(v) = %s, want %s", got, lit)
	}
}

func TestFindPathCompresses(t *testing.T) {
	s := subst.New(preferConcrete)
	a := types.AEVar{Name: "a"}
	b := types.AEVar{Name: "b"}
	c := types.ALit{N: 7}
	s.Union(a, b)
	s.Union(b, c)

	if got := s.Find(a); got.String() != c.String() {
		t.Errorf("Find(a) = %s, want %s", got, c)
	}
}

func TestUnionOfIncomparableTermsRecordsEquality(t *testing.T) {
	s := subst.New(preferConcrete)
	x := types.AVar{Name: "x"}
	y := types.AVar{Name: "y"}
	s.Union(x, y)

	eqs := s.Equalities()
	if len(eqs) != 1 {
		t.Fatalf("Equalities() = %v, want exactly one residual equality", eqs)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	s := subst.New(preferConcrete)
	v := types.AEVar{Name: "x"}
	lit := types.ALit{N: 1}
	s.Union(v, lit)

	clone := s.Copy()
	clone.Union(types.AEVar{Name: "y"}, types.ALit{N: 2})

	if len(s.Entries()) == len(clone.Entries()) {
		t.Fatalf("mutating the clone should not have affected the original: orig=%d clone=%d", len(s.Entries()), len(clone.Entries()))
	}
}

func TestEVarsAndUVarsClassifyByKind(t *testing.T) {
	s := subst.New(preferConcrete)
	s.Union(types.AEVar{Name: "e1"}, types.ALit{N: 1})
	s.Union(types.TUVar{Name: "u1"}, types.TUVar{Name: "u1"})
	s.Union(types.TEVar{Name: "e2"}, types.TEVar{Name: "e3"})

	evars := s.EVars()
	if !evars["e1"] || !evars["e2"] || !evars["e3"] {
		t.Errorf("EVars() = %v, want e1, e2, e3 present", evars)
	}
	if evars["u1"] {
		t.Errorf("EVars() should not include TUVar names, got %v", evars)
	}
}

func TestToSMTConjoinsArithmeticAndBooleanFacts(t *testing.T) {
	s := subst.New(preferConcrete)
	s.Union(types.AEVar{Name: "n"}, types.ALit{N: 3})

	formula := s.ToSMT()
	if _, ok := formula.(types.BExp); !ok {
		t.Fatalf("ToSMT() did not return a BExp: %v", formula)
	}
	if formula.String() == (types.BLit{Value: true}).String() {
		t.Errorf("ToSMT() should reflect the union fact, got trivial %s", formula)
	}
}

func TestToSMTOfEmptySubstitutionIsTriviallyTrue(t *testing.T) {
	s := subst.New(preferConcrete)
	if got := s.ToSMT(); got.String() != (types.BLit{Value: true}).String() {
		t.Errorf("ToSMT() of an empty substitution = %s, want true", got)
	}
}

func TestAllNamesWalksKeysValuesAndEqualities(t *testing.T) {
	s := subst.New(preferConcrete)
	s.Union(types.AEVar{Name: "x"}, types.Add{L: types.AVar{Name: "a"}, R: types.ALit{N: 1}})
	s.Union(types.AVar{Name: "b"}, types.AVar{Name: "c"})

	names := s.AllNames()
	for _, want := range []string{"x", "a", "b", "c"} {
		if !names[want] {
			t.Errorf("AllNames() = %v, want %q present", names, want)
		}
	}
	if names["(a + 1)"] || names["?x"] {
		t.Errorf("AllNames() should hold bare variable names, not rendered terms: %v", names)
	}
}

func TestGenRenamesEveryEndpoint(t *testing.T) {
	s := subst.New(preferConcrete)
	s.Union(types.AEVar{Name: "x"}, types.ALit{N: 3})
	s.Union(types.AVar{Name: "a"}, types.AVar{Name: "b"})

	renamed := s.Gen(map[string]string{"x": "x2", "a": "a2", "b": "b2"})
	if got := renamed.Find(types.AEVar{Name: "x2"}); got.String() != "3" {
		t.Errorf("Find(x2) after Gen = %s, want 3", got)
	}
	names := renamed.AllNames()
	if names["x"] || names["a"] || names["b"] {
		t.Errorf("Gen left old names behind: %v", names)
	}
	eqs := renamed.Equalities()
	if len(eqs) != 1 {
		t.Fatalf("Gen dropped the residual equality: %v", eqs)
	}
}
