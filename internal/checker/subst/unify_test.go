package subst_test

import (
	"testing"

	"github.com/johnli0135/numpy-types/internal/checker/subst"
	"github.com/johnli0135/numpy-types/internal/checker/types"
)

func newSigma() *subst.Substitution { return subst.New(preferConcrete) }

func TestUnifyIdenticalTermsSucceeds(t *testing.T) {
	s := newSigma()
	if err := subst.Unify(s, types.TInt{}, types.TInt{}); err != nil {
		t.Fatalf("Unify(int, int) = %v", err)
	}
}

func TestUnifyOpaqueBoolAcceptsAnyBoolShape(t *testing.T) {
	s := newSigma()
	if err := subst.Unify(s, types.TBool{}, types.BLit{Value: true}); err != nil {
		t.Fatalf("Unify(bool, True) = %v", err)
	}
}

func TestUnifyOpaqueNeverCrossesKinds(t *testing.T) {
	s := newSigma()
	if err := subst.Unify(s, types.TBool{}, types.TInt{}); err == nil {
		t.Fatalf("expected Unify(bool, int) to fail")
	}
}

func TestUnifyOpaqueNeverUnifiesWithStructuralTypes(t *testing.T) {
	s := newSigma()
	if err := subst.Unify(s, types.TBool{}, types.TArray{N: types.ALit{N: 1}}); err == nil {
		t.Fatalf("expected Unify(bool, array[1]) to fail")
	}
	if err := subst.Unify(s, types.TInt{}, types.TNone{}); err == nil {
		t.Fatalf("expected Unify(int, None) to fail")
	}
}

func TestUnifyArrayShapesUnifyTheirIndexTerms(t *testing.T) {
	s := newSigma()
	a := types.TArray{N: types.AEVar{Name: "n"}}
	b := types.TArray{N: types.ALit{N: 5}}
	if err := subst.Unify(s, a, b); err != nil {
		t.Fatalf("Unify(array[n], array[5]) = %v", err)
	}
	if got := subst.Under(s, a); got.String() != b.String() {
		t.Errorf("Under(array[n]) = %s, want %s", got, b)
	}
}

func TestUnifyHeadConstructorMismatch(t *testing.T) {
	s := newSigma()
	err := subst.Unify(s, types.TArray{N: types.ALit{N: 1}}, types.TTuple{Elems: []types.Type{types.TInt{}}})
	if err == nil {
		t.Fatalf("expected a head constructor mismatch error")
	}
	if _, ok := err.(*types.UnificationError); !ok {
		t.Fatalf("expected *types.UnificationError, got %T", err)
	}
}

func TestUnifyVariableKindMismatch(t *testing.T) {
	s := newSigma()
	err := subst.Unify(s, types.AEVar{Name: "a"}, types.BEVar{Name: "b"})
	if err == nil {
		t.Fatalf("expected a variable kind mismatch error")
	}
}

func TestUnifyTupleElementwise(t *testing.T) {
	s := newSigma()
	a := types.TTuple{Elems: []types.Type{types.AVar{Name: "n"}, types.TBool{}}}
	b := types.TTuple{Elems: []types.Type{types.ALit{N: 2}, types.BLit{Value: false}}}
	if err := subst.Unify(s, a, b); err != nil {
		t.Fatalf("Unify(tuple, tuple) = %v", err)
	}
}

func TestUnifyFunctionDomainAndCodomain(t *testing.T) {
	s := newSigma()
	a := types.TFun{A: types.AVar{Name: "n"}, B: types.TArray{N: types.AVar{Name: "n"}}}
	b := types.TFun{A: types.ALit{N: 4}, B: types.TArray{N: types.ALit{N: 4}}}
	if err := subst.Unify(s, a, b); err != nil {
		t.Fatalf("Unify(fun, fun) = %v", err)
	}
}

func TestUnderRecursesIntoArrayShapes(t *testing.T) {
	s := newSigma()
	if err := subst.Unify(s, types.AEVar{Name: "n"}, types.ALit{N: 9}); err != nil {
		t.Fatalf("Unify: %v", err)
	}
	got := subst.Under(s, types.TArray{N: types.AEVar{Name: "n"}})
	want := types.TArray{N: types.ALit{N: 9}}
	if got.String() != want.String() {
		t.Errorf("Under = %s, want %s", got, want)
	}
}

func TestUnderIsIdempotent(t *testing.T) {
	s := newSigma()
	if err := subst.Unify(s, types.AEVar{Name: "n"}, types.ALit{N: 9}); err != nil {
		t.Fatalf("Unify: %v", err)
	}
	once := subst.Under(s, types.TArray{N: types.AEVar{Name: "n"}})
	twice := subst.Under(s, once)
	if once.String() != twice.String() {
		t.Errorf("Under is not idempotent: once=%s twice=%s", once, twice)
	}
}
