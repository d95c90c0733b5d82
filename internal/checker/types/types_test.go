package types_test

import (
	"testing"

	"github.com/johnli0135/numpy-types/internal/checker/types"
)

func TestStringForms(t *testing.T) {
	cases := []struct {
		name string
		t    types.Type
		want string
	}{
		{"array shape", types.TArray{N: types.Add{L: types.AVar{Name: "a"}, R: types.ALit{N: 1}}}, "array[(a + 1)]"},
		{"fun", types.TFun{A: types.TInt{}, B: types.TBool{}}, "(int -> bool)"},
		{"tuple", types.TTuple{Elems: []types.Type{types.TInt{}, types.TBool{}}}, "(int, bool)"},
		{"evar", types.TEVar{Name: "t1"}, "?t1"},
		{"uvar", types.TUVar{Name: "t1"}, "'t1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.t.String(); got != c.want {
				t.Errorf("String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestNamesCollectsFreeVariables(t *testing.T) {
	ty := types.TArray{N: types.Add{L: types.AVar{Name: "a"}, R: types.Mul{L: types.AVar{Name: "b"}, R: types.ALit{N: 2}}}}
	names := ty.Names()
	if len(names) != 2 || !names["a"] || !names["b"] {
		t.Fatalf("Names() = %v, want {a, b}", names)
	}
}

func TestRenamedLeavesAbsentNamesUntouched(t *testing.T) {
	ty := types.TArray{N: types.Add{L: types.AVar{Name: "a"}, R: types.AVar{Name: "b"}}}
	renamed := ty.Renamed(map[string]string{"a": "a2"})
	want := types.TArray{N: types.Add{L: types.AVar{Name: "a2"}, R: types.AVar{Name: "b"}}}
	if renamed.String() != want.String() {
		t.Errorf("Renamed = %s, want %s", renamed, want)
	}
}

func TestEappDistinguishesSchemeFromUnification(t *testing.T) {
	scheme := types.TFun{A: types.AVar{Name: "a"}, B: types.TArray{N: types.AVar{Name: "a"}}}
	got := types.Eapp(scheme)
	want := types.TFun{A: types.AEVar{Name: "a"}, B: types.TArray{N: types.AEVar{Name: "a"}}}
	if got.String() != want.String() {
		t.Errorf("Eapp = %s, want %s", got, want)
	}
}

func TestInstantiateProducesFreshNamesPerCall(t *testing.T) {
	ids := types.NewIDSource()
	scheme := types.TFun{A: types.AVar{Name: "a"}, B: types.TArray{N: types.AVar{Name: "a"}}}

	first := types.Instantiate(scheme, ids)
	second := types.Instantiate(scheme, ids)

	if first.String() == second.String() {
		t.Fatalf("two instantiations of the same scheme produced identical types: %s", first)
	}
	fn, ok := first.(types.TFun)
	if !ok {
		t.Fatalf("Instantiate did not preserve the TFun shape: %v", first)
	}
	av, ok := fn.A.(types.AEVar)
	if !ok {
		t.Fatalf("Instantiate did not turn the scheme's AVar into an AEVar: %v", fn.A)
	}
	arr, ok := fn.B.(types.TArray)
	if !ok {
		t.Fatalf("Instantiate did not preserve TArray: %v", fn.B)
	}
	shapeVar, ok := arr.N.(types.AEVar)
	if !ok || shapeVar.Name != av.Name {
		t.Fatalf("the two occurrences of %q should instantiate to the same AEVar, got %v and %v", "a", fn.A, arr.N)
	}
}

func TestFreshSkipsFixedNames(t *testing.T) {
	ids := types.NewIDSource()
	ty := types.TArray{N: types.Add{L: types.AVar{Name: "a"}, R: types.AVar{Name: "b"}}}
	fixed := map[string]bool{"a": true}

	got := types.Fresh(fixed, ty, ids)
	arr := got.(types.TArray)
	add := arr.N.(types.Add)
	if add.L.(types.AVar).Name != "a" {
		t.Errorf("Fresh renamed a fixed name: %v", add.L)
	}
	if add.R.(types.AVar).Name == "b" {
		t.Errorf("Fresh left a non-fixed name unrenamed: %v", add.R)
	}
}

func TestFlippedIsInverseOfEapp(t *testing.T) {
	scheme := types.TFun{A: types.AVar{Name: "a"}, B: types.TArray{N: types.AVar{Name: "a"}}}
	instantiated := types.Eapp(scheme)
	back := types.Flipped(map[string]bool{}, instantiated)
	if back.String() != scheme.String() {
		t.Errorf("Flipped(Eapp(t)) = %s, want %s", back, scheme)
	}
}

func TestFlippedRespectsFixedNames(t *testing.T) {
	instantiated := types.TEVar{Name: "a"}
	got := types.Flipped(map[string]bool{"a": true}, instantiated)
	if _, ok := got.(types.TEVar); !ok {
		t.Errorf("Flipped should leave a fixed EVar alone, got %v", got)
	}
}
