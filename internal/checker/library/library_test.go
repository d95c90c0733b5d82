package library_test

import (
	"testing"

	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/library"
	"github.com/johnli0135/numpy-types/internal/checker/rules"
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/checker/verifier"
	"github.com/johnli0135/numpy-types/internal/parser"
)

func TestLoadBundleParsesManifest(t *testing.T) {
	src := `
name: demo
rules:
  - name: arr_zeros
    pattern: "np.zeros(_a)"
    assumptions:
      a: int
    return: "array[a]"
`
	b, err := library.LoadBundle([]byte(src))
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}
	if b.Name != "demo" || len(b.Rules) != 1 {
		t.Fatalf("LoadBundle = %+v, want one rule named arr_zeros", b)
	}
}

func TestNumpyBundleLoadsFromEmbeddedManifest(t *testing.T) {
	b, err := library.NumpyBundle()
	if err != nil {
		t.Fatalf("NumpyBundle: %v", err)
	}
	if b.Name != "numpy" {
		t.Errorf("Name = %q, want %q", b.Name, "numpy")
	}
	names := map[string]bool{}
	for _, r := range b.Rules {
		names[r.Name] = true
	}
	for _, want := range []string{"arr_zeros", "add_row", "smush"} {
		if !names[want] {
			t.Errorf("numpy bundle is missing rule %q", want)
		}
	}
}

func TestEmbeddedBundleNamesListsManifests(t *testing.T) {
	names, err := library.EmbeddedBundleNames()
	if err != nil {
		t.Fatalf("EmbeddedBundleNames: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "numpy.yaml" {
			found = true
		}
	}
	if !found {
		t.Errorf("EmbeddedBundleNames() = %v, want to include numpy.yaml", names)
	}
}

func newTestChecker(t *testing.T) *rules.Checker {
	t.Helper()
	ids := types.NewIDSource()
	rs := rules.BasicRules()
	bundle, err := library.NumpyBundle()
	if err != nil {
		t.Fatalf("NumpyBundle: %v", err)
	}
	libRules, err := bundle.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rs = append(rs, libRules...)
	rs = append(rs, library.NumpyImportRule())
	ck := rules.NewChecker(ids, rs, verifier.NewBoundedOracle())
	ck.ReturnType = types.TNone{}
	return ck
}

func TestExpressionRuleInfersShape(t *testing.T) {
	ck := newTestChecker(t)
	prog, err := parser.Parse("d = add_row(np.zeros(3))")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ck.Check(prog); err != nil {
		t.Fatalf("expected add_row(np.zeros(3)) to check, got %v", err)
	}
}

func TestExpressionRuleRejectsShapeMismatch(t *testing.T) {
	ck := newTestChecker(t)
	prog, err := parser.Parse("a = np.zeros(3)\nb = np.zeros(4)\nc = smush(a, b)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ck.Check(prog); err == nil {
		t.Fatalf("expected smush of mismatched shapes to be rejected")
	}
}

func TestImportRuleBindsNpOnesPolymorphically(t *testing.T) {
	ck := newTestChecker(t)
	prog, err := parser.Parse("import numpy as np\na = np.ones(3)\nb = np.ones(5)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ck.Check(prog); err != nil {
		t.Fatalf("expected two differently-shaped np.ones calls to both check, got %v", err)
	}
}

func TestImportRuleExtendsContextWithBindings(t *testing.T) {
	rule := library.NumpyImportRule()
	ids := types.NewIDSource()
	ctx := context.New(ids)
	prog, err := parser.Parse("import numpy as np")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	imp := prog.Body[0]
	caps, ok := rule.Pattern.Matches(imp)
	if !ok {
		t.Fatalf("expected the import rule pattern to match `import numpy as np`")
	}
	ck := rules.NewChecker(ids, []rules.Rule{rule}, verifier.NewBoundedOracle())
	outs, err := rule.Action(ck, ctx, caps, imp)
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("Action returned %d outcomes, want 1", len(outs))
	}
	if !outs[0].Ctx.Contains("np.ones") {
		t.Errorf("expected the import rule to bind %q", "np.ones")
	}
}
