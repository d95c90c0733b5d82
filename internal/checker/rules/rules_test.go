package rules_test

import (
	"testing"

	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/library"
	"github.com/johnli0135/numpy-types/internal/checker/rules"
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/checker/verifier"
	"github.com/johnli0135/numpy-types/internal/parser"
)

// newChecker builds a Checker over the core grammar plus the numpy demo
// bundle, the same rule set the CLI assembles.
func newChecker(t *testing.T) *rules.Checker {
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

func checkSource(t *testing.T, src string) (types.Type, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	return newChecker(t).Check(prog)
}

func TestAcceptScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"plain bool assignment", "a = True"},
		{"rebinding a bool name to another bool shape", "a = True or False\na = not False"},
		{"literal arithmetic and a library call", "b = (1 + 1) * (1 + 1 + 1)\nc = np.zeros(3)"},
		{"ternary fans out over both arms", "n = 1 if True else 2"},
		{"lambda parameter constrained to arithmetic by use", "inc = lambda x: x + 1\na = inc(2)"},
		{"bool annotation with a satisfiable value", "b: bool = (True or False) and True"},
		{"if assumption refines the then-branch", "a = 3\nif a == 3:\n    assert a == 3\nelse:\n    pass"},
		{"function def with a shape-preserving return", "def f(p: bool, a: int, b: array[a]) -> array[a + 1]:\n    return add_row(b)"},
		{"recursive call at the declared signature", "def f(a: int, b: array[a]) -> array[a]:\n    return f(a, b)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := checkSource(t, c.src); err != nil {
				t.Errorf("expected %q to be accepted, got error: %v", c.src, err)
			}
		})
	}
}

func TestRejectScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"rebinding a bool name to None", "a = True\na = None"},
		{"declared bool assigned None", "b: bool\nb = None"},
		{"declared-and-initialized bool assigned None", "b: bool = None"},
		{"mismatched numpy shapes reach smush", "import numpy as np\na = np.ones(3)\nb = np.zeros(4)\nc = smush(a, b)"},
		{"under-applied function call", "def f(a: int, b: int) -> int:\n    return a + b\ng = f(3)"},
		{"chained shapes diverge before smush", "d = add_row(np.zeros(3))\ne = add_row(d)\nf = smush(d, e)"},
		{"branch returning an impossible shape",
			"def f(p: bool, a: int, b: array[a]) -> array[a + 1]:\n" +
				"    if p:\n" +
				"        return np.zeros(1 + a)\n" +
				"    else:\n" +
				"        return smush(add_row(b), np.zeros(a + 2))"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := checkSource(t, c.src); err == nil {
				t.Errorf("expected %q to be rejected", c.src)
			}
		})
	}
}

func TestMatchingNumpyShapesAreAccepted(t *testing.T) {
	src := "import numpy as np\na = np.ones(3)\nb = np.zeros(3)\nc = smush(a, b)"
	if _, err := checkSource(t, src); err != nil {
		t.Errorf("expected matching numpy shapes to check, got %v", err)
	}
}

func TestUnsatisfiableAssumptionIsRejected(t *testing.T) {
	src := "a = 2\nb = a\nassert 2*a + 3 == a + 1"
	if _, err := checkSource(t, src); err == nil {
		t.Errorf("expected an arithmetically impossible assertion to be rejected")
	}
}

func TestConfusionErrorWhenNoRuleMatches(t *testing.T) {
	// A Checker with no rules at all can't match anything, so the Module
	// node itself falls through to a ConfusionError before `pass` is reached.
	ids := types.NewIDSource()
	ck := rules.NewChecker(ids, nil, verifier.NewBoundedOracle())
	prog, err := parser.Parse("pass")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ck.Check(prog); err == nil {
		t.Fatalf("expected a ConfusionError with no rules registered")
	} else if _, ok := err.(*rules.ConfusionError); !ok {
		t.Fatalf("expected *rules.ConfusionError, got %T: %v", err, err)
	}
}

func TestUnboundIdentifierIsRejected(t *testing.T) {
	if _, err := checkSource(t, "a = b"); err == nil {
		t.Errorf("expected referencing an unbound name to be rejected")
	}
}

func TestCarefulModeRetryPinsTheFailingStatement(t *testing.T) {
	// The first two statements are fine; the third contradicts the second.
	// The end-of-program verification fails, and Check then retries in
	// careful mode, verifying after every statement.
	ck := newChecker(t)
	prog, err := parser.Parse("n = 5\nassert n == 5\nassert n == 6")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ck.Check(prog); err == nil {
		t.Fatalf("expected contradictory assertions to be rejected")
	}
	if !ck.Careful {
		t.Errorf("expected Check to have retried in careful mode after the initial verification failed")
	}
}

func TestFunctionCallTypeMismatchIsRejected(t *testing.T) {
	src := "def f(a: int, b: array[a]) -> array[a]:\n    return b\nf(True, 3)"
	if _, err := checkSource(t, src); err == nil {
		t.Errorf("expected passing a bool where an int is expected to be rejected")
	}
}

// asFun asserts ty is a function type and returns it.
func asFun(t *testing.T, ty types.Type, what string) types.TFun {
	t.Helper()
	fn, ok := ty.(types.TFun)
	if !ok {
		t.Fatalf("%s = %s, want a function type", what, ty)
	}
	return fn
}

// tupleElems asserts ty is an n-tuple and returns its elements.
func tupleElems(t *testing.T, ty types.Type, n int, what string) []types.Type {
	t.Helper()
	tup, ok := ty.(types.TTuple)
	if !ok {
		t.Fatalf("%s = %s, want a %d-tuple", what, ty, n)
	}
	if len(tup.Elems) != n {
		t.Fatalf("%s = %s, want %d elements", what, ty, n)
	}
	return tup.Elems
}

// generalized asserts ty is a universally quantified type parameter and
// returns its rendering, for identity comparisons between scheme positions.
func generalized(t *testing.T, ty types.Type, what string) string {
	t.Helper()
	if _, ok := ty.(types.TUVar); !ok {
		t.Fatalf("%s = %s (%T), want a generalized type parameter", what, ty, ty)
	}
	return ty.String()
}

// TestComposeAndFlipLambdasGeneralize: two nested-lambda definitions are
// each let-bound and must infer the schemes
//
//	compose : ((b -> c), (a -> b)) -> (a -> c)
//	flip    : (b -> a -> c) -> a -> b -> c
//
// with distinct, generalized type parameters shared between the argument
// and result positions shown. Unary functions carry one-tuple domains, the
// same shape a call site's argument tuple unifies against.
func TestComposeAndFlipLambdasGeneralize(t *testing.T) {
	src := "compose = lambda f, g: lambda x: f(g(x))\n" +
		"flip = lambda f: lambda a: lambda b: f(b)(a)\n"
	ck := newChecker(t)
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	outs, err := rules.Analyze(ck, []*context.Context{context.New(ck.IDs)}, prog)
	if err != nil {
		t.Fatalf("expected compose/flip lambda schemes to check, got %v", err)
	}
	if len(outs) == 0 {
		t.Fatalf("Analyze produced no outcomes")
	}
	final := outs[0].Ctx
	ctxs := make([]*context.Context, 0, len(outs))
	for _, o := range outs {
		ctxs = append(ctxs, o.Ctx)
	}
	if err := verifier.Verify(ctxs, ck.Oracle); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	composeT, err := final.Typeof("compose")
	if err != nil {
		t.Fatalf("Typeof(compose): %v", err)
	}
	fn := asFun(t, final.Under(composeT), "compose")
	dom := tupleElems(t, fn.A, 2, "compose's domain")
	fT := asFun(t, dom[0], "compose's first argument")
	gT := asFun(t, dom[1], "compose's second argument")
	res := asFun(t, fn.B, "compose's result")
	a := generalized(t, tupleElems(t, gT.A, 1, "g's domain")[0], "g's parameter")
	b := generalized(t, tupleElems(t, fT.A, 1, "f's domain")[0], "f's parameter")
	c := generalized(t, fT.B, "f's result")
	if a == b || a == c || b == c {
		t.Errorf("compose's type parameters should be distinct, got %s", fn)
	}
	if got := gT.B.String(); got != b {
		t.Errorf("compose: g should return f's parameter %s, got %s in %s", b, got, fn)
	}
	if got := tupleElems(t, res.A, 1, "compose result's domain")[0].String(); got != a {
		t.Errorf("compose: the result should accept g's parameter %s, got %s in %s", a, got, fn)
	}
	if got := res.B.String(); got != c {
		t.Errorf("compose: the result should return f's result %s, got %s in %s", c, got, fn)
	}

	flipT, err := final.Typeof("flip")
	if err != nil {
		t.Fatalf("Typeof(flip): %v", err)
	}
	ffn := asFun(t, final.Under(flipT), "flip")
	arg := asFun(t, tupleElems(t, ffn.A, 1, "flip's domain")[0], "flip's argument")
	bV := generalized(t, tupleElems(t, arg.A, 1, "flip argument's domain")[0], "flip argument's first parameter")
	inner := asFun(t, arg.B, "flip argument's result")
	aV := generalized(t, tupleElems(t, inner.A, 1, "flip argument's second domain")[0], "flip argument's second parameter")
	cV := generalized(t, inner.B, "flip argument's final result")
	if aV == bV || aV == cV || bV == cV {
		t.Errorf("flip's type parameters should be distinct, got %s", ffn)
	}
	fres := asFun(t, ffn.B, "flip's result")
	if got := tupleElems(t, fres.A, 1, "flip result's domain")[0].String(); got != aV {
		t.Errorf("flip: the result should take %s first, got %s in %s", aV, got, ffn)
	}
	fres2 := asFun(t, fres.B, "flip result's result")
	if got := tupleElems(t, fres2.A, 1, "flip result's second domain")[0].String(); got != bV {
		t.Errorf("flip: the result should take %s second, got %s in %s", bV, got, ffn)
	}
	if got := fres2.B.String(); got != cV {
		t.Errorf("flip: the result should return %s, got %s in %s", cV, got, ffn)
	}
}
