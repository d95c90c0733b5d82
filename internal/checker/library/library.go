// Package library implements the rule-bundle mechanism: bundles of library
// call-shaped rules (`np.zeros(n)`, `add_row(a)`, ...) are described
// declaratively (a call pattern, a type assumption per captured argument,
// and a return-type template) and compiled into ordinary rules.Rule
// values that slot into the same engine as the core grammar's rules.
package library

import (
	"embed"
	"fmt"
	"sort"

	"github.com/johnli0135/numpy-types/internal/ast"
	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/pattern"
	"github.com/johnli0135/numpy-types/internal/checker/rules"
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/parser"
	"gopkg.in/yaml.v3"
)

//go:embed bundles/*.yaml
var bundleFS embed.FS

// RuleSpec is one library rule: a call-shaped pattern, a type assumption for
// each captured argument, and a return-type template. Assumption and return
// strings use the same surface annotation syntax as source-level type
// annotations (`array[a + 1]`, `bool`, `int`); a bare `int`/`bool`
// assumption binds the captured argument's own name as an index variable,
// the same convention `types.FromParam` uses for function parameters, so
// `array[a]` elsewhere in the same rule can refer to it by name.
type RuleSpec struct {
	Name        string            `yaml:"name"`
	Pattern     string            `yaml:"pattern"`
	Assumptions map[string]string `yaml:"assumptions"`
	Return      string            `yaml:"return"`
}

// Bundle is a named collection of library rules loaded from a manifest.
type Bundle struct {
	Name  string     `yaml:"name"`
	Rules []RuleSpec `yaml:"rules"`
}

// LoadBundle parses a YAML rule-bundle manifest; bundles are authored
// data, not Go code.
func LoadBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing bundle: %w", err)
	}
	return &b, nil
}

// Compile turns every RuleSpec in the bundle into a rules.Rule.
func (b *Bundle) Compile() ([]rules.Rule, error) {
	out := make([]rules.Rule, 0, len(b.Rules))
	for _, rs := range b.Rules {
		r, err := Expression(rs.Pattern, rs.Assumptions, rs.Return, rs.Name)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: rule %s: %w", b.Name, rs.Name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseTemplateType(bindName, src string) (types.Type, error) {
	e, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("parsing type template %q: %w", src, err)
	}
	if n, ok := e.(*ast.Name); ok && bindName != "" {
		switch n.Value {
		case "bool":
			return types.BVar{Name: bindName}, nil
		case "int":
			return types.AVar{Name: bindName}, nil
		}
	}
	return types.FromAST(e)
}

func unionNames(dst map[string]bool, t types.Type) {
	for n := range t.Names() {
		dst[n] = true
	}
}

// Expression builds a library rule for a call-shaped pattern: match the
// pattern, analyze each captured argument in turn (fanning out over every
// outcome, in sorted order of capture name),
// unify each argument's inferred type against the rule's stated assumption,
// and return the rule's declared return-type template. Every use of the rule
// gets a fresh renaming of the names appearing in its assumptions and return
// type, so two calls to the same library function don't constrain each
// other's shape variables.
func Expression(patSrc string, assumptions map[string]string, retSrc string, name string) (rules.Rule, error) {
	pat, err := pattern.ParseExpr(patSrc)
	if err != nil {
		return rules.Rule{}, err
	}

	argOrder := make([]string, 0, len(assumptions))
	for a := range assumptions {
		argOrder = append(argOrder, a)
	}
	sort.Strings(argOrder)

	assumpTypes := map[string]types.Type{}
	allNames := map[string]bool{}
	for _, a := range argOrder {
		t, err := parseTemplateType(a, assumptions[a])
		if err != nil {
			return rules.Rule{}, fmt.Errorf("assumption %s: %w", a, err)
		}
		assumpTypes[a] = t
		unionNames(allNames, t)
	}
	retType, err := parseTemplateType("", retSrc)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("return type: %w", err)
	}
	unionNames(allNames, retType)

	action := func(ck *rules.Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]rules.Outcome, error) {
		renaming := map[string]string{}
		for n := range allNames {
			renaming[n] = fmt.Sprintf("%s$%s", n, ck.IDs.Next())
		}
		instantiate := func(t types.Type) types.Type { return t.Renamed(renaming) }

		var recur func(i int, ctx *context.Context) ([]rules.Outcome, error)
		recur = func(i int, ctx *context.Context) ([]rules.Outcome, error) {
			if i == len(argOrder) {
				return []rules.Outcome{{Ctx: ctx, Result: instantiate(retType)}}, nil
			}
			argName := argOrder[i]
			capVal, ok := caps[argName]
			if !ok {
				return nil, fmt.Errorf("rule %s: capture %q not present in match", name, argName)
			}
			argNode, ok := capVal.(ast.Node)
			if !ok {
				return nil, fmt.Errorf("rule %s: capture %q is not a single node", name, argName)
			}
			outs, err := rules.Analyze(ck, []*context.Context{ctx}, argNode)
			if err != nil {
				return nil, err
			}
			var out []rules.Outcome
			for _, o := range outs {
				inferred := o.Ctx.Under(o.Result)
				want := instantiate(assumpTypes[argName])
				if err := o.Ctx.Unify(inferred, want); err != nil {
					return nil, err
				}
				rest, err := recur(i+1, o.Ctx)
				if err != nil {
					return nil, err
				}
				out = append(out, rest...)
			}
			return out, nil
		}
		return recur(0, ctx)
	}

	return rules.Rule{Name: name, Pattern: pat, Action: action}, nil
}

// ImportRule builds a rule that recognizes `import <path> as <alias>` and
// extends Γ with a set of bindings. Bindings are stored as-is, with no
// separate generalization pass: a binding written with AVar/BVar (rather
// than AEVar/BEVar) is already a scheme variable by construction, the same
// convention types.FromParam uses, and Context.Instantiate renames
// AVar/BVar at every function lookup, so each call site of `np.ones`
// still gets an independently fresh shape variable. Bindings are plain
// types.Type values rather than annotation-syntax strings, since function
// types (`np.ones : Fun(Tuple(int), array[a])`) aren't expressible in the
// source-level annotation grammar types.FromAST parses.
func ImportRule(path, alias string, bindings map[string]types.Type, name string) rules.Rule {
	pat := importMatcher{path: path, alias: alias}
	action := func(ck *rules.Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]rules.Outcome, error) {
		c := ctx.Copy()
		names := make([]string, 0, len(bindings))
		for n := range bindings {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			c.Annotate(n, bindings[n], false)
		}
		return []rules.Outcome{{Ctx: c, Result: types.TNone{}}}, nil
	}
	return rules.Rule{Name: name, Pattern: pat, Action: action}
}

type importMatcher struct{ path, alias string }

func (m importMatcher) Matches(n ast.Node) (pattern.Captures, bool) {
	imp, ok := n.(*ast.Import)
	if !ok || imp.Path != m.path || imp.Alias != m.alias {
		return nil, false
	}
	return pattern.Captures{}, true
}

// NumpyBundle loads the demo library bundle used in examples and tests
// from its embedded YAML manifest (bundles/numpy.yaml): arr_zeros,
// add_row, smush.
func NumpyBundle() (*Bundle, error) {
	data, err := bundleFS.ReadFile("bundles/numpy.yaml")
	if err != nil {
		return nil, err
	}
	return LoadBundle(data)
}

// EmbeddedBundleNames lists the bundle manifests shipped with the binary.
func EmbeddedBundleNames() ([]string, error) {
	entries, err := bundleFS.ReadDir("bundles")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// NumpyImportRule builds the `import numpy as np` rule that binds
// `np.ones` to `Fun(Tuple(int), array[a])`, kept separate from
// NumpyBundle since it extends Γ rather than typing a call expression.
// The domain is a one-tuple because call sites always unify the full
// argument tuple against a function's domain.
func NumpyImportRule() rules.Rule {
	a := types.AVar{Name: "a"}
	onesType := types.TFun{
		A: types.TTuple{Elems: []types.Type{a}},
		B: types.TArray{N: a},
	}
	return ImportRule("numpy", "np", map[string]types.Type{"np.ones": onesType}, "import_numpy")
}
