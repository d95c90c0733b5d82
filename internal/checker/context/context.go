// Package context implements the typing environment Γ: a variable→type
// binding table layered on top of a Substitution, a set of fixed
// (non-generalizable) names, and an ordered list of boolean assumptions.
// Unify/Under are delegated to the subst package, which owns the
// substitution internals they need.
package context

import (
	"fmt"
	"sort"

	"github.com/johnli0135/numpy-types/internal/checker/subst"
	"github.com/johnli0135/numpy-types/internal/checker/types"
)

// UnboundError reports a lookup of a name Γ has never seen.
type UnboundError struct{ Name string }

func (e *UnboundError) Error() string { return fmt.Sprintf("unbound identifier %q", e.Name) }

// Context is Γ: substitution, bindings, fixed names, and assumptions.
type Context struct {
	Sigma       *subst.Substitution
	bindings    map[string]types.Type
	fixed       map[string]bool
	assumptions []types.BExp
	ids         *types.IDSource
}

// compareByKind orders candidates for the union-find representative, most
// concrete first: ground terms, then structured terms with free names,
// then index-algebra variables, then the opaque bool/int markers, then
// general-type variables. Keeping the most specific term as representative
// means Under only ever refines a slot, never widens an arithmetic or
// boolean position into something outside its algebra. Between two
// variables the lexicographically smaller name wins so ties stay
// deterministic; equal-rank concrete terms are incomparable and fall to
// Substitution's residual-equality handling. It is a partial order, as
// Substitution requires.
func compareByKind(a, b types.Type) bool {
	ra, rb := repRank(a), repRank(b)
	if ra != rb {
		return ra < rb
	}
	if isVariable(a) && isVariable(b) {
		return a.String() < b.String()
	}
	return false
}

func repRank(t types.Type) int {
	switch t.(type) {
	case types.TEVar, types.TUVar:
		return 4
	case types.TBool, types.TInt:
		return 3
	case types.AEVar, types.BEVar:
		return 2
	}
	if len(t.Names()) == 0 {
		return 0
	}
	return 1
}

func isVariable(t types.Type) bool {
	switch t.(type) {
	case types.TEVar, types.TUVar, types.AEVar, types.BEVar:
		return true
	}
	return false
}

// New creates an empty Context sharing the given fresh-id source. Every
// Context in one checking session must share one source.
func New(ids *types.IDSource) *Context {
	return &Context{
		Sigma:    subst.New(compareByKind),
		bindings: map[string]types.Type{},
		fixed:    map[string]bool{},
		ids:      ids,
	}
}

// Copy deep-clones Γ so branch arms evolve independently; every branch
// point clones before refining.
func (c *Context) Copy() *Context {
	out := &Context{
		Sigma:       c.Sigma.Copy(),
		bindings:    make(map[string]types.Type, len(c.bindings)),
		fixed:       make(map[string]bool, len(c.fixed)),
		assumptions: append([]types.BExp{}, c.assumptions...),
		ids:         c.ids,
	}
	for k, v := range c.bindings {
		out.bindings[k] = v
	}
	for k := range c.fixed {
		out.fixed[k] = true
	}
	return out
}

// Annotate stores name → t, replacing any existing binding. If fixed, t's
// free names are protected from generalization. Annotate never unifies an
// existing binding against t itself; whether rebinding an already-typed
// name should unify with, or just replace, its old type is a decision the
// assignment rule makes explicitly (the "refinement assignment" case: a
// same-kind index-expression rebind intentionally skips unification so
// `n = n + 1` doesn't force the old and new value equal).
func (c *Context) Annotate(name string, t types.Type, fixed bool) {
	if fixed {
		for n := range t.Names() {
			c.fixed[n] = true
		}
	}
	c.bindings[name] = t
}

// Typeof looks up name, returning *UnboundError if Γ has never annotated it.
func (c *Context) Typeof(name string) (types.Type, error) {
	t, ok := c.bindings[name]
	if !ok {
		return nil, &UnboundError{Name: name}
	}
	return t, nil
}

// Contains reports whether name is bound.
func (c *Context) Contains(name string) bool {
	_, ok := c.bindings[name]
	return ok
}

// Unify delegates to the type-layer unify using Γ's own substitution.
func (c *Context) Unify(t1, t2 types.Type) error {
	return subst.Unify(c.Sigma, t1, t2)
}

// Under applies Γ's substitution to t.
func (c *Context) Under(t types.Type) types.Type {
	return subst.Under(c.Sigma, t)
}

// Assume appends b as a boolean conjunct. Assumptions only ever grow: a
// new refinement adds to the list, it never rewrites it.
func (c *Context) Assume(b types.BExp) {
	c.assumptions = append(c.assumptions, b)
}

// Assumptions returns the ordered list of boolean conjuncts Γ has
// accumulated.
func (c *Context) Assumptions() []types.BExp {
	return append([]types.BExp{}, c.assumptions...)
}

// Fix adds names to the fixed set directly, for callers (e.g. function-def
// analysis) that need to protect names without going through Annotate.
func (c *Context) Fix(names map[string]bool) {
	for n := range names {
		c.fixed[n] = true
	}
}

// Fixed returns a copy of Γ's fixed-name set.
func (c *Context) Fixed() map[string]bool {
	out := make(map[string]bool, len(c.fixed))
	for n := range c.fixed {
		out[n] = true
	}
	return out
}

// Instantiate replaces every TUVar/AVar/BVar in t with a session-fresh
// TEVar/AEVar/BEVar: prenex polymorphism on lookup.
func (c *Context) Instantiate(t types.Type) types.Type {
	return types.Instantiate(t, c.ids)
}

// Fresh generalizes t by renaming every free name not in Γ.fixed to a new
// id, the let-generalization step used when storing a function's outer
// binding.
func (c *Context) Fresh(t types.Type) types.Type {
	return types.Fresh(c.fixed, t, c.ids)
}

// Reduced produces a view of Γ's bindings with Under applied to every
// entry; the rule evaluator builds its memo key from it.
func (c *Context) Reduced() map[string]types.Type {
	out := make(map[string]types.Type, len(c.bindings))
	for k, v := range c.bindings {
		out[k] = c.Under(v)
	}
	return out
}

// Names returns the bound variable names in sorted order, for deterministic
// iteration by callers (the rule evaluator's memo key).
func (c *Context) Names() []string {
	out := make([]string, 0, len(c.bindings))
	for n := range c.bindings {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// IDs exposes the shared fresh-id source, for rule actions that need to mint
// their own fresh variables (e.g. a lambda's per-argument EVars).
func (c *Context) IDs() *types.IDSource {
	return c.ids
}
