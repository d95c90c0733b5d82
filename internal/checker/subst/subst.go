// Package subst implements the union-find substitution σ: a
// partial-order-biased union-find over type-level terms, plus a residual
// set of equality constraints for pairs that weren't comparable at union
// time.
package subst

import (
	"sort"

	"github.com/johnli0135/numpy-types/internal/checker/types"
)

// Compare reports whether a is preferred as the union-find representative
// over b. Items must form a partial order under compare; the caller only
// asks it to compare items of like kind.
type Compare func(a, b types.Type) bool

type equality struct{ L, R types.Type }

// Substitution is a union-find over types.Type values, keyed by their
// canonical String() form so arbitrary structural terms (not just bare
// variable names) can be union-find items.
type Substitution struct {
	compare Compare
	parent  map[string]types.Type
	// keyTerms remembers the structural term behind each parent key
	// string; EVars()/UVars() need to walk the actual term, not its
	// rendering.
	keyTerms   map[string]types.Type
	bias       bool
	equalities []equality
}

// New creates an empty Substitution with the given representative-preference
// ordering.
func New(compare Compare) *Substitution {
	return &Substitution{compare: compare, parent: map[string]types.Type{}, keyTerms: map[string]types.Type{}, bias: true}
}

// Copy deep-clones the substitution so branch arms never share mutable
// union-find state. Union mutates in place; cloning is O(|map|).
func (s *Substitution) Copy() *Substitution {
	out := &Substitution{
		compare:    s.compare,
		parent:     make(map[string]types.Type, len(s.parent)),
		keyTerms:   make(map[string]types.Type, len(s.keyTerms)),
		bias:       s.bias,
		equalities: make([]equality, len(s.equalities)),
	}
	for k, v := range s.parent {
		out.parent[k] = v
	}
	for k, v := range s.keyTerms {
		out.keyTerms[k] = v
	}
	copy(out.equalities, s.equalities)
	return out
}

func (s *Substitution) setParent(key types.Type, val types.Type) {
	s.parent[key.String()] = val
	s.keyTerms[key.String()] = key
}

// Find walks a's parent chain to its representative, path-compressing along
// the way.
func (s *Substitution) Find(a types.Type) types.Type {
	var traversed []string
	cur := a
	for {
		key := cur.String()
		next, ok := s.parent[key]
		if !ok {
			break
		}
		traversed = append(traversed, key)
		cur = next
	}
	for _, k := range traversed {
		s.parent[k] = cur
	}
	return cur
}

// Union merges the equivalence classes of a and b:
//  1. flip bias, resolve both to their current representative;
//  2. if one side's representative is preferred, point the other at it;
//  3. otherwise they're incomparable: break the tie with the current bias
//     (so repeated incomparable unions alternate which side wins) and record
//     the pair as a residual equality.
func (s *Substitution) Union(a, b types.Type) {
	s.bias = !s.bias
	a = s.Find(a)
	b = s.Find(b)
	if a.String() == b.String() {
		return
	}
	switch {
	case s.compare(a, b):
		s.setParent(b, a)
	case s.compare(b, a):
		s.setParent(a, b)
	default:
		if s.bias {
			s.setParent(a, b)
		} else {
			s.setParent(b, a)
		}
		s.equalities = append(s.equalities, equality{L: a, R: b})
	}
}

// Gen rebuilds the substitution with every key and value renamed through
// ren, preserving residual equalities symmetrically. Generalization at the
// Context layer renames Types directly via types.Fresh; Gen keeps a
// Substitution consistent when it is carried across a renaming boundary on
// its own.
func (s *Substitution) Gen(ren map[string]string) *Substitution {
	out := New(s.compare)
	out.bias = s.bias
	for keyStr, keyTerm := range s.keyTerms {
		val := s.parent[keyStr]
		out.setParent(keyTerm.Renamed(ren), val.Renamed(ren))
	}
	for _, eq := range s.equalities {
		out.equalities = append(out.equalities, equality{L: eq.L.Renamed(ren), R: eq.R.Renamed(ren)})
	}
	return out
}

// EVars returns every AEVar/BEVar/TEVar name mentioned in any key, value, or
// residual equality.
func (s *Substitution) EVars() map[string]bool {
	out := map[string]bool{}
	for _, t := range s.allTerms() {
		collectKindNames(t, out, nil)
	}
	return out
}

// UVars returns every TUVar name mentioned anywhere in the substitution.
func (s *Substitution) UVars() map[string]bool {
	out := map[string]bool{}
	for _, t := range s.allTerms() {
		collectKindNames(t, nil, out)
	}
	return out
}

func (s *Substitution) allTerms() []types.Type {
	var out []types.Type
	for _, v := range s.parent {
		out = append(out, v)
	}
	for _, k := range s.keyTerms {
		out = append(out, k)
	}
	for _, eq := range s.equalities {
		out = append(out, eq.L, eq.R)
	}
	return out
}

// collectKindNames walks t, adding every AEVar/BEVar/TEVar name to evars
// (if non-nil) and every TUVar name to uvars (if non-nil).
func collectKindNames(t types.Type, evars, uvars map[string]bool) {
	switch v := t.(type) {
	case types.AEVar:
		if evars != nil {
			evars[v.Name] = true
		}
	case types.BEVar:
		if evars != nil {
			evars[v.Name] = true
		}
	case types.TEVar:
		if evars != nil {
			evars[v.Name] = true
		}
	case types.TUVar:
		if uvars != nil {
			uvars[v.Name] = true
		}
	case types.Add:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.Mul:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.Not:
		collectKindNames(v.X, evars, uvars)
	case types.And:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.Or:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.Eq:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.Lt:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.Gt:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.Le:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.Ge:
		collectKindNames(v.L, evars, uvars)
		collectKindNames(v.R, evars, uvars)
	case types.TArray:
		collectKindNames(v.N, evars, uvars)
	case types.TTuple:
		for _, e := range v.Elems {
			collectKindNames(e, evars, uvars)
		}
	case types.TFun:
		collectKindNames(v.A, evars, uvars)
		collectKindNames(v.B, evars, uvars)
	}
}

// FreeVars returns the names mentioned in every residual equality.
func (s *Substitution) FreeVars() map[string]bool {
	out := map[string]bool{}
	for _, eq := range s.equalities {
		for n := range eq.L.Names() {
			out[n] = true
		}
		for n := range eq.R.Names() {
			out[n] = true
		}
	}
	return out
}

// AllNames returns every variable name touched anywhere by the
// substitution: every key term, every value, and every residual equality
// side.
func (s *Substitution) AllNames() map[string]bool {
	out := map[string]bool{}
	for keyStr, keyTerm := range s.keyTerms {
		for n := range keyTerm.Names() {
			out[n] = true
		}
		for n := range s.parent[keyStr].Names() {
			out[n] = true
		}
	}
	for _, eq := range s.equalities {
		for n := range eq.L.Names() {
			out[n] = true
		}
		for n := range eq.R.Names() {
			out[n] = true
		}
	}
	return out
}

// Entries returns (key, representative) pairs sorted by key, for
// deterministic iteration by callers building SMT formulas or debug output.
func (s *Substitution) Entries() []struct {
	Key string
	Val types.Type
} {
	keys := make([]string, 0, len(s.parent))
	for k := range s.parent {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]struct {
		Key string
		Val types.Type
	}, len(keys))
	for i, k := range keys {
		out[i] = struct {
			Key string
			Val types.Type
		}{Key: k, Val: s.parent[k]}
	}
	return out
}

// Equalities returns the residual equality pairs.
func (s *Substitution) Equalities() []struct{ L, R types.Type } {
	out := make([]struct{ L, R types.Type }, len(s.equalities))
	for i, eq := range s.equalities {
		out[i] = struct{ L, R types.Type }{L: eq.L, R: eq.R}
	}
	return out
}
