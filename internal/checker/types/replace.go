package types

import "fmt"

// IDSource is the monotonic fresh-id generator every Context in one
// checking session shares; it must produce strictly unique names for the
// lifetime of the session. It is a small struct rather than a
// package-level global so independent Checker sessions (e.g. concurrent
// test cases) never share counters.
type IDSource struct{ n int }

// NewIDSource creates a fresh, zeroed id source.
func NewIDSource() *IDSource { return &IDSource{} }

// Next returns a new, session-unique variable name.
func (s *IDSource) Next() string {
	s.n++
	return fmt.Sprintf("t%d", s.n)
}

// Fresh renames every free name in t that is *not* in fixed to a new id
// drawn from ids, skipping any id that already names something in t. This
// is the generalization step for let-bound functions.
func Fresh(fixed map[string]bool, t Type, ids *IDSource) Type {
	ren := map[string]string{}
	names := t.Names()
	for name := range names {
		if !fixed[name] {
			id := ids.Next()
			for names[id] {
				id = ids.Next()
			}
			ren[name] = id
		}
	}
	return t.Renamed(ren)
}

// Flipped converts every EVar/AEVar/BEVar name in t not in fixed to the
// corresponding universal marker: the un-instantiation of function
// bindings before storing them back in Γ.
//
// Because AExp/BExp don't carry a separate "universal arithmetic/boolean
// variable" constructor in this algebra (only plain AVar/BVar, which already
// mean "lambda/scheme bound"), flipping an AEVar/BEVar back to AVar/BVar is
// exactly the un-instantiation index terms need; flipping a TEVar produces
// a TUVar, the general-type equivalent.
func Flipped(fixed map[string]bool, t Type) Type {
	switch v := t.(type) {
	case TEVar:
		if fixed[v.Name] {
			return v
		}
		return TUVar{Name: v.Name}
	case AEVar:
		if fixed[v.Name] {
			return v
		}
		return AVar{Name: v.Name}
	case BEVar:
		if fixed[v.Name] {
			return v
		}
		return BVar{Name: v.Name}
	case Add:
		return Add{L: Flipped(fixed, v.L).(AExp), R: Flipped(fixed, v.R).(AExp)}
	case Mul:
		return Mul{L: Flipped(fixed, v.L).(AExp), R: Flipped(fixed, v.R).(AExp)}
	case Not:
		return Not{X: Flipped(fixed, v.X).(BExp)}
	case And:
		return And{L: Flipped(fixed, v.L).(BExp), R: Flipped(fixed, v.R).(BExp)}
	case Or:
		return Or{L: Flipped(fixed, v.L).(BExp), R: Flipped(fixed, v.R).(BExp)}
	case Eq:
		return Eq{L: Flipped(fixed, v.L).(AExp), R: Flipped(fixed, v.R).(AExp)}
	case Lt:
		return Lt{L: Flipped(fixed, v.L).(AExp), R: Flipped(fixed, v.R).(AExp)}
	case Gt:
		return Gt{L: Flipped(fixed, v.L).(AExp), R: Flipped(fixed, v.R).(AExp)}
	case Le:
		return Le{L: Flipped(fixed, v.L).(AExp), R: Flipped(fixed, v.R).(AExp)}
	case Ge:
		return Ge{L: Flipped(fixed, v.L).(AExp), R: Flipped(fixed, v.R).(AExp)}
	case TArray:
		return TArray{N: Flipped(fixed, v.N).(AExp)}
	case TTuple:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = Flipped(fixed, e)
		}
		return TTuple{Elems: elems}
	case TFun:
		return TFun{A: Flipped(fixed, v.A), B: Flipped(fixed, v.B)}
	default:
		return t
	}
}

// Instantiate renames every TUVar/AVar/BVar in t to a fresh
// EVar/AEVar/BEVar: prenex polymorphism on lookup. It is the inverse of
// Flipped.
func Instantiate(t Type, ids *IDSource) Type {
	names := t.Names()
	ren := map[string]string{}
	for n := range names {
		ren[n] = ids.Next()
	}
	return eapp(t.Renamed(ren))
}

// eapp replaces every AVar/BVar with the corresponding AEVar/BEVar of the
// same (already-renamed) name, distinguishing "type-level lambda bound"
// from "unification variable". TUVar becomes TEVar by the same rule.
func eapp(t Type) Type {
	switch v := t.(type) {
	case TUVar:
		return TEVar{Name: v.Name}
	case AVar:
		return AEVar{Name: v.Name}
	case BVar:
		return BEVar{Name: v.Name}
	case Add:
		return Add{L: eapp(v.L).(AExp), R: eapp(v.R).(AExp)}
	case Mul:
		return Mul{L: eapp(v.L).(AExp), R: eapp(v.R).(AExp)}
	case Not:
		return Not{X: eapp(v.X).(BExp)}
	case And:
		return And{L: eapp(v.L).(BExp), R: eapp(v.R).(BExp)}
	case Or:
		return Or{L: eapp(v.L).(BExp), R: eapp(v.R).(BExp)}
	case Eq:
		return Eq{L: eapp(v.L).(AExp), R: eapp(v.R).(AExp)}
	case Lt:
		return Lt{L: eapp(v.L).(AExp), R: eapp(v.R).(AExp)}
	case Gt:
		return Gt{L: eapp(v.L).(AExp), R: eapp(v.R).(AExp)}
	case Le:
		return Le{L: eapp(v.L).(AExp), R: eapp(v.R).(AExp)}
	case Ge:
		return Ge{L: eapp(v.L).(AExp), R: eapp(v.R).(AExp)}
	case TArray:
		return TArray{N: eapp(v.N).(AExp)}
	case TTuple:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = eapp(e)
		}
		return TTuple{Elems: elems}
	case TFun:
		return TFun{A: eapp(v.A), B: eapp(v.B)}
	default:
		return t
	}
}

// Eapp is the exported form of eapp, the step Instantiate applies after
// its renaming pass; it turns a scheme's markers into unification
// variables without renaming them.
func Eapp(t Type) Type { return eapp(t) }
