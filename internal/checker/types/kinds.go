// Package types implements the type algebra: arithmetic and boolean
// index terms, and the small set of structural types built from them.
// AExp and BExp values can stand directly as Types (the `array[n+1]`
// encoding needs an index expression to *be* a type), so every concrete
// node below implements the single Type interface.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the interface implemented by every node of the type algebra:
// TNone, TBool, TInt, TArray, TTuple, TFun, TEVar, TUVar, and every AExp/BExp.
type Type interface {
	String() string
	// Names returns the set of free variable names mentioned anywhere in
	// this type (AVar/AEVar/BVar/BEVar/TEVar/TUVar names).
	Names() map[string]bool
	// Renamed returns a structural copy with every variable name rewritten
	// through m (names absent from m are left untouched).
	Renamed(m map[string]string) Type
}

// AExp is an arithmetic index term.
type AExp interface {
	Type
	isAExp()
}

// BExp is a boolean index term.
type BExp interface {
	Type
	isBExp()
}

func names1(n string) map[string]bool { return map[string]bool{n: true} }

func union(ms ...map[string]bool) map[string]bool {
	out := map[string]bool{}
	for _, m := range ms {
		for k := range m {
			out[k] = true
		}
	}
	return out
}

func renameName(m map[string]string, n string) string {
	if v, ok := m[n]; ok {
		return v
	}
	return n
}

// ---------------- arithmetic index terms ----------------

// ALit is an integer literal index term.
type ALit struct{ N int }

func (a ALit) String() string                        { return fmt.Sprintf("%d", a.N) }
func (a ALit) Names() map[string]bool                { return map[string]bool{} }
func (a ALit) Renamed(map[string]string) Type        { return a }
func (ALit) isAExp()                                  {}

// AVar is a type-level-lambda-bound arithmetic variable (e.g. the `a` in
// `array[a]` introduced by a function parameter).
type AVar struct{ Name string }

func (a AVar) String() string                 { return a.Name }
func (a AVar) Names() map[string]bool         { return names1(a.Name) }
func (a AVar) Renamed(m map[string]string) Type { return AVar{Name: renameName(m, a.Name)} }
func (AVar) isAExp()                          {}

// AEVar is an arithmetic unification (existential) variable, introduced by
// `eapp` when instantiating a scheme.
type AEVar struct{ Name string }

func (a AEVar) String() string                 { return "?" + a.Name }
func (a AEVar) Names() map[string]bool         { return names1(a.Name) }
func (a AEVar) Renamed(m map[string]string) Type { return AEVar{Name: renameName(m, a.Name)} }
func (AEVar) isAExp()                          {}

// Add is `l + r`.
type Add struct{ L, R AExp }

func (a Add) String() string         { return fmt.Sprintf("(%s + %s)", a.L, a.R) }
func (a Add) Names() map[string]bool { return union(a.L.Names(), a.R.Names()) }
func (a Add) Renamed(m map[string]string) Type {
	return Add{L: a.L.Renamed(m).(AExp), R: a.R.Renamed(m).(AExp)}
}
func (Add) isAExp() {}

// Mul is `l * r`.
type Mul struct{ L, R AExp }

func (a Mul) String() string         { return fmt.Sprintf("(%s * %s)", a.L, a.R) }
func (a Mul) Names() map[string]bool { return union(a.L.Names(), a.R.Names()) }
func (a Mul) Renamed(m map[string]string) Type {
	return Mul{L: a.L.Renamed(m).(AExp), R: a.R.Renamed(m).(AExp)}
}
func (Mul) isAExp() {}

// ---------------- boolean index terms ----------------

// BLit is a boolean literal index term.
type BLit struct{ Value bool }

func (b BLit) String() string                 { return fmt.Sprintf("%v", b.Value) }
func (b BLit) Names() map[string]bool         { return map[string]bool{} }
func (b BLit) Renamed(map[string]string) Type { return b }
func (BLit) isBExp()                          {}

// BVar is a type-level-lambda-bound boolean variable.
type BVar struct{ Name string }

func (b BVar) String() string                 { return b.Name }
func (b BVar) Names() map[string]bool         { return names1(b.Name) }
func (b BVar) Renamed(m map[string]string) Type { return BVar{Name: renameName(m, b.Name)} }
func (BVar) isBExp()                          {}

// BEVar is a boolean unification (existential) variable.
type BEVar struct{ Name string }

func (b BEVar) String() string                 { return "?" + b.Name }
func (b BEVar) Names() map[string]bool         { return names1(b.Name) }
func (b BEVar) Renamed(m map[string]string) Type { return BEVar{Name: renameName(m, b.Name)} }
func (BEVar) isBExp()                          {}

// Not is `not x`.
type Not struct{ X BExp }

func (b Not) String() string                 { return fmt.Sprintf("(not %s)", b.X) }
func (b Not) Names() map[string]bool         { return b.X.Names() }
func (b Not) Renamed(m map[string]string) Type { return Not{X: b.X.Renamed(m).(BExp)} }
func (Not) isBExp()                          {}

// And is `l and r`.
type And struct{ L, R BExp }

func (b And) String() string         { return fmt.Sprintf("(%s and %s)", b.L, b.R) }
func (b And) Names() map[string]bool { return union(b.L.Names(), b.R.Names()) }
func (b And) Renamed(m map[string]string) Type {
	return And{L: b.L.Renamed(m).(BExp), R: b.R.Renamed(m).(BExp)}
}
func (And) isBExp() {}

// Or is `l or r`.
type Or struct{ L, R BExp }

func (b Or) String() string         { return fmt.Sprintf("(%s or %s)", b.L, b.R) }
func (b Or) Names() map[string]bool { return union(b.L.Names(), b.R.Names()) }
func (b Or) Renamed(m map[string]string) Type {
	return Or{L: b.L.Renamed(m).(BExp), R: b.R.Renamed(m).(BExp)}
}
func (Or) isBExp() {}

// comparison is the shared shape of ==, <, >, <=, >=.
type comparison struct {
	Op   string
	L, R AExp
}

func (c comparison) String() string         { return fmt.Sprintf("(%s %s %s)", c.L, c.Op, c.R) }
func (c comparison) Names() map[string]bool { return union(c.L.Names(), c.R.Names()) }

// Eq is `l == r` over AExp.
type Eq struct{ L, R AExp }

func (c Eq) String() string { return comparison{"==", c.L, c.R}.String() }
func (c Eq) Names() map[string]bool { return union(c.L.Names(), c.R.Names()) }
func (c Eq) Renamed(m map[string]string) Type {
	return Eq{L: c.L.Renamed(m).(AExp), R: c.R.Renamed(m).(AExp)}
}
func (Eq) isBExp() {}

// Lt is `l < r`.
type Lt struct{ L, R AExp }

func (c Lt) String() string         { return comparison{"<", c.L, c.R}.String() }
func (c Lt) Names() map[string]bool { return union(c.L.Names(), c.R.Names()) }
func (c Lt) Renamed(m map[string]string) Type {
	return Lt{L: c.L.Renamed(m).(AExp), R: c.R.Renamed(m).(AExp)}
}
func (Lt) isBExp() {}

// Gt is `l > r`.
type Gt struct{ L, R AExp }

func (c Gt) String() string         { return comparison{">", c.L, c.R}.String() }
func (c Gt) Names() map[string]bool { return union(c.L.Names(), c.R.Names()) }
func (c Gt) Renamed(m map[string]string) Type {
	return Gt{L: c.L.Renamed(m).(AExp), R: c.R.Renamed(m).(AExp)}
}
func (Gt) isBExp() {}

// Le is `l <= r`.
type Le struct{ L, R AExp }

func (c Le) String() string         { return comparison{"<=", c.L, c.R}.String() }
func (c Le) Names() map[string]bool { return union(c.L.Names(), c.R.Names()) }
func (c Le) Renamed(m map[string]string) Type {
	return Le{L: c.L.Renamed(m).(AExp), R: c.R.Renamed(m).(AExp)}
}
func (Le) isBExp() {}

// Ge is `l >= r`.
type Ge struct{ L, R AExp }

func (c Ge) String() string         { return comparison{">=", c.L, c.R}.String() }
func (c Ge) Names() map[string]bool { return union(c.L.Names(), c.R.Names()) }
func (c Ge) Renamed(m map[string]string) Type {
	return Ge{L: c.L.Renamed(m).(AExp), R: c.R.Renamed(m).(AExp)}
}
func (Ge) isBExp() {}

// ---------------- structural types ----------------

// TNone is the unit/none type (the type of statements).
type TNone struct{}

func (TNone) String() string                 { return "None" }
func (TNone) Names() map[string]bool         { return map[string]bool{} }
func (t TNone) Renamed(map[string]string) Type { return t }

// TBool is the opaque (unrefined) boolean type, written `bool` in
// annotations.
type TBool struct{}

func (TBool) String() string                 { return "bool" }
func (TBool) Names() map[string]bool         { return map[string]bool{} }
func (t TBool) Renamed(map[string]string) Type { return t }

// TInt is the opaque (unrefined) integer type, written `int` in
// annotations.
type TInt struct{}

func (TInt) String() string                 { return "int" }
func (TInt) Names() map[string]bool         { return map[string]bool{} }
func (t TInt) Renamed(map[string]string) Type { return t }

// TArray is `array[n]`, a numeric array whose shape is the index term N.
type TArray struct{ N AExp }

func (t TArray) String() string         { return fmt.Sprintf("array[%s]", t.N) }
func (t TArray) Names() map[string]bool { return t.N.Names() }
func (t TArray) Renamed(m map[string]string) Type {
	return TArray{N: t.N.Renamed(m).(AExp)}
}

// TTuple is a fixed-length heterogeneous tuple of types.
type TTuple struct{ Elems []Type }

func (t TTuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t TTuple) Names() map[string]bool {
	ms := make([]map[string]bool, len(t.Elems))
	for i, e := range t.Elems {
		ms[i] = e.Names()
	}
	return union(ms...)
}
func (t TTuple) Renamed(m map[string]string) Type {
	elems := make([]Type, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = e.Renamed(m)
	}
	return TTuple{Elems: elems}
}

// TFun is `A -> B`.
type TFun struct{ A, B Type }

func (t TFun) String() string         { return fmt.Sprintf("(%s -> %s)", t.A, t.B) }
func (t TFun) Names() map[string]bool { return union(t.A.Names(), t.B.Names()) }
func (t TFun) Renamed(m map[string]string) Type {
	return TFun{A: t.A.Renamed(m), B: t.B.Renamed(m)}
}

// TEVar is a general-type existential unification variable.
type TEVar struct{ Name string }

func (t TEVar) String() string                 { return "?" + t.Name }
func (t TEVar) Names() map[string]bool         { return names1(t.Name) }
func (t TEVar) Renamed(m map[string]string) Type { return TEVar{Name: renameName(m, t.Name)} }

// TUVar is a universally-quantified marker, used before a polymorphic
// binding is instantiated (see Instantiate/Flipped).
type TUVar struct{ Name string }

func (t TUVar) String() string                 { return "'" + t.Name }
func (t TUVar) Names() map[string]bool         { return names1(t.Name) }
func (t TUVar) Renamed(m map[string]string) Type { return TUVar{Name: renameName(m, t.Name)} }

// SortedNames returns the Names() of t as a sorted slice, for deterministic
// iteration (fresh-id assignment, to_smt emission, etc).
func SortedNames(t Type) []string {
	names := t.Names()
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
