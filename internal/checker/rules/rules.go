// Package rules implements the rule-driven analysis engine: a
// pattern-matched, non-deterministic Analyze that threads a Γ-set through
// an AST and returns every outcome a matching rule could produce, plus the
// default rule set for the core grammar.
//
// Non-determinism is always a list of outcomes, never concurrency:
// statement threading (AnalyzeBody), branch fan-out (cond, cond_expr) and
// argument fan-out (fun_call) are ordinary loops over the []Outcome an
// Analyze call returns, so branches stay isolated and memoization stays
// trivial.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnli0135/numpy-types/internal/ast"
	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/pattern"
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/checker/verifier"
)

// Outcome is one (Γ, type) pair a rule action produced.
type Outcome struct {
	Ctx    *context.Context
	Result types.Type
}

// ValueError reports a node that matched a rule's pattern but failed the
// rule's own semantic precondition (e.g. an `if` or `assert` condition that
// is not boolean-valued).
type ValueError struct{ Msg string }

func (e *ValueError) Error() string { return e.Msg }

// ConfusionError reports a node with no applicable rule at all.
type ConfusionError struct{ Node ast.Node }

func (e *ConfusionError) Error() string {
	return fmt.Sprintf("no rule matches a %s node", e.Node.Kind())
}

// RuleFailure records one rule that matched but whose action raised an
// error for a particular Γ.
type RuleFailure struct {
	RuleName string
	Err      error
}

// CheckError reports that every rule matching a node failed for the Γ(s) it
// was tried against, carrying each rule's own failure rather than just the
// first.
type CheckError struct {
	Node     ast.Node
	Failures []RuleFailure
}

func (e *CheckError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no rule accepted this %s:", e.Node.Kind())
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %s", f.RuleName, f.Err)
	}
	return b.String()
}

// Action is a rule's behavior: given the Checker (for recursive Analyze
// calls and the shared id source), one Γ, the pattern's captures, and the
// node itself, produce every outcome this rule licenses.
type Action func(ck *Checker, ctx *context.Context, caps pattern.Captures, node ast.Node) ([]Outcome, error)

// Rule pairs a Matcher with the Action to run when it matches.
type Rule struct {
	Name    string
	Pattern pattern.Matcher
	Action  Action
}

type ruleMatch struct {
	Rule Rule
	Caps pattern.Captures
}

// Checker drives Analyze over a rule set, with memoization and optional
// careful (per-statement) verification.
type Checker struct {
	IDs        *types.IDSource
	Rules      []Rule
	ReturnType types.Type
	Careful    bool
	Oracle     verifier.Oracle

	memo      map[string][]Outcome
	memoErr   map[string]error
	matchMemo map[string][]ruleMatch
}

// NewChecker builds a Checker over rs, sharing ids across every Context it
// will analyze: one id source per checking session.
func NewChecker(ids *types.IDSource, rs []Rule, oracle verifier.Oracle) *Checker {
	return &Checker{
		IDs:       ids,
		Rules:     rs,
		Oracle:    oracle,
		memo:      map[string][]Outcome{},
		memoErr:   map[string]error{},
		matchMemo: map[string][]ruleMatch{},
	}
}

func (ck *Checker) resetMemo() {
	ck.memo = map[string][]Outcome{}
	ck.memoErr = map[string]error{}
	// matchMemo is deliberately kept: which rules match a given AST shape
	// never changes when Careful flips on, only what their actions do with
	// a particular Γ.
}

func (ck *Checker) matchRules(node ast.Node) []ruleMatch {
	key := pattern.Simplify(node)
	if m, ok := ck.matchMemo[key]; ok {
		return m
	}
	var out []ruleMatch
	for _, r := range ck.Rules {
		if caps, ok := r.Pattern.Matches(node); ok {
			out = append(out, ruleMatch{Rule: r, Caps: caps})
		}
	}
	ck.matchMemo[key] = out
	return out
}

func nodeIdentity(node ast.Node) string {
	return fmt.Sprintf("%p:%s", node, node.Kind())
}

func ctxKey(c *context.Context) string {
	var b strings.Builder
	b.WriteString("{")
	reduced := c.Reduced()
	for _, n := range c.Names() {
		b.WriteString(n)
		b.WriteString(":")
		b.WriteString(reduced[n].String())
		b.WriteString(";")
	}
	b.WriteString("|")
	for _, a := range c.Assumptions() {
		b.WriteString(a.String())
		b.WriteString(";")
	}
	b.WriteString("|")
	fixed := c.Fixed()
	names := make([]string, 0, len(fixed))
	for n := range fixed {
		names = append(names, n)
	}
	sort.Strings(names)
	b.WriteString(strings.Join(names, ","))
	b.WriteString("}")
	return b.String()
}

func ctxsKey(ctxs []*context.Context) string {
	parts := make([]string, len(ctxs))
	for i, c := range ctxs {
		parts[i] = ctxKey(c)
	}
	return strings.Join(parts, "&")
}

// Analyze memoizes on (ast identity, Γ-set), dispatches to every rule whose
// pattern matches ast, and collects every outcome across every Γ in ctxs.
//
// Known quirk, kept for compatibility: the "no rule produced any outcome"
// check tests the globally accumulated options list, not a per-Γ one, and
// it only runs once, right after the very first Γ is processed. If ctxs[0]
// alone produces at least one outcome, a later Γ that produces none is
// silently tolerated: its failed rule attempts just don't contribute
// anything, no error is raised. A per-Γ check would change which programs
// are accepted.
func Analyze(ck *Checker, ctxs []*context.Context, node ast.Node) ([]Outcome, error) {
	key := nodeIdentity(node) + "@" + ctxsKey(ctxs)
	if outs, ok := ck.memo[key]; ok {
		return outs, nil
	}
	if err, ok := ck.memoErr[key]; ok {
		return nil, err
	}

	matches := ck.matchRules(node)
	if len(matches) == 0 {
		err := &ConfusionError{Node: node}
		ck.memoErr[key] = err
		return nil, err
	}

	var options []Outcome
	var failures []RuleFailure
	for i, ctx := range ctxs {
		for _, m := range matches {
			outs, err := m.Rule.Action(ck, ctx, m.Caps, node)
			if err != nil {
				failures = append(failures, RuleFailure{RuleName: m.Rule.Name, Err: err})
				continue
			}
			options = append(options, outs...)
		}
		if i == 0 && len(options) == 0 {
			err := &CheckError{Node: node, Failures: failures}
			ck.memoErr[key] = err
			return nil, err
		}
	}

	ck.memo[key] = options
	return options, nil
}

// AnalyzeBody threads a Γ-set through a statement list in order,
// re-verifying after every statement when Careful is set so a verification
// failure can be pinned to the statement that introduced it.
func AnalyzeBody(ck *Checker, ctxs []*context.Context, stmts []ast.Statement) ([]Outcome, error) {
	cur := ctxs
	for _, stmt := range stmts {
		outs, err := Analyze(ck, cur, stmt)
		if err != nil {
			return nil, err
		}
		next := make([]*context.Context, 0, len(outs))
		for _, o := range outs {
			next = append(next, o.Ctx)
		}
		if ck.Careful {
			if err := verifier.Verify(next, ck.Oracle); err != nil {
				return nil, err
			}
		}
		cur = next
	}
	out := make([]Outcome, 0, len(cur))
	for _, c := range cur {
		out = append(out, Outcome{Ctx: c, Result: types.TNone{}})
	}
	return out, nil
}

// hasUnsat reports whether err is, or aggregates, an unsatisfiable-constraint
// failure. Verification can fail deep inside rule dispatch (a function def
// verifies its own body), so the careful-mode retry has to look through
// CheckError nesting, not just at the top-level Verify call.
func hasUnsat(err error) bool {
	switch e := err.(type) {
	case *verifier.UnsatisfiableError:
		return true
	case *CheckError:
		for _, f := range e.Failures {
			if hasUnsat(f.Err) {
				return true
			}
		}
	}
	return false
}

// Check is the top-level driver: analyze node from a fresh Γ, then verify
// the resulting Γ-set. A failed verification is retried exactly once
// with Careful turned on, which re-verifies after every statement instead
// of only at the end: same accept/reject outcome, but the error (if any)
// now names the statement that actually broke the constraint instead of
// the whole program.
func (ck *Checker) Check(node ast.Node) (types.Type, error) {
	ctx := context.New(ck.IDs)
	outs, err := Analyze(ck, []*context.Context{ctx}, node)
	if err != nil {
		if hasUnsat(err) && !ck.Careful {
			ck.Careful = true
			ck.resetMemo()
			return ck.Check(node)
		}
		return nil, err
	}
	ctxs := make([]*context.Context, 0, len(outs))
	for _, o := range outs {
		ctxs = append(ctxs, o.Ctx)
	}
	if err := verifier.Verify(ctxs, ck.Oracle); err != nil {
		if !ck.Careful {
			ck.Careful = true
			ck.resetMemo()
			return ck.Check(node)
		}
		return nil, err
	}
	if len(outs) == 0 {
		return types.TNone{}, nil
	}
	return outs[0].Result, nil
}
