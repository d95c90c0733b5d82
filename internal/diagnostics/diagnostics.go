// Package diagnostics turns the checker's internal error types into
// positioned, human-readable reports: one DiagnosticError per reported
// problem, collected into a slice and printed line by line rather than
// surfaced as a single opaque failure.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnli0135/numpy-types/internal/ast"
	"github.com/johnli0135/numpy-types/internal/checker/context"
	"github.com/johnli0135/numpy-types/internal/checker/rules"
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/checker/verifier"
)

// DiagnosticError pairs a single underlying failure with the source
// location it occurred at.
type DiagnosticError struct {
	Node     ast.Node
	Message  string
	Category string
}

func (e *DiagnosticError) Error() string {
	if e.Node == nil {
		return e.Message
	}
	t := e.Node.Tok()
	return fmt.Sprintf("line %d, col %d: %s", t.Line, t.Column, e.Message)
}

// leaf is one error path's terminal failure.
type leaf struct {
	node     ast.Node
	message  string
	category string
}

// Collect flattens whatever rules.Checker.Check returned into its leaf
// diagnostics: every rule-failure branch that bottoms out in a
// ConfusionError or a terminal ValueError/UnificationError becomes one
// DiagnosticError.
func Collect(err error) []*DiagnosticError {
	if err == nil {
		return nil
	}
	leaves := walk(err)
	out := make([]*DiagnosticError, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, &DiagnosticError{Node: l.node, Message: l.message, Category: l.category})
	}
	return out
}

func walk(err error) []leaf {
	switch e := err.(type) {
	case *rules.ConfusionError:
		return []leaf{{node: e.Node, message: "no applicable rule", category: "confusion"}}
	case *rules.CheckError:
		var out []leaf
		for _, f := range e.Failures {
			switch f.Err.(type) {
			case *rules.ConfusionError, *rules.CheckError:
				out = append(out, walk(f.Err)...)
			default:
				out = append(out, leaf{
					node:     e.Node,
					message:  fmt.Sprintf("%s: %s", f.RuleName, f.Err),
					category: classify(f.Err),
				})
			}
		}
		return out
	case *verifier.UnsatisfiableError:
		return []leaf{{message: e.Error(), category: "unsatisfiable"}}
	default:
		return []leaf{{message: e.Error(), category: classify(e)}}
	}
}

func classify(err error) string {
	if _, ok := err.(*verifier.UnsatisfiableError); ok {
		return "unsatisfiable"
	}
	if _, ok := err.(*context.UnboundError); ok {
		return "unbound"
	}
	if ue, ok := err.(*types.UnificationError); ok {
		return "unify:" + ue.Reason
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unbound identifier") {
		return "unbound"
	}
	return "value"
}

// Render produces the full report for a failed check: a single failing
// path is printed verbatim; more than one is summarized by category, then
// each distinct non-unification category is printed in full, with
// unification failures grouped and counted by reason.
func Render(err error, source string) string {
	if err == nil {
		return ""
	}
	ds := Collect(err)
	if len(ds) == 0 {
		return err.Error()
	}
	if len(ds) == 1 {
		return renderOne(ds[0], source)
	}

	byCategory := map[string][]*DiagnosticError{}
	for _, d := range ds {
		byCategory[d.Category] = append(byCategory[d.Category], d)
	}

	var summary strings.Builder
	for _, cat := range sortedKeys(byCategory) {
		group := byCategory[cat]
		fmt.Fprintf(&summary, "%d %s error(s)\n", len(group), describeCategory(cat))
	}

	var body strings.Builder
	body.WriteString(summary.String())
	for _, cat := range sortedKeys(byCategory) {
		if strings.HasPrefix(cat, "unify:") {
			continue
		}
		for _, d := range byCategory[cat] {
			body.WriteString("\n")
			body.WriteString(renderOne(d, source))
		}
	}
	return body.String()
}

func describeCategory(cat string) string {
	switch {
	case cat == "confusion":
		return "confusion"
	case cat == "unbound":
		return "unbound identifier"
	case cat == "unsatisfiable":
		return "unsatisfiable constraint"
	case strings.HasPrefix(cat, "unify:"):
		return "unification (" + strings.TrimPrefix(cat, "unify:") + ")"
	default:
		return "value"
	}
}

func sortedKeys(m map[string][]*DiagnosticError) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderOne(d *DiagnosticError, source string) string {
	if d.Node == nil {
		return d.Message
	}
	return fmt.Sprintf("%s\n%s", pointer(d.Node, source), d.Message)
}

// pointer renders the source line the node starts on, with a caret under
// its column.
func pointer(node ast.Node, source string) string {
	t := node.Tok()
	lines := strings.Split(source, "\n")
	if t.Line < 1 || t.Line > len(lines) {
		return fmt.Sprintf("<line %d>", t.Line)
	}
	line := lines[t.Line-1]
	col := t.Column - 1
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	return fmt.Sprintf("%4d | %s\n       %s^", t.Line, line, strings.Repeat(" ", col))
}
