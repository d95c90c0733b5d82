// Package pattern implements the structural AST matcher: patterns are
// themselves ASTs (parsed by the same internal/parser that produces
// program ASTs), with three capture conventions recognized on identifier
// names (`_x`, `__xs`, `x__Kind`).
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnli0135/numpy-types/internal/ast"
	"github.com/johnli0135/numpy-types/internal/parser"
)

// Captures is the result of a successful match: each name maps either to a
// single ast.Node or, for a "__xs"-style list capture, to the matched
// []ast.Expression or []ast.Statement slice.
type Captures map[string]interface{}

// Matcher is implemented by anything that can test an AST node for a match
// and report its captures. Both *Pattern and KindPattern implement it, so
// rule definitions can pick whichever is simplest for the grammar form
// they cover.
type Matcher interface {
	Matches(candidate ast.Node) (Captures, bool)
}

// KindPattern matches any node whose Kind() equals a fixed string, with no
// captures. It's used for grammar rules (module, assign, if, function def,
// ...) whose action re-asserts the concrete node type itself rather than
// reading captures: the same dispatch a capture-free pattern template
// would give, without the machinery of building one.
type KindPattern struct{ kind string }

// OfKind builds a KindPattern.
func OfKind(kind string) KindPattern { return KindPattern{kind: kind} }

func (k KindPattern) Matches(candidate ast.Node) (Captures, bool) {
	if candidate != nil && candidate.Kind() == k.kind {
		return Captures{}, true
	}
	return nil, false
}

// capture classifies an identifier spelling into one of the three capture
// conventions, or reports it isn't a capture at all.
//
//	_x      -> single capture named "x"
//	__xs    -> list capture named "xs"
//	x__Kind -> single capture named "x", constrained to ast Kind() == "Kind"
func capture(name string) (varName string, isList bool, kind string, ok bool) {
	switch {
	case strings.HasPrefix(name, "__"):
		return name[2:], true, "", true
	case strings.HasPrefix(name, "_"):
		return name[1:], false, "", true
	default:
		if idx := strings.Index(name, "__"); idx > 0 {
			return name[:idx], false, name[idx+2:], true
		}
	}
	return "", false, "", false
}

// Pattern wraps a parsed pattern AST (an Expression, most commonly a Call
// for library rules like `np.zeros(_n)`).
type Pattern struct {
	AST ast.Node
}

// ParseExpr compiles a surface-syntax pattern string into a Pattern using
// the same parser that produces program ASTs.
func ParseExpr(src string) (*Pattern, error) {
	e, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", src, err)
	}
	return &Pattern{AST: e}, nil
}

// FromAST wraps an already-built AST node as a pattern, for rule combinators
// that construct pattern shapes directly rather than through surface syntax.
func FromAST(n ast.Node) *Pattern { return &Pattern{AST: n} }

// Matches attempts to match p against candidate, returning the captures on
// success.
func (p *Pattern) Matches(candidate ast.Node) (Captures, bool) {
	out := Captures{}
	if matchNode(p.AST, candidate, out) {
		return out, true
	}
	return nil, false
}

func matchNode(pat, cand ast.Node, out Captures) bool {
	if pat == nil || cand == nil {
		return pat == cand
	}
	if name, isList, kind, ok := captureOf(pat); ok {
		if isList {
			// A single-node capture position can still absorb a list capture
			// convention when the caller is matching one element of a list
			// (matchStatements/matchExprs handle list captures directly);
			// reaching here for a bare node position means "match anything".
			out[name] = cand
			return true
		}
		if kind != "" && cand.Kind() != kind {
			return false
		}
		out[name] = cand
		return true
	}

	switch pn := pat.(type) {
	case *ast.Name:
		cn, ok := cand.(*ast.Name)
		return ok && cn.Value == pn.Value
	case *ast.Attribute:
		cn, ok := cand.(*ast.Attribute)
		return ok && cn.Value == pn.Value
	case *ast.Num:
		cn, ok := cand.(*ast.Num)
		return ok && cn.N == pn.N
	case *ast.BoolLit:
		cn, ok := cand.(*ast.BoolLit)
		return ok && cn.Value == pn.Value
	case *ast.NoneLit:
		_, ok := cand.(*ast.NoneLit)
		return ok
	case *ast.BinOp:
		cn, ok := cand.(*ast.BinOp)
		return ok && cn.Op == pn.Op && matchNode(pn.Left, cn.Left, out) && matchNode(pn.Right, cn.Right, out)
	case *ast.UnaryNot:
		cn, ok := cand.(*ast.UnaryNot)
		return ok && matchNode(pn.Value, cn.Value, out)
	case *ast.IfExp:
		cn, ok := cand.(*ast.IfExp)
		return ok && matchNode(pn.Left, cn.Left, out) && matchNode(pn.Pred, cn.Pred, out) && matchNode(pn.Right, cn.Right, out)
	case *ast.Index:
		cn, ok := cand.(*ast.Index)
		return ok && matchNode(pn.Base, cn.Base, out) && matchNode(pn.Sub, cn.Sub, out)
	case *ast.Call:
		cn, ok := cand.(*ast.Call)
		return ok && matchNode(pn.Fn, cn.Fn, out) && matchExprs(pn.Args, cn.Args, out)
	case *ast.Lambda:
		cn, ok := cand.(*ast.Lambda)
		return ok && len(pn.Args) == len(cn.Args) && matchNode(pn.Body, cn.Body, out)
	case *ast.Pass:
		_, ok := cand.(*ast.Pass)
		return ok
	case *ast.Assign:
		cn, ok := cand.(*ast.Assign)
		if !ok || !matchNode(pn.Lhs, cn.Lhs, out) {
			return false
		}
		if !matchOptional(pn.Anno, cn.Anno, out) {
			return false
		}
		return matchOptional(pn.Rhs, cn.Rhs, out)
	case *ast.If:
		cn, ok := cand.(*ast.If)
		return ok && matchNode(pn.Pred, cn.Pred, out) && matchStatements(pn.Top, cn.Top, out) && matchStatements(pn.Bot, cn.Bot, out)
	case *ast.Return:
		cn, ok := cand.(*ast.Return)
		return ok && matchNode(pn.Value, cn.Value, out)
	case *ast.Assert:
		cn, ok := cand.(*ast.Assert)
		return ok && matchNode(pn.Value, cn.Value, out)
	case *ast.FunctionDef:
		cn, ok := cand.(*ast.FunctionDef)
		return ok && pn.Name == cn.Name && len(pn.Args) == len(cn.Args) && matchStatements(pn.Body, cn.Body, out)
	case *ast.Import:
		cn, ok := cand.(*ast.Import)
		return ok && pn.Path == cn.Path
	case *ast.ExprStmt:
		cn, ok := cand.(*ast.ExprStmt)
		return ok && matchNode(pn.Value, cn.Value, out)
	default:
		return false
	}
}

func matchOptional(pat, cand ast.Node, out Captures) bool {
	if pat == nil && cand == nil {
		return true
	}
	if pat == nil || cand == nil {
		// a nil pattern slot only matches a nil candidate unless the pattern
		// slot is itself a capture, which matchNode already short-circuits
		// before calling matchOptional in the caller for non-nil patterns.
		return false
	}
	return matchNode(pat, cand, out)
}

// matchExprs matches a pattern argument list against a candidate argument
// list, honoring a trailing "__xs" list capture that absorbs the remainder.
func matchExprs(pat, cand []ast.Expression, out Captures) bool {
	for i, pe := range pat {
		if name, isList, _, ok := captureOf(pe); ok && isList {
			out[name] = cand[i:]
			return i == len(pat)-1
		}
		if i >= len(cand) {
			return false
		}
		if !matchNode(pe, cand[i], out) {
			return false
		}
	}
	return len(pat) == len(cand)
}

func matchStatements(pat, cand []ast.Statement, out Captures) bool {
	for i, ps := range pat {
		if name, isList, _, ok := captureOf(ps); ok && isList {
			out[name] = cand[i:]
			return i == len(pat)-1
		}
		if i >= len(cand) {
			return false
		}
		if !matchNode(ps, cand[i], out) {
			return false
		}
	}
	return len(pat) == len(cand)
}

// captureOf reports whether n is itself a bare capture identifier (a Name
// node whose Value follows one of the three capture conventions).
func captureOf(n ast.Node) (varName string, isList bool, kind string, ok bool) {
	name, isName := n.(*ast.Name)
	if !isName {
		return "", false, "", false
	}
	return capture(name.Value)
}

// Simplify returns a canonical, position-independent string key for ast,
// used as the secondary memo key for rule matching.
func Simplify(n ast.Node) string {
	var b strings.Builder
	writeSimplified(&b, n)
	return b.String()
}

func writeSimplified(b *strings.Builder, n ast.Node) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	switch v := n.(type) {
	case *ast.Program:
		b.WriteString("Module(")
		writeStmtList(b, v.Body)
		b.WriteString(")")
	case *ast.Name:
		b.WriteString("Name(" + v.Value + ")")
	case *ast.Attribute:
		b.WriteString("Attribute(" + v.Value + ")")
	case *ast.Num:
		b.WriteString("Num(" + strconv.Itoa(v.N) + ")")
	case *ast.BoolLit:
		b.WriteString("Bool(" + strconv.FormatBool(v.Value) + ")")
	case *ast.NoneLit:
		b.WriteString("None")
	case *ast.BinOp:
		b.WriteString("BinOp(" + v.Op + ",")
		writeSimplified(b, v.Left)
		b.WriteString(",")
		writeSimplified(b, v.Right)
		b.WriteString(")")
	case *ast.UnaryNot:
		b.WriteString("Not(")
		writeSimplified(b, v.Value)
		b.WriteString(")")
	case *ast.IfExp:
		b.WriteString("IfExp(")
		writeSimplified(b, v.Left)
		b.WriteString(",")
		writeSimplified(b, v.Pred)
		b.WriteString(",")
		writeSimplified(b, v.Right)
		b.WriteString(")")
	case *ast.Index:
		b.WriteString("Index(")
		writeSimplified(b, v.Base)
		b.WriteString(",")
		writeSimplified(b, v.Sub)
		b.WriteString(")")
	case *ast.Call:
		b.WriteString("Call(")
		writeSimplified(b, v.Fn)
		b.WriteString(",")
		writeExprList(b, v.Args)
		b.WriteString(")")
	case *ast.Lambda:
		b.WriteString(fmt.Sprintf("Lambda(%d,", len(v.Args)))
		writeSimplified(b, v.Body)
		b.WriteString(")")
	case *ast.Pass:
		b.WriteString("Pass")
	case *ast.Assign:
		b.WriteString("Assign(")
		writeSimplified(b, v.Lhs)
		b.WriteString(",")
		writeSimplified(b, v.Anno)
		b.WriteString(",")
		writeSimplified(b, v.Rhs)
		b.WriteString(")")
	case *ast.If:
		b.WriteString("If(")
		writeSimplified(b, v.Pred)
		b.WriteString(",")
		writeStmtList(b, v.Top)
		b.WriteString(",")
		writeStmtList(b, v.Bot)
		b.WriteString(")")
	case *ast.Return:
		b.WriteString("Return(")
		writeSimplified(b, v.Value)
		b.WriteString(")")
	case *ast.Assert:
		b.WriteString("Assert(")
		writeSimplified(b, v.Value)
		b.WriteString(")")
	case *ast.FunctionDef:
		b.WriteString("FunctionDef(" + v.Name + "," + strconv.Itoa(len(v.Args)) + ",")
		writeStmtList(b, v.Body)
		b.WriteString(")")
	case *ast.Import:
		b.WriteString("Import(" + v.Path + " as " + v.Alias + ")")
	case *ast.ExprStmt:
		b.WriteString("ExprStmt(")
		writeSimplified(b, v.Value)
		b.WriteString(")")
	default:
		b.WriteString(n.Kind())
	}
}

func writeStmtList(b *strings.Builder, ss []ast.Statement) {
	b.WriteString("[")
	for i, s := range ss {
		if i > 0 {
			b.WriteString(";")
		}
		writeSimplified(b, s)
	}
	b.WriteString("]")
}

func writeExprList(b *strings.Builder, es []ast.Expression) {
	b.WriteString("[")
	for i, e := range es {
		if i > 0 {
			b.WriteString(";")
		}
		writeSimplified(b, e)
	}
	b.WriteString("]")
}
