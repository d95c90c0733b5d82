// Command numtc type-checks a small imperative language with refinement
// array shapes: manual os.Args dispatch, one handleX() bool per subcommand
// tried in sequence, a panic-recovery wrapper in main, and os.Exit(1) plus
// a stderr report on failure rather than a bare panic.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/johnli0135/numpy-types/internal/checker/library"
	"github.com/johnli0135/numpy-types/internal/checker/library/catalog"
	"github.com/johnli0135/numpy-types/internal/checker/rules"
	"github.com/johnli0135/numpy-types/internal/checker/types"
	"github.com/johnli0135/numpy-types/internal/checker/verifier"
	"github.com/johnli0135/numpy-types/internal/config"
	"github.com/johnli0135/numpy-types/internal/diagnostics"
	"github.com/johnli0135/numpy-types/internal/parser"

	"github.com/google/uuid"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			// Under the test harness (and with DEBUG set) keep the panic
			// and its stack instead of the friendly one-liner.
			if os.Getenv("DEBUG") != "" || config.IsTestMode {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "numtc: internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	args := os.Args[1:]
	if handleHelp(args) {
		return
	}
	if handleVersion(args) {
		return
	}
	if handleRules(args) {
		return
	}
	if handleCheck(args) {
		return
	}

	fmt.Fprintf(os.Stderr, "numtc: unrecognized arguments %v\n", args)
	fmt.Fprintln(os.Stderr, "run `numtc help` for usage")
	os.Exit(1)
}

func handleHelp(args []string) bool {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Println(`numtc - a refinement-shape type checker

Usage:
  numtc [check] <file>    type-check a source file
  numtc rules             list the library rules available to the checker
  numtc version           print the checker version
  numtc help              show this message`)
		return true
	}
	return false
}

func handleVersion(args []string) bool {
	if len(args) != 1 || args[0] != "version" {
		return false
	}
	fmt.Println(config.Version)
	return true
}

func handleRules(args []string) bool {
	if len(args) == 0 || args[0] != "rules" {
		return false
	}
	bundle, err := library.NumpyBundle()
	if err != nil {
		fail("loading library bundle: %v", err)
	}

	catPath := config.DefaultCatalogPath
	if err := os.MkdirAll(filepath.Dir(catPath), 0o755); err != nil {
		fail("preparing catalog directory: %v", err)
	}
	cat, err := catalog.Open(catPath)
	if err != nil {
		fail("opening rule catalog: %v", err)
	}
	defer cat.Close()

	meta := make([]catalog.RuleMeta, 0, len(bundle.Rules))
	for _, r := range bundle.Rules {
		meta = append(meta, catalog.RuleMeta{Name: r.Name, Pattern: r.Pattern, Return: r.Return})
	}
	if err := cat.Record(bundle.Name, meta, checkTime()); err != nil {
		fail("recording bundle in catalog: %v", err)
	}

	entries, err := cat.List()
	if err != nil {
		fail("listing catalog: %v", err)
	}
	for _, e := range entries {
		fmt.Printf("%s.%s  %s -> %s\n", e.Bundle, e.Rule, e.Pattern, e.Return)
	}
	return true
}

func handleCheck(args []string) bool {
	var path string
	switch {
	case len(args) == 2 && args[0] == "check":
		path = args[1]
	case len(args) == 1:
		path = args[0]
	default:
		return false
	}
	src, err := os.ReadFile(path)
	if err != nil {
		fail("reading %s: %v", path, err)
	}
	if !config.HasSourceExt(path) {
		fmt.Fprintf(os.Stderr, "numtc: warning: %s has no recognized source extension\n", path)
	}

	program, err := parser.Parse(string(src))
	if err != nil {
		fail("parsing %s: %v", path, err)
	}

	sessionID := uuid.New().String()
	ck := newChecker()
	t, checkErr := ck.Check(program)

	colored := !config.IsTestMode && isatty.IsTerminal(os.Stdout.Fd())
	if checkErr != nil {
		printFailure(path, string(src), sessionID, checkErr, colored)
		os.Exit(1)
	}
	printSuccess(path, t, colored)
	return true
}

// newChecker builds a Checker over the core grammar plus the demo numpy
// library bundle.
func newChecker() *rules.Checker {
	ids := types.NewIDSource()
	rs := rules.BasicRules()

	bundle, err := library.NumpyBundle()
	if err != nil {
		fail("loading library bundle: %v", err)
	}
	libRules, err := bundle.Compile()
	if err != nil {
		fail("compiling library bundle: %v", err)
	}
	rs = append(rs, libRules...)
	rs = append(rs, library.NumpyImportRule())

	ck := rules.NewChecker(ids, rs, verifier.NewBoundedOracle())
	ck.ReturnType = defaultReturnType()
	return ck
}

// defaultReturnType resolves config.DefaultReturnType (the return type a
// top-level program is checked against, outside any function definition)
// the same way a return-type annotation in source would.
func defaultReturnType() types.Type {
	if config.DefaultReturnType == "None" {
		return types.TNone{}
	}
	e, err := parser.ParseExpr(config.DefaultReturnType)
	if err != nil {
		fail("bad default return type %q: %v", config.DefaultReturnType, err)
	}
	t, err := types.FromAST(e)
	if err != nil {
		fail("bad default return type %q: %v", config.DefaultReturnType, err)
	}
	return t
}

func printSuccess(path string, t types.Type, colored bool) {
	if colored {
		fmt.Printf("\x1b[32mOK\x1b[0m  %s : %s\n", path, t)
		return
	}
	fmt.Printf("OK  %s : %s\n", path, t)
}

func printFailure(path, source, sessionID string, err error, colored bool) {
	label := "FAIL"
	if colored {
		label = "\x1b[31mFAIL\x1b[0m"
	}
	fmt.Fprintf(os.Stderr, "%s %s (session %s)\n", label, path, sessionID)
	fmt.Fprintln(os.Stderr, diagnostics.Render(err, source))
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "numtc: "+format+"\n", args...)
	os.Exit(1)
}

// checkTime centralizes the catalog's installed_at timestamp so a future
// caller that wants determinism has one place to override it.
func checkTime() time.Time { return time.Now() }
