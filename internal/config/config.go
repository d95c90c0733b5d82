// Package config holds process-wide constants and flags.
package config

// Version is the current checker version.
var Version = "0.1.0"

// SourceFileExt is the recognized extension for checked source files.
const SourceFileExt = ".npy"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".npy", ".np"}

// HasSourceExt returns true if path ends with a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// DefaultOracleBound is the default search bound for verifier.BoundedOracle.
// Array shapes in checked programs are small; the bound mostly limits how
// many integers a universally quantified parameter ranges over.
const DefaultOracleBound = 8

// DefaultReturnType is the return-type annotation assumed for a top-level
// program checked outside of any function definition.
const DefaultReturnType = "None"

// DefaultCatalogPath is where `numtc rules` persists the installed bundle
// catalog; the CLI has no option to choose another path.
const DefaultCatalogPath = ".numtc/catalog.db"

// IsTestMode indicates the process is running under the test-harness
// entrypoint rather than as an interactive check.
var IsTestMode = false
