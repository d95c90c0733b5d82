package config_test

import (
	"testing"

	"github.com/johnli0135/numpy-types/internal/config"
)

func TestHasSourceExtRecognizesEveryExtension(t *testing.T) {
	for _, path := range []string{"foo.npy", "bar.np"} {
		if !config.HasSourceExt(path) {
			t.Errorf("HasSourceExt(%q) = false, want true", path)
		}
	}
}

func TestHasSourceExtRejectsOtherExtensions(t *testing.T) {
	for _, path := range []string{"foo.txt", "foo", "foo.npyx"} {
		if config.HasSourceExt(path) {
			t.Errorf("HasSourceExt(%q) = true, want false", path)
		}
	}
}
