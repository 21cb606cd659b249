package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "x", []string{"x"}},
		{"commas", "x, y ,z", []string{"x", "y", "z"}},
		{"newlines", "x\n  y\n\n", []string{"x", "y"}},
		{"nested shape", "x(n, m), y(n)", []string{"x(n, m)", "y(n)"}},
		{"nested calls", "n=len(x), m = max(a, b)", []string{"n=len(x)", "m = max(a, b)"}},
		{"brackets", "a[1,2], b", []string{"a[1,2]", "b"}},
		{"multiline shape", "x(n,\nm)", []string{"x(n,\nm)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}

func TestSplitDims(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"n", []string{"n"}},
		{"n, max(a, b)", []string{"n", "max(a, b)"}},
		{"n,,m", []string{"n", "", "m"}},
		{"n,", []string{"n", ""}},
		{"", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitDims(tt.input))
		})
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "n", []string{"n"}},
		{"call", "len(x)", []string{"len", "x"}},
		{"arith", "n*m + 1", []string{"n", "m"}},
		{"dedup", "n + n", []string{"n"}},
		{"digit glued", "2n + 1e5 + 0x1f", nil},
		{"underscore", "_a1 - b_2", []string{"_a1", "b_2"}},
		{"member", "x.shape", []string{"x", "shape"}},
		{"string literal", `f("n", m)`, []string{"f", "m"}},
		{"float", "3.5*k", []string{"k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Identifiers(tt.input))
		})
	}
}
