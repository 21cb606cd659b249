// Package typemap normalizes raw type tokens to canonical numeric type names.
package typemap

import (
	"fmt"
	"strings"
)

// zeros maps canonical numeric types to their zero literal in generated C.
var zeros = map[string]string{
	"bool":       "false",
	"int8":       "0",
	"int16":      "0",
	"int32":      "0",
	"int64":      "0",
	"uint8":      "0",
	"uint16":     "0",
	"uint32":     "0",
	"uint64":     "0",
	"float16":    "0.0",
	"float32":    "0.0",
	"float64":    "0.0",
	"complex64":  "{0.0, 0.0}",
	"complex128": "{0.0, 0.0}",
}

// RuleError reports a malformed aliasing rule.
type RuleError struct {
	Line    int
	Rule    string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("typemaps line %d: %s: %q", e.Line, e.Message, e.Rule)
}

// TypeMap maps raw type tokens to canonical type names.
// Unmapped tokens normalize to themselves.
type TypeMap struct {
	aliases map[string]string
}

// New creates an empty type map.
func New() *TypeMap {
	return &TypeMap{aliases: make(map[string]string)}
}

// Set registers an alias. A later rule for the same raw token replaces
// the earlier one.
func (m *TypeMap) Set(raw, canonical string) {
	m.aliases[raw] = canonical
}

// ParseRules registers one "raw:canonical" rule per line of text.
// Blank lines and lines starting with '#' are skipped.
func (m *TypeMap) ParseRules(text string) error {
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw, canonical, ok := strings.Cut(line, ":")
		if !ok {
			return &RuleError{Line: i + 1, Rule: line, Message: "expected <raw>:<canonical>"}
		}
		raw, canonical = strings.TrimSpace(raw), strings.TrimSpace(canonical)
		if raw == "" || canonical == "" {
			return &RuleError{Line: i + 1, Rule: line, Message: "empty type name"}
		}
		m.Set(raw, canonical)
	}
	return nil
}

// Normalize returns the canonical name for token.
func (m *TypeMap) Normalize(token string) string {
	if canonical, ok := m.aliases[token]; ok {
		return canonical
	}
	return token
}

// Zero returns the zero literal of a canonical type, if it has one.
func (m *TypeMap) Zero(canonical string) (string, bool) {
	z, ok := zeros[canonical]
	return z, ok
}

// StorageType returns the C storage type name of a canonical type.
func StorageType(canonical string) string {
	return canonical + "_t"
}
