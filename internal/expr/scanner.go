// Package expr scans argument specification expressions and resolves them
// into dependency, value and shape bindings for a single prototype.
//
// The grammar is fixed:
//
//	spec  = name | name "=" expr | name "(" dims ")"
//	dims  = expr { "," expr }
//
// Identifiers inside expr are [A-Za-z_][A-Za-z0-9_]* and are not glued to a
// preceding digit, so "2n" contains no identifier.
package expr

import (
	"strings"
	"unicode"
)

// SplitList splits text at top-level commas and newlines. Separators nested
// inside parentheses or brackets do not split. Items are trimmed and empty
// items dropped.
func SplitList(text string) []string {
	return split(text, true, false)
}

// splitDims splits a shape body at top-level commas only. Empty dimensions
// are kept so the caller can reject them; "" yields [""].
func splitDims(text string) []string {
	return split(text, false, true)
}

func split(text string, newlines, keepEmpty bool) []string {
	var items []string
	depth := 0
	start := 0
	flush := func(end int) {
		if item := strings.TrimSpace(text[start:end]); item != "" || keepEmpty {
			items = append(items, item)
		}
		start = end + 1
	}
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
			}
		case '\n':
			if newlines && depth == 0 {
				flush(i)
			}
		}
	}
	flush(len(text))
	return items
}

// Identifiers returns the identifiers referenced by expr in order of first
// appearance. Numeric literals and quoted strings are skipped.
func Identifiers(expr string) []string {
	var ids []string
	seen := make(map[string]bool)
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case isIdentStart(r):
			j := i + 1
			for j < len(runes) && isIdentPart(runes[j]) {
				j++
			}
			id := string(runes[i:j])
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
			i = j
		case unicode.IsDigit(r):
			// numeric literal, including suffixes and exponents: 1e5, 0x1f, 2n
			j := i + 1
			for j < len(runes) && (isIdentPart(runes[j]) || runes[j] == '.') {
				j++
			}
			i = j
		case r == '"' || r == '\'':
			j := i + 1
			for j < len(runes) && runes[j] != r {
				if runes[j] == '\\' {
					j++
				}
				j++
			}
			i = j + 1
		default:
			i++
		}
	}
	return ids
}

func isIdentStart(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r))
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r < unicode.MaxASCII && unicode.IsDigit(r))
}
