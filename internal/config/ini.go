package config

import (
	"errors"
	"strings"

	"gopkg.in/ini.v1"
)

// iniOptions reads configparser-style files: indented lines continue the
// previous value, '=' and ':' both separate keys, and ';' or '#' only start
// a comment at the beginning of a line since prototype lists use ';'.
var iniOptions = ini.LoadOptions{
	AllowPythonMultilineValues: true,
	AllowNonUniqueSections:     true,
	IgnoreContinuation:         true,
	IgnoreInlineComment:        true,
	PreserveSurroundedQuote:    true,
	KeyValueDelimiters:         "=:",
}

// ParseINI parses configparser-style INI text.
//
//	[MODULE example]
//	typemaps =
//	    int: int64
//	kinds = Xnd
//
// A blank line ends a multi-line value. Continuation lines are trimmed and
// joined with newlines.
func ParseINI(path string, data []byte) (*File, error) {
	src, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, iniError(path, data, err)
	}

	f := NewFile(path)
	seen := make(map[string]int)
	for _, sec := range src.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			if keys := sec.Keys(); len(keys) > 0 {
				return nil, &LoadError{
					Path:    path,
					Line:    findLine(data, 1, keyLine(keys[0].Name())),
					Message: "key outside of any section",
				}
			}
			continue
		}

		seen[name]++
		s, err := f.AddSection(strings.TrimSpace(name))
		if err != nil {
			return nil, &LoadError{
				Path:    path,
				Line:    findLine(data, seen[name], headerLine(name)),
				Message: err.Error(),
			}
		}
		for _, key := range sec.Keys() {
			s.Set(key.Name(), joinContinuation(key.Value()))
		}
	}
	return f, nil
}

// joinContinuation trims every line of a multi-line value.
func joinContinuation(value string) string {
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// iniError converts a go-ini parse error into a LoadError pointing at the
// offending line.
func iniError(path string, data []byte, err error) error {
	var delim ini.ErrDelimiterNotFound
	if errors.As(err, &delim) {
		text := strings.TrimSpace(delim.Line)
		return &LoadError{
			Path:    path,
			Line:    findLine(data, 1, func(l string) bool { return l == text }),
			Message: "expected <key> = <value>",
		}
	}
	if header, ok := strings.CutPrefix(err.Error(), "unclosed section: "); ok {
		header = strings.TrimSpace(header)
		return &LoadError{
			Path:    path,
			Line:    findLine(data, 1, func(l string) bool { return l == header }),
			Message: "unterminated section header",
		}
	}
	return &LoadError{Path: path, Message: err.Error()}
}

func headerLine(name string) func(string) bool {
	return func(l string) bool { return l == "["+name+"]" }
}

func keyLine(key string) func(string) bool {
	return func(l string) bool {
		rest, ok := strings.CutPrefix(l, key)
		rest = strings.TrimSpace(rest)
		return ok && rest != "" && strings.ContainsRune("=:", rune(rest[0]))
	}
}

// findLine returns the 1-based number of the nth line whose trimmed text
// satisfies match, or 0.
func findLine(data []byte, nth int, match func(string) bool) int {
	for i, line := range strings.Split(string(data), "\n") {
		if match(strings.TrimSpace(line)) {
			if nth--; nth == 0 {
				return i + 1
			}
		}
	}
	return 0
}
