package config

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ParseCUE parses a CUE kernel config. Each top-level field is a section
// and each of its fields a key:
//
//	"MODULE example": {
//		typemaps: ["int: int64"]
//		kinds:    "Xnd"
//	}
//	"KERNEL scale": {
//		prototypes: "void scale(int64 n, double *x);"
//		skip:       false
//	}
//
// Strings, booleans, integers and lists of strings are accepted.
func ParseCUE(path string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Path: path, Message: cueerrors.Details(err, nil)}
	}

	f := NewFile(path)
	iter, err := v.Fields()
	if err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("top level must be a struct: %v", err)}
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		section, err := f.AddSection(name)
		if err != nil {
			return nil, &LoadError{Path: path, Message: err.Error()}
		}

		fields, err := iter.Value().Fields()
		if err != nil {
			return nil, &LoadError{Path: path, Message: fmt.Sprintf("section %q must be a struct: %v", name, err)}
		}
		for fields.Next() {
			key := fields.Selector().Unquoted()
			value, err := cueString(fields.Value())
			if err != nil {
				return nil, &LoadError{Path: path, Message: fmt.Sprintf("%s.%s: %v", name, key, err)}
			}
			section.Set(key, value)
		}
	}
	return f, nil
}

// cueString converts a concrete CUE value to its config string form.
func cueString(v cue.Value) (string, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case cue.ListKind:
		list, err := v.List()
		if err != nil {
			return "", err
		}
		var items []string
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return "", fmt.Errorf("list items must be strings: %w", err)
			}
			items = append(items, s)
		}
		return strings.Join(items, "\n"), nil
	default:
		return "", fmt.Errorf("unsupported value kind %v", v.IncompleteKind())
	}
}
