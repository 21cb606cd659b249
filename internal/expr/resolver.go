package expr

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DuplicateValueError is returned when an argument is bound to a value twice.
type DuplicateValueError struct {
	Name     string
	Existing string
	New      string
}

func (e *DuplicateValueError) Error() string {
	return fmt.Sprintf("argument %q already has value %q, cannot bind %q", e.Name, e.Existing, e.New)
}

// MalformedShapeError is returned for a shape expression that cannot be
// parsed. It is recoverable: the caller logs it and skips the token.
type MalformedShapeError struct {
	Token  string
	Reason string
}

func (e *MalformedShapeError) Error() string {
	return fmt.Sprintf("cannot determine shape from %q: %s", e.Token, e.Reason)
}

// SyntaxError is returned for a specification token with no argument name.
type SyntaxError struct {
	Token  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid argument specification %q: %s", e.Token, e.Reason)
}

// IsRecoverable reports whether err only invalidates the offending token.
func IsRecoverable(err error) bool {
	var shapeErr *MalformedShapeError
	return errors.As(err, &shapeErr)
}

// Shape is a shape binding: an argument name and its dimension expressions.
type Shape struct {
	Name string
	Dims []string
}

// Value is a value binding: an argument name and its value expression.
type Value struct {
	Name string
	Expr string
}

// Dependency lists the arguments that must be computed before Name.
type Dependency struct {
	Name string
	On   []string
}

// Bindings accumulates the dependency, value and shape bindings of one
// prototype. Create one per prototype with NewBindings and discard it once
// the prototype is enriched.
//
// All accessors return bindings in insertion order.
type Bindings struct {
	known map[string]bool

	depends      map[string][]string
	dependsOrder []string

	values      map[string]string
	valuesOrder []string

	shapes      map[string][]string
	shapesOrder []string
}

// NewBindings creates an empty builder for a prototype with the given
// argument names.
func NewBindings(arguments []string) *Bindings {
	known := make(map[string]bool, len(arguments))
	for _, name := range arguments {
		known[name] = true
	}
	return &Bindings{
		known:   known,
		depends: make(map[string][]string),
		values:  make(map[string]string),
		shapes:  make(map[string][]string),
	}
}

// Resolve classifies one argument specification token, folds it into the
// bindings and returns the argument name it refers to.
//
// Forms, tried in order:
//
//	name=expr         value binding; expr's argument references become dependencies
//	name(d1, d2, ...) shape binding
//	name              bare name
func (b *Bindings) Resolve(token string) (string, error) {
	token = strings.TrimSpace(token)

	if name, value, ok := strings.Cut(token, "="); ok {
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" {
			return "", &SyntaxError{Token: token, Reason: "missing argument name before '='"}
		}
		b.AddDepends(name, value)
		if existing, bound := b.values[name]; bound {
			return "", &DuplicateValueError{Name: name, Existing: existing, New: value}
		}
		b.values[name] = value
		b.valuesOrder = append(b.valuesOrder, name)
		return name, nil
	}

	if i := strings.IndexByte(token, '('); i >= 0 {
		if !strings.HasSuffix(token, ")") {
			return "", &MalformedShapeError{Token: token, Reason: "shape list must end with ')'"}
		}
		name := strings.TrimSpace(token[:i])
		if name == "" {
			return "", &MalformedShapeError{Token: token, Reason: "missing argument name"}
		}
		body := token[i+1 : len(token)-1]
		if !balanced(body) {
			return "", &MalformedShapeError{Token: token, Reason: "unbalanced parentheses"}
		}
		dims := splitDims(body)
		if slices.Contains(dims, "") {
			return "", &MalformedShapeError{Token: token, Reason: "empty dimension"}
		}
		b.setShape(name, dims)
		return name, nil
	}

	if token == "" {
		return "", &SyntaxError{Token: token, Reason: "empty specification"}
	}
	return token, nil
}

// AddDepends records an edge name → n for every known argument n referenced
// by expr. An edge is not added when the reverse edge n → name already
// exists.
func (b *Bindings) AddDepends(name, expr string) {
	for _, n := range Identifiers(expr) {
		if !b.known[n] || b.hasEdge(n, name) || b.hasEdge(name, n) {
			continue
		}
		if _, ok := b.depends[name]; !ok {
			b.dependsOrder = append(b.dependsOrder, name)
		}
		b.depends[name] = append(b.depends[name], n)
	}
}

// ResolveShapeDepends registers the dependencies of every dimension of every
// shape binding collected so far.
func (b *Bindings) ResolveShapeDepends() {
	for _, name := range b.shapesOrder {
		for _, dim := range b.shapes[name] {
			b.AddDepends(name, dim)
		}
	}
}

func (b *Bindings) setShape(name string, dims []string) {
	if _, ok := b.shapes[name]; !ok {
		b.shapesOrder = append(b.shapesOrder, name)
	}
	b.shapes[name] = dims
}

func (b *Bindings) hasEdge(from, to string) bool {
	for _, n := range b.depends[from] {
		if n == to {
			return true
		}
	}
	return false
}

// Shapes returns the shape bindings.
func (b *Bindings) Shapes() []Shape {
	out := make([]Shape, 0, len(b.shapesOrder))
	for _, name := range b.shapesOrder {
		out = append(out, Shape{Name: name, Dims: append([]string(nil), b.shapes[name]...)})
	}
	return out
}

// Values returns the value bindings.
func (b *Bindings) Values() []Value {
	out := make([]Value, 0, len(b.valuesOrder))
	for _, name := range b.valuesOrder {
		out = append(out, Value{Name: name, Expr: b.values[name]})
	}
	return out
}

// Depends returns the dependency lists.
func (b *Bindings) Depends() []Dependency {
	out := make([]Dependency, 0, len(b.dependsOrder))
	for _, name := range b.dependsOrder {
		out = append(out, Dependency{Name: name, On: append([]string(nil), b.depends[name]...)})
	}
	return out
}

// Graph returns the dependency graph as an adjacency map.
func (b *Bindings) Graph() map[string][]string {
	g := make(map[string][]string, len(b.depends))
	for name, on := range b.depends {
		g[name] = append([]string(nil), on...)
	}
	return g
}

func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
