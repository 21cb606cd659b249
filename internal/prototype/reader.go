// Package prototype reads C-style function prototypes from kernel sections.
//
// A prototype block holds declarations separated by ';' or by newlines
// outside parentheses:
//
//	void scale(int64 n, double *x, double *y);
//	double norm(int64 n, double *x)
//
// Each declaration is parsed with the tree-sitter C grammar. Argument types
// may carry "const" qualifiers and any number of '*' or "[]" declarators; a
// non-zero count marks the argument as a pointer.
package prototype

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	sitterc "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/roach88/kernelgen/internal/ir"
)

var language = sitter.NewLanguage(sitterc.Language())

// ParseError reports a declaration that does not follow the grammar.
type ParseError struct {
	Decl    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("prototype %q: %s", e.Decl, e.Message)
}

// Reader parses prototype blocks.
type Reader struct{}

// NewReader creates a prototype reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses every declaration in text, in order. An empty block yields no
// prototypes.
func (r *Reader) Read(text string) ([]*ir.Prototype, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("load C grammar: %w", err)
	}

	var protos []*ir.Prototype
	for _, decl := range splitDecls(text) {
		p, err := parseDecl(parser, decl)
		if err != nil {
			return nil, err
		}
		if p != nil {
			protos = append(protos, p)
		}
	}
	return protos, nil
}

// parseDecl parses one declaration. A declaration made only of comments
// yields nil.
func parseDecl(parser *sitter.Parser, decl string) (*ir.Prototype, error) {
	// The newline keeps a trailing line comment from swallowing the ';'.
	src := []byte(decl + "\n;")
	d := &declParser{decl: oneLine(decl), src: src}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, d.errorf("parser returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, d.errorf("syntax error near %q", d.text(firstError(root)))
	}

	var declaration *sitter.Node
	for i := range root.NamedChildCount() {
		child := root.NamedChild(i)
		switch {
		case child.Kind() == "comment":
		case child.Kind() == "expression_statement" && child.NamedChildCount() == 0:
			// the terminating ';' after a comment-only block
		case declaration == nil && child.Kind() == "declaration":
			declaration = child
		default:
			return nil, d.errorf("expected <type> <name>(<arguments>)")
		}
	}
	if declaration == nil {
		return nil, nil
	}
	return d.prototype(declaration)
}

type declParser struct {
	decl string
	src  []byte
}

func (d *declParser) errorf(format string, args ...any) error {
	return &ParseError{Decl: d.decl, Message: fmt.Sprintf(format, args...)}
}

func (d *declParser) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return oneLine(n.Utf8Text(d.src))
}

func (d *declParser) prototype(declaration *sitter.Node) (*ir.Prototype, error) {
	fn := declaration.ChildByFieldName("declarator")
	// A pointer return type is reported by its pointee.
	for fn != nil && fn.Kind() == "pointer_declarator" {
		fn = fn.ChildByFieldName("declarator")
	}
	if fn == nil || fn.Kind() != "function_declarator" {
		return nil, d.errorf("expected <type> <name>(<arguments>)")
	}
	if declarators := countField(declaration, "declarator"); declarators != 1 {
		return nil, d.errorf("expected a single function, got %d declarators", declarators)
	}

	name := fn.ChildByFieldName("declarator")
	if name == nil || name.Kind() != "identifier" {
		return nil, d.errorf("expected a function name, got %q", d.text(name))
	}

	p := &ir.Prototype{
		FunctionName: d.text(name),
		Type:         d.text(declaration.ChildByFieldName("type")),
	}

	params := fn.ChildByFieldName("parameters")
	var decls []*sitter.Node
	for i := range params.NamedChildCount() {
		param := params.NamedChild(i)
		switch param.Kind() {
		case "comment":
		case "parameter_declaration":
			decls = append(decls, param)
		case "variadic_parameter":
			return nil, d.errorf("variadic arguments are not supported")
		default:
			return nil, d.errorf("argument %q has no type", d.text(param))
		}
	}

	// f(void) takes no arguments.
	if len(decls) == 1 && decls[0].ChildByFieldName("declarator") == nil && d.text(decls[0].ChildByFieldName("type")) == "void" {
		return p, nil
	}

	seen := make(map[string]bool)
	for _, param := range decls {
		arg, err := d.argument(param)
		if err != nil {
			return nil, err
		}
		if seen[arg.Name] {
			return nil, d.errorf("duplicate argument %q", arg.Name)
		}
		seen[arg.Name] = true
		p.Arguments = append(p.Arguments, arg)
	}
	return p, nil
}

// argument reads a parameter_declaration such as "const double *x" or
// "double y[]".
func (d *declParser) argument(param *sitter.Node) (ir.Argument, error) {
	arg := ir.Argument{Type: d.text(param.ChildByFieldName("type"))}

	n := param.ChildByFieldName("declarator")
	for n != nil {
		switch n.Kind() {
		case "identifier":
			arg.Name = d.text(n)
			return arg, nil
		case "pointer_declarator", "array_declarator":
			arg.Pointer = true
			n = n.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			n = n.NamedChild(0)
		case "function_declarator":
			return arg, d.errorf("argument %q: function pointers are not supported", d.text(param))
		default:
			// abstract declarators carry no name
			n = nil
		}
	}
	return arg, d.errorf("argument %q has no name", d.text(param))
}

func countField(n *sitter.Node, field string) int {
	count := 0
	for i := range n.ChildCount() {
		if n.FieldNameForChild(uint32(i)) == field {
			count++
		}
	}
	return count
}

// firstError returns the first ERROR or MISSING node under n in source
// order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := range n.ChildCount() {
		if child := n.Child(i); child.HasError() || child.IsMissing() {
			return firstError(child)
		}
	}
	return n
}

// splitDecls splits at ';' and at newlines outside parentheses. Comments
// stay attached to their declaration and do not split it.
func splitDecls(text string) []string {
	var decls []string
	depth, start := 0, 0
	flush := func(end int) {
		if d := strings.TrimSpace(text[start:end]); d != "" {
			decls = append(decls, d)
		}
		start = end + 1
	}
	for i := 0; i < len(text); i++ {
		switch {
		case strings.HasPrefix(text[i:], "//"):
			if end := strings.IndexByte(text[i:], '\n'); end >= 0 {
				i += end - 1
			} else {
				i = len(text)
			}
		case strings.HasPrefix(text[i:], "/*"):
			if end := strings.Index(text[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = len(text)
			}
		case text[i] == '(':
			depth++
		case text[i] == ')':
			depth--
		case text[i] == ';':
			flush(i)
		case text[i] == '\n' && depth <= 0:
			flush(i)
		}
	}
	flush(len(text))
	return decls
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
