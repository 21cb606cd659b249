// Package render turns a module descriptor into C source text.
//
// The output is the declaration skeleton of a gumath kernel module: one
// forward declaration per kernel, the kernel init table with ndtypes
// signatures, and static size checks for every typemap alias.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/roach88/kernelgen/internal/ir"
)

//go:embed templates/*.c.tmpl
var templateFS embed.FS

// Renderer renders module descriptors.
type Renderer struct {
	tmpl *template.Template
}

type templateData struct {
	Version      string
	Module       string
	Includes     []string
	Kernels      []kernelData
	TypemapTests []ir.TypeConversion
}

type kernelData struct {
	FunctionName string
	Comment      string // one-line description, safe inside /* */
	Kind         string
	Symbol       string
	Signature    string
}

// New creates a renderer with the embedded module template.
func New() *Renderer {
	tmpl := template.Must(template.New("").ParseFS(templateFS, "templates/*.c.tmpl"))
	return &Renderer{tmpl: tmpl}
}

// Render writes the C source for d to w. Nothing is written if the template
// fails.
func (r *Renderer) Render(w io.Writer, d *ir.ModuleDescriptor) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "module.c.tmpl", buildTemplateData(d)); err != nil {
		return fmt.Errorf("template: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func buildTemplateData(d *ir.ModuleDescriptor) templateData {
	data := templateData{
		Version:      ir.GeneratorVersion,
		Module:       d.ModuleName,
		TypemapTests: d.TypemapTests,
	}
	for _, line := range strings.Split(d.Includes, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			data.Includes = append(data.Includes, line)
		}
	}
	for i := range d.Kernels {
		k := &d.Kernels[i]
		data.Kernels = append(data.Kernels, kernelData{
			FunctionName: k.FunctionName,
			Comment:      commentText(k.OnelineDescription),
			Kind:         k.Kind,
			Symbol:       Symbol(d.ModuleName, k),
			Signature:    Signature(k),
		})
	}
	return data
}

// commentText folds s onto one line and breaks up any "*/" so the text can
// sit inside a C block comment.
func commentText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for strings.Contains(s, "*/") {
		s = strings.ReplaceAll(s, "*/", "* /")
	}
	return s
}

// Symbol returns the C identifier of a kernel's entry point.
func Symbol(module string, k *ir.Kernel) string {
	return fmt.Sprintf("gm_%s_%s_%s_%s%s", module, k.Kind, k.ArrayType, k.FunctionName, k.EllipsesName)
}

// Signature returns the ndtypes function signature of a kernel, for example
// "... * n * float64, ... * float64 -> ... * n * float64". Hidden arguments
// are not part of the signature.
func Signature(k *ir.Kernel) string {
	inputs, outputs := k.InputOutputArguments()
	return signatureSide(k, inputs) + " -> " + signatureSide(k, outputs)
}

func signatureSide(k *ir.Kernel, args []ir.Argument) string {
	if len(args) == 0 {
		return "void"
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		var b strings.Builder
		b.WriteString(k.Ellipses)
		for _, dim := range arg.Shape {
			if k.ArrayType == ir.ArrayTypeVariable {
				dim = "var"
			}
			b.WriteString(dim + " * ")
		}
		b.WriteString(arg.Type)
		parts[i] = b.String()
	}
	return strings.Join(parts, ", ")
}
