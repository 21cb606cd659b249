package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kernelgen/internal/ir"
	"github.com/roach88/kernelgen/internal/testutil"
)

func scaleKernel(arraytype, ellipses, ellipsesName string) ir.Kernel {
	return ir.Kernel{
		Prototype: ir.Prototype{
			FunctionName:       "scale",
			OnelineDescription: "Scale a vector",
			Type:               "void",
			Arguments: []ir.Argument{
				{Name: "n", Type: "int64", Intent: ir.IntentHide},
				{Name: "x", Type: "float64", Intent: ir.IntentInplace, Shape: []string{"n"}},
				{Name: "a", Type: "float64", Intent: ir.IntentInput},
			},
		},
		Kind:         ir.KindXnd,
		ArrayType:    arraytype,
		Ellipses:     ellipses,
		EllipsesName: ellipsesName,
	}
}

func exampleDescriptor() *ir.ModuleDescriptor {
	norm := ir.Kernel{
		Prototype: ir.Prototype{
			FunctionName:       "norm",
			OnelineDescription: "<description not specified>",
			Type:               "float64",
			Arguments: []ir.Argument{
				{Name: "x", Type: "float64", Intent: ir.IntentInput, Shape: []string{"n"}},
				{Name: "n", Type: "int64", Intent: ir.IntentHide},
			},
		},
		Kind:      ir.KindC,
		ArrayType: ir.ArrayTypeSymbolic,
	}
	return &ir.ModuleDescriptor{
		ModuleName: "example",
		Includes:   `#include "example.h"`,
		Kernels: []ir.Kernel{
			scaleKernel(ir.ArrayTypeSymbolic, "... * ", "_DOTS__STAR_"),
			scaleKernel(ir.ArrayTypeVariable, "var... * ", "var_DOTS__STAR_"),
			norm,
		},
		TypemapTests: []ir.TypeConversion{
			{OrigType: "int", NormalType: "int64", CType: "int64_t"},
		},
	}
}

func TestRender_Golden(t *testing.T) {
	tests := []struct {
		name string
		d    *ir.ModuleDescriptor
	}{
		{"example_module", exampleDescriptor()},
		{"empty_module", &ir.ModuleDescriptor{ModuleName: "example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, New().Render(&buf, tt.d))
			testutil.AssertGolden(t, tt.name, buf.Bytes())
		})
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name string
		k    ir.Kernel
		want string
	}{
		{
			name: "symbolic with ellipsis",
			k:    scaleKernel(ir.ArrayTypeSymbolic, "... * ", "_DOTS__STAR_"),
			want: "... * n * float64, ... * float64 -> ... * n * float64",
		},
		{
			name: "variable",
			k:    scaleKernel(ir.ArrayTypeVariable, "", ""),
			want: "var * float64, float64 -> var * float64",
		},
		{
			name: "no arguments",
			k:    ir.Kernel{Prototype: ir.Prototype{FunctionName: "tick"}, ArrayType: ir.ArrayTypeSymbolic},
			want: "void -> void",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Signature(&tt.k))
		})
	}
}

func TestSymbol(t *testing.T) {
	k := scaleKernel(ir.ArrayTypeSymbolic, "... * ", "_DOTS__STAR_")
	assert.Equal(t, "gm_example_Xnd_symbolic_scale_DOTS__STAR_", Symbol("example", &k))
}

func TestCommentText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Scale a vector", "Scale a vector"},
		{"ends the comment */ early", "ends the comment * / early"},
		{"nested **/ and */*/", "nested ** / and * /* /"},
		{"two\nlines\twith tabs", "two lines with tabs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, commentText(tt.in), tt.in)
	}
}

func TestRenderCommentCannotCloseEarly(t *testing.T) {
	k := scaleKernel(ir.ArrayTypeSymbolic, "", "")
	k.OnelineDescription = "returns a*/b\nsecond line"
	d := &ir.ModuleDescriptor{ModuleName: "m", Kernels: []ir.Kernel{k}}

	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, d))

	out := buf.String()
	assert.Contains(t, out, "/* scale: returns a* /b second line */\n")
	assert.NotContains(t, out, "a*/b")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRender_WriteError(t *testing.T) {
	err := New().Render(failingWriter{}, exampleDescriptor())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
