package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kernelgen/internal/ir"
)

func TestExpansionRules(t *testing.T) {
	tests := []struct {
		name      string
		v         variant
		hasInputs bool
		rejected  string
	}{
		{"symbolic xnd", variant{"symbolic", "Xnd", "..."}, true, ""},
		{"symbolic C", variant{"symbolic", "C", "none"}, true, ""},
		{"variable xnd", variant{"variable", "Xnd", "..."}, true, ""},
		{"variable C", variant{"variable", "C", "none"}, true, "variable-requires-xnd"},
		{"variable Fortran", variant{"variable", "Fortran", ""}, false, "variable-requires-xnd"},
		{"ellipsis without inputs", variant{"symbolic", "Xnd", "..."}, false, "ellipsis-requires-input"},
		{"none without inputs", variant{"symbolic", "Xnd", "None"}, false, ""},
		{"empty without inputs", variant{"symbolic", "Xnd", ""}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rejected, rejectedBy(tt.v, tt.hasInputs))
		})
	}
}

func TestVariantsOrder(t *testing.T) {
	got := variants(
		[]string{"symbolic", "variable"},
		[]string{"Xnd", "C"},
		[]string{"none", "..."},
		true,
	)

	want := []variant{
		{"symbolic", "Xnd", "none"},
		{"symbolic", "Xnd", "..."},
		{"symbolic", "C", "none"},
		{"symbolic", "C", "..."},
		{"variable", "Xnd", "none"},
		{"variable", "Xnd", "..."},
	}
	assert.Equal(t, want, got)
}

func TestRenderEllipses(t *testing.T) {
	tests := []struct {
		form, arraytype, rendered, name string
	}{
		{"none", "symbolic", "", ""},
		{"NONE", "variable", "", ""},
		{"", "symbolic", "", ""},
		{"...", "symbolic", "... * ", "_DOTS__STAR_"},
		{"...", "variable", "var... * ", "var_DOTS__STAR_"},
		{"Dims...", "variable", "Dims... * ", "Dims_DOTS__STAR_"},
		{"2.5", "symbolic", "2.5 * ", "2_DOT_5_STAR_"},
	}

	for _, tt := range tests {
		t.Run(tt.form+"/"+tt.arraytype, func(t *testing.T) {
			rendered := renderEllipses(tt.form, tt.arraytype)
			assert.Equal(t, tt.rendered, rendered)
			assert.Equal(t, tt.name, ellipsesName(rendered))
		})
	}
}

func singleInputPrototype() *ir.Prototype {
	return &ir.Prototype{
		FunctionName: "f",
		Type:         "float32",
		CType:        "float32_t",
		Arguments: []ir.Argument{
			{Name: "x", Type: "float32", CType: "float32_t", Intent: ir.IntentInput},
		},
	}
}

// TestExpandSingleInput covers f(x: float32) -> float32 with
// array types {symbolic, variable} and ellipses {none, ...}.
func TestExpandSingleInput(t *testing.T) {
	kernels, err := expand(singleInputPrototype(),
		[]string{"symbolic", "variable"}, []string{"Xnd"}, []string{"none", "..."})
	require.NoError(t, err)
	require.Len(t, kernels, 4)

	got := make([][2]string, len(kernels))
	for i, k := range kernels {
		got[i] = [2]string{k.ArrayType, k.Ellipses}
		assert.Equal(t, "Xnd", k.Kind)
		assert.NotEmpty(t, k.ID)
		assert.Contains(t, k.Repr, `"function_name": "f"`)
	}
	assert.Equal(t, [][2]string{
		{"symbolic", ""},
		{"symbolic", "... * "},
		{"variable", ""},
		{"variable", "var... * "},
	}, got)
}

func TestExpandNoInputs(t *testing.T) {
	p := singleInputPrototype()
	p.Arguments[0].Intent = ir.IntentOutput

	kernels, err := expand(p,
		[]string{"symbolic", "variable"}, []string{"Xnd", "C"}, []string{"none", "..."})
	require.NoError(t, err)

	require.Len(t, kernels, 3)
	for _, k := range kernels {
		assert.Equal(t, "", k.Ellipses)
	}
}

func TestExpandDeepCopies(t *testing.T) {
	p := singleInputPrototype()
	p.Arguments[0].Shape = []string{"n"}

	kernels, err := expand(p, []string{"symbolic"}, []string{"Xnd"}, []string{"none", "..."})
	require.NoError(t, err)
	require.Len(t, kernels, 2)

	kernels[0].Arguments[0].Shape[0] = "changed"
	assert.Equal(t, "n", kernels[1].Arguments[0].Shape[0])
	assert.Equal(t, "n", p.Arguments[0].Shape[0])
}

func TestExpandEmptyAxis(t *testing.T) {
	kernels, err := expand(singleInputPrototype(), []string{"symbolic"}, []string{"Xnd"}, nil)
	require.NoError(t, err)
	assert.Empty(t, kernels)
}
