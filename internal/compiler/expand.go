package compiler

import (
	"encoding/json"
	"strings"

	"github.com/roach88/kernelgen/internal/ir"
)

// variant is one point of the (array type, kind, ellipsis form) product.
type variant struct {
	ArrayType string
	Kind      string
	Ellipsis  string // form as configured, e.g. "none" or "..."
}

// expansionRule rejects variants that cannot be generated. Rules see only
// the axis choices and whether the prototype has input arguments, so they
// can be tested without rendering anything.
type expansionRule struct {
	Name  string
	Allow func(v variant, hasInputs bool) bool
}

var expansionRules = []expansionRule{
	{
		// runtime-variable shapes are only meaningful for xnd containers
		Name: "variable-requires-xnd",
		Allow: func(v variant, _ bool) bool {
			return v.ArrayType != ir.ArrayTypeVariable || v.Kind == ir.KindXnd
		},
	},
	{
		// `void -> ... * T` is not a valid signature
		Name: "ellipsis-requires-input",
		Allow: func(v variant, hasInputs bool) bool {
			return isNoneEllipsis(v.Ellipsis) || hasInputs
		},
	},
}

// rejectedBy returns the name of the first rule that rejects v, or "".
func rejectedBy(v variant, hasInputs bool) string {
	for _, rule := range expansionRules {
		if !rule.Allow(v, hasInputs) {
			return rule.Name
		}
	}
	return ""
}

// variants enumerates the allowed variants in array type → kind → ellipsis
// order.
func variants(arraytypes, kinds, ellipses []string, hasInputs bool) []variant {
	var out []variant
	for _, arraytype := range arraytypes {
		for _, kind := range kinds {
			for _, ellipsis := range ellipses {
				v := variant{ArrayType: arraytype, Kind: kind, Ellipsis: ellipsis}
				if rejectedBy(v, hasInputs) == "" {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

// expand produces one kernel per allowed variant of p. Each kernel holds a
// deep copy of p.
func expand(p *ir.Prototype, arraytypes, kinds, ellipses []string) ([]ir.Kernel, error) {
	inputs, _ := p.InputOutputArguments()

	var kernels []ir.Kernel
	for _, v := range variants(arraytypes, kinds, ellipses, len(inputs) > 0) {
		k := ir.Kernel{
			Prototype: *p.Clone(),
			Kind:      v.Kind,
			ArrayType: v.ArrayType,
			Ellipses:  renderEllipses(v.Ellipsis, v.ArrayType),
		}
		k.EllipsesName = ellipsesName(k.Ellipses)

		id, err := ir.KernelID(&k)
		if err != nil {
			return nil, err
		}
		k.ID = id

		repr, err := json.MarshalIndent(&k, "", "    ")
		if err != nil {
			return nil, err
		}
		k.Repr = string(repr)

		kernels = append(kernels, k)
	}
	return kernels, nil
}

// isNoneEllipsis reports whether form means "no ellipsis".
func isNoneEllipsis(form string) bool {
	return form == "" || strings.EqualFold(form, "none")
}

// renderEllipses renders an ellipsis form as a type-signature prefix.
// The plain "..." broadcast marker becomes "var..." for variable arrays.
func renderEllipses(form, arraytype string) string {
	if isNoneEllipsis(form) {
		return ""
	}
	if form == "..." && arraytype == ir.ArrayTypeVariable {
		return "var" + form + " * "
	}
	return form + " * "
}

var ellipsesNameReplacer = strings.NewReplacer("...", "_DOTS_", ".", "_DOT_", "*", "_STAR_", " ", "")

// ellipsesName turns a rendered ellipsis into an identifier fragment.
func ellipsesName(rendered string) string {
	return ellipsesNameReplacer.Replace(rendered)
}
