package compiler

import (
	"fmt"

	"github.com/roach88/kernelgen/internal/ir"
)

// Validation error codes (E300-E399)
const (
	ErrDuplicateIdentity  = "E301" // two kernels share an identity tuple
	ErrVariableNotXnd     = "E302" // variable array type on a non-Xnd kernel
	ErrEllipsisNoInputs   = "E303" // ellipsis on a kernel without inputs
	ErrInvalidArrayType   = "E304" // unknown array type
	ErrKernelIDMismatch   = "E305" // stored ID does not match content
	ErrUnknownDependency  = "E306" // dependency on an undeclared argument
	ErrEllipsisNameFormat = "E307" // ellipses_name does not match ellipses
)

// ValidationError represents a descriptor invariant violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the invariants every assembled descriptor must satisfy.
// Returns all errors found (does not fail-fast).
func Validate(d *ir.ModuleDescriptor) []ValidationError {
	var errs []ValidationError
	seen := make(map[ir.Identity]int)

	for i := range d.Kernels {
		k := &d.Kernels[i]
		field := fmt.Sprintf("kernels[%d]", i)

		// E301: identity tuples are unique
		if prev, dup := seen[k.Identity()]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("kernel %s duplicates kernels[%d]", k.Identity(), prev),
				Code:    ErrDuplicateIdentity,
			})
		} else {
			seen[k.Identity()] = i
		}

		// E304: array type is known
		if !ir.ValidArrayTypes[k.ArrayType] {
			errs = append(errs, ValidationError{
				Field:   field + ".arraytype",
				Message: fmt.Sprintf("unknown array type %q", k.ArrayType),
				Code:    ErrInvalidArrayType,
			})
		}

		// E302: variable array type only for Xnd kernels
		if k.ArrayType == ir.ArrayTypeVariable && k.Kind != ir.KindXnd {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("variable array type requires kind %q, got %q", ir.KindXnd, k.Kind),
				Code:    ErrVariableNotXnd,
			})
		}

		// E303: ellipsis requires inputs
		inputs, _ := k.InputOutputArguments()
		if k.Ellipses != "" && len(inputs) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".ellipses",
				Message: fmt.Sprintf("%s has no input arguments but ellipses %q", k.FunctionName, k.Ellipses),
				Code:    ErrEllipsisNoInputs,
			})
		}

		// E307: ellipses name is derived from ellipses
		if want := ellipsesName(k.Ellipses); k.EllipsesName != want {
			errs = append(errs, ValidationError{
				Field:   field + ".ellipses_name",
				Message: fmt.Sprintf("expected %q, got %q", want, k.EllipsesName),
				Code:    ErrEllipsisNameFormat,
			})
		}

		// E306: dependencies name declared arguments
		for j, arg := range k.Arguments {
			for _, dep := range arg.Depends {
				if _, ok := k.Argument(dep); !ok {
					errs = append(errs, ValidationError{
						Field:   fmt.Sprintf("%s.arguments[%d].depends", field, j),
						Message: fmt.Sprintf("%s depends on undeclared argument %q", arg.Name, dep),
						Code:    ErrUnknownDependency,
					})
				}
			}
		}

		// E305: ID matches content
		if id, err := ir.KernelID(k); err != nil || id != k.ID {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("kernel ID %q does not match its content", k.ID),
				Code:    ErrKernelIDMismatch,
			})
		}
	}

	return errs
}
