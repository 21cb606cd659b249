package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/kernelgen/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Module      string                     `json:"module,omitempty"`
	KernelCount int                        `json:"kernel_count"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a kernel configuration without generating sources",
		Long: `Assemble a kernel configuration and check the invariants of the
resulting descriptor: unique kernel identities, variable array types only
on Xnd kernels, no ellipsis without inputs and content-addressed IDs that
match their kernels.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	d, err := LoadDescriptor(configPath, LoadOptions{Logger: opts.logger()})
	if err != nil {
		return formatter.Fail(errorCode(err), err)
	}
	formatter.VerboseLog("Validating %d kernel(s) of module %s", len(d.Kernels), d.ModuleName)

	result := ValidationResult{
		Valid:       true,
		Module:      d.ModuleName,
		KernelCount: len(d.Kernels),
		Errors:      compiler.Validate(d),
	}
	if len(result.Errors) > 0 {
		result.Valid = false
		return outputValidationErrors(formatter, result)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Module %s: %d kernel(s) valid\n", result.Module, result.KernelCount)
	return nil
}

// outputValidationErrors outputs validation errors in the configured format.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		first := result.Errors[0]
		response := CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: first.Code, Message: first.Message},
			Data:   result,
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
