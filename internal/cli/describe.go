package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/kernelgen/internal/ir"
	"github.com/roach88/kernelgen/internal/render"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	SupportDir string
	Repr       bool // print each kernel's debug representation
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <config>",
		Short: "Print the module descriptor of a kernel configuration",
		Long: `Assemble a kernel configuration and print the resulting module
descriptor without generating any source.

With --format json the full descriptor is printed. The text format lists
every kernel variant with its signature; --repr adds each kernel's debug
representation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SupportDir, "support-dir", "", "directory of support sources and headers (default: the embedded support files)")
	cmd.Flags().BoolVar(&opts.Repr, "repr", false, "print the debug representation of every kernel")

	return cmd
}

func runDescribe(opts *DescribeOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	supportDir, err := resolveSupportDir(opts.SupportDir)
	if err != nil {
		return formatter.Fail(ErrCodeWriteFailed, err)
	}
	d, err := LoadDescriptor(configPath, LoadOptions{SupportDir: supportDir, Logger: opts.logger()})
	if err != nil {
		return formatter.Fail(errorCode(err), err)
	}

	if formatter.Format == "json" {
		return formatter.Success(d)
	}
	printDescriptor(formatter, d, opts.Repr)
	return nil
}

func printDescriptor(formatter *OutputFormatter, d *ir.ModuleDescriptor, repr bool) {
	w := formatter.Writer
	fmt.Fprintf(w, "Module %s: %d kernel(s)\n", d.ModuleName, len(d.Kernels))

	if len(d.IncludeDirs) > 0 {
		fmt.Fprintln(w, "\nInclude dirs:")
		for _, dir := range d.IncludeDirs {
			fmt.Fprintf(w, "  %s\n", dir)
		}
	}
	if len(d.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, src := range d.Sources {
			fmt.Fprintf(w, "  %s\n", src)
		}
	}

	if len(d.Kernels) > 0 {
		fmt.Fprintln(w, "\nKernels:")
		for i := range d.Kernels {
			k := &d.Kernels[i]
			fmt.Fprintf(w, "  %s: %s\n", k.Identity(), render.Signature(k))
			if repr {
				fmt.Fprintln(w, k.Repr)
			}
		}
	}

	if len(d.TypemapTests) > 0 {
		fmt.Fprintln(w, "\nTypemap checks:")
		for _, tc := range d.TypemapTests {
			fmt.Fprintf(w, "  %s -> %s (%s)\n", tc.OrigType, tc.NormalType, tc.CType)
		}
	}
}
