package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/kernelgen/internal/store"
)

// ManifestOptions holds flags for the manifest command.
type ManifestOptions struct {
	*RootOptions
	Diff        bool
	BusyTimeout time.Duration
}

// ManifestResult is the latest recorded run of a module.
type ManifestResult struct {
	Run     store.Run            `json:"run"`
	Kernels []store.KernelRecord `json:"kernels"`
	Diff    *store.KernelDiff    `json:"diff,omitempty"`
}

// NewManifestCommand creates the manifest command.
func NewManifestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ManifestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "manifest <db> <module>",
		Short: "Show the kernels of the latest recorded run of a module",
		Long: `Show the kernels generated by the latest run of a module, as recorded
by "generate --manifest". With --diff, also list the kernels added and
removed since the previous run.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifest(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "compare with the previous run")
	cmd.Flags().DurationVar(&opts.BusyTimeout, "busy-timeout", store.DefaultBusyTimeout, "how long to wait for a locked manifest")

	return cmd
}

func runManifest(opts *ManifestOptions, dbPath, module string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Open would create an empty database; a missing manifest is an error.
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return formatter.Fail(ErrCodeNotFound, fmt.Errorf("manifest not found: %s", dbPath))
	}

	s, err := store.Open(dbPath, store.WithBusyTimeout(opts.BusyTimeout))
	if err != nil {
		return formatter.Fail(ErrCodeManifestFailed, err)
	}
	defer s.Close()

	ctx := cmd.Context()
	runs, err := s.Runs(ctx, module)
	if err != nil {
		return formatter.Fail(ErrCodeManifestFailed, err)
	}
	if len(runs) == 0 {
		return formatter.Fail(ErrCodeRunNotFound, fmt.Errorf("no runs recorded for module %q", module))
	}
	formatter.VerboseLog("Found %d run(s) of module %s", len(runs), module)

	latest := runs[len(runs)-1]
	result := &ManifestResult{Run: latest}
	if result.Kernels, err = s.Kernels(ctx, latest.ID); err != nil {
		return formatter.Fail(ErrCodeManifestFailed, err)
	}

	if opts.Diff {
		previous := ""
		if len(runs) > 1 {
			previous = runs[len(runs)-2].ID
		}
		diff, err := s.Diff(ctx, previous, latest.ID)
		if err != nil {
			return formatter.Fail(ErrCodeManifestFailed, err)
		}
		result.Diff = &diff
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	printManifest(formatter, result)
	return nil
}

func printManifest(formatter *OutputFormatter, result *ManifestResult) {
	w := formatter.Writer
	run := result.Run
	fmt.Fprintf(w, "Run %s (seq %d) of module %s: %d kernel(s)\n", run.ID, run.Seq, run.Module, run.KernelCount)
	fmt.Fprintf(w, "Config: %s\n", run.ConfigPath)
	fmt.Fprintf(w, "Descriptor: %s\n", run.DescriptorHash)

	fmt.Fprintln(w, "\nKernels:")
	for _, k := range result.Kernels {
		fmt.Fprintf(w, "  %s\n", kernelLine(k))
	}

	if d := result.Diff; d != nil {
		fmt.Fprintln(w)
		if d.From == "" {
			fmt.Fprintln(w, "No previous run.")
		} else if d.Empty() {
			fmt.Fprintf(w, "No changes since run %s.\n", d.From)
		} else {
			fmt.Fprintf(w, "Changes since run %s:\n", d.From)
		}
		for _, k := range d.Added {
			fmt.Fprintf(w, "  + %s\n", kernelLine(k))
		}
		for _, k := range d.Removed {
			fmt.Fprintf(w, "  - %s\n", kernelLine(k))
		}
		fmt.Fprintf(w, "  %d unchanged\n", d.Unchanged)
	}
}

func kernelLine(k store.KernelRecord) string {
	return fmt.Sprintf("%s[kind=%s arraytype=%s ellipses=%q] %s", k.FunctionName, k.Kind, k.ArrayType, k.Ellipses, shortID(k.KernelID))
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
