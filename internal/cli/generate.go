package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/kernelgen/internal/ir"
	"github.com/roach88/kernelgen/internal/render"
	"github.com/roach88/kernelgen/internal/store"
)

// StdoutTarget is the --output value that writes the generated source to
// standard output instead of a file.
const StdoutTarget = "stdout"

// stdoutSourceName stands in for the generated file in GenerateResult.Sources
// when the source went to standard output.
const stdoutSourceName = "<stdout>"

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Output     string // target file, StdoutTarget, or "" for <source-dir>/<module>-kernels.c
	SourceDir  string // directory of the default target file
	SupportDir string // support sources compiled into every module
	Manifest   string // manifest database path, "" to skip recording

	BusyTimeout time.Duration // wait for a locked manifest
}

// GenerateResult describes a generated module.
type GenerateResult struct {
	ConfigFile  string   `json:"config_file"`
	Module      string   `json:"module"`
	KernelCount int      `json:"kernel_count"`
	Sources     []string `json:"sources"` // generated file first
	IncludeDirs []string `json:"include_dirs"`
	RunID       string   `json:"run_id,omitempty"`
	RunSeq      int64    `json:"run_seq,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <config>",
		Short: "Generate kernel module sources from a kernel configuration",
		Long: `Generate the C source of a gumath kernel module.

The configuration may be INI (.cfg, .ini), CUE (.cue) or YAML (.yaml, .yml).
By default the source is written to <source-dir>/<module>-kernels.c; use
--output stdout to print it instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", `output file path, or "stdout"`)
	cmd.Flags().StringVar(&opts.SourceDir, "source-dir", "", "directory of the default output file")
	cmd.Flags().StringVar(&opts.SupportDir, "support-dir", "", "directory of support sources and headers (default: the embedded support files)")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "record the run in this manifest database")
	cmd.Flags().DurationVar(&opts.BusyTimeout, "busy-timeout", store.DefaultBusyTimeout, "how long to wait for a locked manifest")

	return cmd
}

func runGenerate(opts *GenerateOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := opts.logger()

	supportDir, err := resolveSupportDir(opts.SupportDir)
	if err != nil {
		return formatter.Fail(ErrCodeWriteFailed, err)
	}
	d, err := LoadDescriptor(configPath, LoadOptions{SupportDir: supportDir, Logger: logger})
	if err != nil {
		return formatter.Fail(errorCode(err), err)
	}
	formatter.VerboseLog("Assembled module %s: %d kernel(s)", d.ModuleName, len(d.Kernels))

	result := &GenerateResult{
		ConfigFile:  configPath,
		Module:      d.ModuleName,
		KernelCount: len(d.Kernels),
		IncludeDirs: d.IncludeDirs,
	}

	target, err := writeSource(d, opts, cmd.OutOrStdout(), logger)
	if err != nil {
		return formatter.Fail(ErrCodeWriteFailed, err)
	}
	result.Sources = append([]string{target}, d.Sources...)

	if opts.Manifest != "" {
		run, err := recordRun(cmd, opts, configPath, d, logger)
		if err != nil {
			return formatter.Fail(ErrCodeManifestFailed, err)
		}
		result.RunID = run.ID
		result.RunSeq = run.Seq
	}

	// The source itself is the output when printed to stdout.
	if target == stdoutSourceName {
		return nil
	}
	return outputGenerateSuccess(formatter, result, opts.Manifest)
}

// writeSource renders d and writes it to the configured target. It returns
// the name of the written source.
func writeSource(d *ir.ModuleDescriptor, opts *GenerateOptions, stdout io.Writer, logger *zap.Logger) (string, error) {
	var buf bytes.Buffer
	if err := render.New().Render(&buf, d); err != nil {
		return "", err
	}

	if opts.Output == StdoutTarget {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return "", fmt.Errorf("writing to stdout: %w", err)
		}
		return stdoutSourceName, nil
	}

	target := opts.Output
	if target == "" {
		target = filepath.Join(opts.SourceDir, d.ModuleName+"-kernels.c")
	}
	logger.Info("kernel sources are saved", zap.String("path", target))
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return target, nil
}

func recordRun(cmd *cobra.Command, opts *GenerateOptions, configPath string, d *ir.ModuleDescriptor, logger *zap.Logger) (store.Run, error) {
	s, err := store.Open(opts.Manifest, store.WithBusyTimeout(opts.BusyTimeout))
	if err != nil {
		return store.Run{}, err
	}
	defer s.Close()

	ctx := cmd.Context()
	hash, err := ir.DescriptorHash(d)
	if err != nil {
		return store.Run{}, err
	}
	prev, unchanged, err := s.FindRunByHash(ctx, d.ModuleName, hash)
	if err != nil {
		return store.Run{}, err
	}
	if unchanged {
		logger.Debug("descriptor unchanged since earlier run",
			zap.String("module", d.ModuleName),
			zap.String("run", prev.ID),
			zap.Int64("seq", prev.Seq))
	}

	run, err := s.RecordRun(ctx, configPath, d)
	if err != nil {
		return store.Run{}, err
	}
	logger.Debug("recorded run", zap.String("run", run.ID), zap.Int64("seq", run.Seq))
	return run, nil
}

func outputGenerateSuccess(formatter *OutputFormatter, result *GenerateResult, manifest string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Generated module %s: %d kernel(s)\n", result.Module, result.KernelCount)
	fmt.Fprintf(formatter.Writer, "Wrote kernel sources to %s\n", result.Sources[0])
	if result.RunID != "" {
		fmt.Fprintf(formatter.Writer, "Recorded run %s (seq %d) in %s\n", result.RunID, result.RunSeq, manifest)
	}
	return nil
}
