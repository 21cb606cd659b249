package cli

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/roach88/kernelgen/internal/compiler"
	"github.com/roach88/kernelgen/internal/config"
	"github.com/roach88/kernelgen/internal/ir"
	"github.com/roach88/kernelgen/internal/prototype"
	"github.com/roach88/kernelgen/internal/support"
)

// CLI error codes. Generation errors carry their own compiler codes
// (E2xx) and are reported unchanged.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeConfigSyntax   = "E004" // Config file does not parse
	ErrCodeNotFound       = "E005" // Path not found
	ErrCodeWriteFailed    = "E007" // File write error
	ErrCodeManifestFailed = "E008" // Manifest database error
	ErrCodeRunNotFound    = "E009" // Module has no recorded runs
)

// LoadOptions controls descriptor loading.
type LoadOptions struct {
	SupportDir string
	Logger     *zap.Logger
}

// LoadError represents a failure to read a kernel configuration.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadDescriptor reads the kernel configuration at path and assembles its
// module descriptor.
func LoadDescriptor(path string, opts LoadOptions) (*ir.ModuleDescriptor, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path), Err: err}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config file: %v", err), Err: err}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfigSyntax, Message: err.Error(), Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("loaded config", zap.String("path", path), zap.Int("sections", len(cfg.Sections())))

	return compiler.Assemble(cfg, prototype.NewReader(), compiler.Options{
		SupportDir: opts.SupportDir,
		Logger:     logger,
	})
}

// resolveSupportDir returns dir, or the installed default support files
// when dir is empty.
func resolveSupportDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return support.InstallDefault()
}

// errorCode returns the CLI error code for an error from LoadDescriptor.
func errorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	if code := compiler.ErrorCode(err); code != "" {
		return code
	}
	return ErrCodeGeneric
}
