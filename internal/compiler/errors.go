package compiler

import (
	"errors"
	"fmt"
)

// Compile error codes (E200-E299). All are fatal: generation stops and no
// partial descriptor is returned.
const (
	ErrCodeGeneric            = "E200" // unexpected internal failure
	ErrCodeDuplicateModule    = "E201" // more than one MODULE section
	ErrCodeMissingModule      = "E202" // no MODULE section
	ErrCodeKernelBeforeModule = "E203" // KERNEL section precedes MODULE section
	ErrCodeInvalidArrayType   = "E204" // array type not symbolic|variable
	ErrCodeDuplicateValue     = "E205" // argument value bound twice
	ErrCodeUnknownArgument    = "E206" // reference to an undeclared argument
	ErrCodeDependencyCycle    = "E207" // argument dependencies form a cycle
	ErrCodeDuplicateKernel    = "E208" // two kernels share an identity
	ErrCodeInvalidTypemap     = "E209" // malformed typemaps rule
	ErrCodePrototypeSyntax    = "E210" // prototype text does not parse
	ErrCodeInvalidSpec        = "E211" // argument specification has no name
	ErrCodeInvalidSection     = "E212" // section header missing its name
)

// CompileError is a fatal error raised while assembling a module.
type CompileError struct {
	Code    string
	Section string // config section, e.g. "KERNEL scale"
	Message string
	Err     error // underlying error (optional)
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the compile error code of err, or "" if err is not a
// CompileError. Uses errors.As to handle wrapped errors.
func ErrorCode(err error) string {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCycleError returns true if err reports a dependency cycle.
func IsCycleError(err error) bool {
	return ErrorCode(err) == ErrCodeDependencyCycle
}

func newCompileError(code, section, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Section: section, Message: fmt.Sprintf(format, args...)}
}

func wrapCompileError(code, section string, err error) *CompileError {
	return &CompileError{Code: code, Section: section, Message: err.Error(), Err: err}
}
