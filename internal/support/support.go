// Package support ships the default support sources compiled into every
// kernel module.
//
// The files are embedded in the binary and installed on demand into a
// versioned directory under the user cache, so the include directory and
// source paths listed in a module descriptor point at real files.
package support

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/kernelgen/internal/ir"
)

//go:embed files/*
var files embed.FS

// Names returns the embedded file names in lexical order.
func Names() []string {
	entries, _ := fs.ReadDir(files, "files")
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

// DefaultDir is the install directory of the support files of this
// generator version.
func DefaultDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache directory: %w", err)
	}
	return filepath.Join(cache, "kernelgen", "support-"+ir.GeneratorVersion), nil
}

// Install writes the embedded files into dir and returns dir. Files that
// already hold the embedded content are left untouched.
func Install(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("install support files: %w", err)
	}
	for _, name := range Names() {
		data, err := files.ReadFile("files/" + name)
		if err != nil {
			return "", err
		}
		target := filepath.Join(dir, name)
		if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, data) {
			continue
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return "", fmt.Errorf("install support files: %w", err)
		}
	}
	return dir, nil
}

// InstallDefault installs the support files into DefaultDir.
func InstallDefault() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return Install(dir)
}
