// Package config loads kernel configuration files into an ordered
// section → key → value mapping.
//
// Three front ends are supported and all preserve section and key order:
//
//   - .cfg / .ini   configparser-style INI, the native kernel config format
//   - .cue          CUE, one struct field per section
//   - .yaml / .yml  YAML, one mapping entry per section
//
// Values are always strings. List values in CUE and YAML are joined with
// newlines, matching a multi-line INI value.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is a loaded configuration.
type File struct {
	Path     string
	sections []*Section
	byName   map[string]*Section
}

// Section is one named section of a configuration file.
type Section struct {
	name   string
	keys   []string
	values map[string]string
}

// LoadError reports a configuration file that cannot be loaded.
type LoadError struct {
	Path    string
	Line    int
	Message string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// NewFile creates an empty configuration.
func NewFile(path string) *File {
	return &File{Path: path, byName: make(map[string]*Section)}
}

// AddSection appends a new section. Section names must be unique.
func (f *File) AddSection(name string) (*Section, error) {
	if _, dup := f.byName[name]; dup {
		return nil, fmt.Errorf("duplicate section %q", name)
	}
	s := &Section{name: name, values: make(map[string]string)}
	f.sections = append(f.sections, s)
	f.byName[name] = s
	return s, nil
}

// Sections returns the section names in file order.
func (f *File) Sections() []string {
	names := make([]string, len(f.sections))
	for i, s := range f.sections {
		names[i] = s.name
	}
	return names
}

// section returns the named section, or nil.
func (f *File) section(name string) *Section {
	return f.byName[name]
}

// Lookup returns the value of key in section and whether it is present.
func (f *File) Lookup(section, key string) (string, bool) {
	s := f.byName[section]
	if s == nil {
		return "", false
	}
	return s.Lookup(key)
}

// Get returns the value of key in section, or def when absent.
func (f *File) Get(section, key, def string) string {
	if v, ok := f.Lookup(section, key); ok {
		return v
	}
	return def
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// Set sets a key. Keys are case-insensitive and stored lower-cased.
func (s *Section) Set(key, value string) {
	key = strings.ToLower(key)
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Lookup returns the value of key and whether it is present.
func (s *Section) Lookup(key string) (string, bool) {
	v, ok := s.values[strings.ToLower(key)]
	return v, ok
}

// Get returns the value of key, or def when the key is absent.
func (s *Section) Get(key, def string) string {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	return def
}

// keyNames returns the keys in file order.
func (s *Section) keyNames() []string {
	return append([]string(nil), s.keys...)
}

// Load reads a configuration file, choosing the front end by extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return ParseCUE(path, data)
	case ".yaml", ".yml":
		return ParseYAML(path, data)
	default:
		return ParseINI(path, data)
	}
}

// Truthy interprets a config flag. Empty, "0", "false", "no" and "off"
// are false; anything else is true.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
