package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/kernelgen/internal/config"
	"github.com/roach88/kernelgen/internal/expr"
	"github.com/roach88/kernelgen/internal/ir"
	"github.com/roach88/kernelgen/internal/typemap"
)

// Config is the parsed kernel configuration: ordered sections of key/value
// pairs. *config.File implements it.
type Config interface {
	Sections() []string
	Lookup(section, key string) (string, bool)
	Get(section, key, def string) string
}

// PrototypeReader parses a prototype block into prototypes, in declaration
// order. *prototype.Reader implements it.
type PrototypeReader interface {
	Read(text string) ([]*ir.Prototype, error)
}

// Options configures module assembly.
type Options struct {
	// SupportDir holds the support C sources compiled into every module.
	// It is the first include directory and its *.c files are the first
	// sources. Empty means no support sources.
	SupportDir string

	// Logger receives diagnostics for skipped sections and expressions.
	// Nil disables logging.
	Logger *zap.Logger
}

// Module defaults used when the MODULE section does not set them.
const (
	DefaultKinds      = ir.KindXnd
	DefaultEllipses   = "..."
	DefaultArrayTypes = ir.ArrayTypeSymbolic
)

const (
	modulePrefix = "MODULE"
	kernelPrefix = "KERNEL"
)

// moduleSpec holds the MODULE section settings.
type moduleSpec struct {
	Name       string
	Section    string
	Debug      bool
	Kinds      []string
	Ellipses   []string
	ArrayTypes []string
}

// assembler accumulates one module descriptor. It is created per Assemble
// call and never reused.
type assembler struct {
	cfg    Config
	reader PrototypeReader
	opts   Options
	logger *zap.Logger

	module   *moduleSpec
	enricher *enricher

	includeDirs []string
	sources     []string
	kernels     []ir.Kernel
	identities  map[ir.Identity]string // identity → section that produced it
}

// Assemble walks the config sections in file order and returns the module
// descriptor. Every error it returns is fatal.
func Assemble(cfg Config, reader PrototypeReader, opts Options) (*ir.ModuleDescriptor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &assembler{
		cfg:        cfg,
		reader:     reader,
		opts:       opts,
		logger:     logger,
		identities: make(map[ir.Identity]string),
		enricher: &enricher{
			typemap: typemap.New(),
			tests:   newTypeTests(),
			logger:  logger,
		},
	}

	if err := a.addSupport(); err != nil {
		return nil, err
	}

	for _, section := range cfg.Sections() {
		var err error
		switch {
		case strings.HasPrefix(section, modulePrefix):
			err = a.addModule(section)
		case strings.HasPrefix(section, kernelPrefix):
			err = a.addKernel(section)
		default:
			a.logger.Debug("ignoring section", zap.String("section", section))
		}
		if err != nil {
			return nil, err
		}
	}

	if a.module == nil {
		return nil, newCompileError(ErrCodeMissingModule, "", "no %s section found", modulePrefix)
	}
	return a.descriptor(), nil
}

func (a *assembler) addSupport() error {
	if a.opts.SupportDir == "" {
		return nil
	}
	a.includeDirs = append(a.includeDirs, a.opts.SupportDir)
	// filepath.Glob returns matches in lexical order
	matches, err := filepath.Glob(filepath.Join(a.opts.SupportDir, "*.c"))
	if err != nil {
		return wrapCompileError(ErrCodeGeneric, "", err)
	}
	a.sources = append(a.sources, matches...)
	return nil
}

func (a *assembler) addModule(section string) error {
	if a.module != nil {
		return newCompileError(ErrCodeDuplicateModule, section,
			"only one %s section is allowed, already have %q", modulePrefix, a.module.Section)
	}
	name := sectionName(section, modulePrefix)
	if name == "" {
		return newCompileError(ErrCodeInvalidSection, section, "expected [%s <name>]", modulePrefix)
	}

	if err := a.enricher.typemap.ParseRules(a.cfg.Get(section, "typemaps", "")); err != nil {
		return wrapCompileError(ErrCodeInvalidTypemap, section, err)
	}
	a.includeDirs = append(a.includeDirs, lines(a.cfg.Get(section, "include_dirs", ""))...)
	a.sources = append(a.sources, lines(a.cfg.Get(section, "sources", ""))...)

	m := &moduleSpec{
		Name:       name,
		Section:    section,
		Debug:      config.Truthy(a.cfg.Get(section, "debug", "")),
		Kinds:      expr.SplitList(a.cfg.Get(section, "kinds", DefaultKinds)),
		Ellipses:   expr.SplitList(a.cfg.Get(section, "ellipses", DefaultEllipses)),
		ArrayTypes: expr.SplitList(a.cfg.Get(section, "arraytypes", DefaultArrayTypes)),
	}
	if err := validateArrayTypes(section, m.ArrayTypes); err != nil {
		return err
	}
	a.module = m
	return nil
}

func (a *assembler) addKernel(section string) error {
	if config.Truthy(a.cfg.Get(section, "skip", "")) {
		return nil
	}
	if a.module == nil {
		return newCompileError(ErrCodeKernelBeforeModule, section,
			"kernel section appears before the %s section", modulePrefix)
	}
	name := sectionName(section, kernelPrefix)
	if name == "" {
		return newCompileError(ErrCodeInvalidSection, section, "expected [%s <name>]", kernelPrefix)
	}

	groups := []struct {
		key   string
		kinds []string
	}{
		{"prototypes_C", []string{ir.KindC}},
		{"prototypes_Fortran", []string{ir.KindFortran}},
		{"prototypes", expr.SplitList(a.cfg.Get(section, "kinds", ""))},
	}
	if len(groups[2].kinds) == 0 {
		groups[2].kinds = a.module.Kinds
	}

	protos := make([][]*ir.Prototype, len(groups))
	total := 0
	for i, g := range groups {
		ps, err := a.reader.Read(a.cfg.Get(section, g.key, ""))
		if err != nil {
			return wrapCompileError(ErrCodePrototypeSyntax, section, fmt.Errorf("%s: %w", g.key, err))
		}
		protos[i] = ps
		total += len(ps)
	}
	if total == 0 {
		a.logger.Info("no prototypes|prototypes_C|prototypes_Fortran defined, skipping",
			zap.String("kernel", name))
		return nil
	}

	spec := &kernelSpec{
		Section:     section,
		Name:        name,
		Description: strings.TrimSpace(a.cfg.Get(section, "description", "")),
		Debug:       a.module.Debug,
		Intents:     make(map[ir.Intent][]string, len(ir.Intents)),
		Dimensions:  expr.SplitList(a.cfg.Get(section, "dimension", "")),
	}
	if v, ok := a.cfg.Lookup(section, "debug"); ok {
		spec.Debug = config.Truthy(v)
	}
	for _, intent := range ir.Intents {
		spec.Intents[intent] = expr.SplitList(a.cfg.Get(section, string(intent)+"_arguments", ""))
	}

	ellipses := a.module.Ellipses
	if v, ok := a.cfg.Lookup(section, "ellipses"); ok {
		ellipses = expr.SplitList(v)
	}
	arraytypes := expr.SplitList(a.cfg.Get(section, "arraytypes", ""))
	if len(arraytypes) == 0 {
		arraytypes = a.module.ArrayTypes
	}
	if err := validateArrayTypes(section, arraytypes); err != nil {
		return err
	}

	for i, g := range groups {
		for _, p := range protos[i] {
			if err := a.enricher.enrich(p, spec); err != nil {
				return err
			}
			kernels, err := expand(p, arraytypes, g.kinds, ellipses)
			if err != nil {
				return wrapCompileError(ErrCodeGeneric, section, err)
			}
			for _, k := range kernels {
				if err := a.addExpanded(section, k); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (a *assembler) addExpanded(section string, k ir.Kernel) error {
	id := k.Identity()
	if prev, dup := a.identities[id]; dup {
		return newCompileError(ErrCodeDuplicateKernel, section,
			"kernel %s already generated by [%s]", id, prev)
	}
	a.identities[id] = section
	a.logger.Debug("expanded kernel",
		zap.String("function", k.FunctionName),
		zap.String("kind", k.Kind),
		zap.String("arraytype", k.ArrayType),
		zap.String("ellipses", k.Ellipses))
	a.kernels = append(a.kernels, k)
	return nil
}

func (a *assembler) descriptor() *ir.ModuleDescriptor {
	var includes []string
	for _, h := range strings.Fields(a.cfg.Get(a.module.Section, "includes", "")) {
		includes = append(includes, `#include "`+h+`"`)
	}
	return &ir.ModuleDescriptor{
		ModuleName:   a.module.Name,
		Includes:     strings.Join(includes, "\n"),
		IncludeDirs:  a.includeDirs,
		Sources:      a.sources,
		Kernels:      a.kernels,
		TypemapTests: a.enricher.tests.items,
	}
}

func validateArrayTypes(section string, arraytypes []string) error {
	for _, at := range arraytypes {
		if !ir.ValidArrayTypes[at] {
			return newCompileError(ErrCodeInvalidArrayType, section,
				"unsupported array type %q, must be %q or %q", at, ir.ArrayTypeSymbolic, ir.ArrayTypeVariable)
		}
	}
	return nil
}

// sectionName returns the name following prefix in a section header.
func sectionName(section, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(section, prefix))
}

// lines returns the non-blank, non-comment lines of text.
func lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
