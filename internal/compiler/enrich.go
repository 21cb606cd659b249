package compiler

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/kernelgen/internal/expr"
	"github.com/roach88/kernelgen/internal/ir"
	"github.com/roach88/kernelgen/internal/typemap"
)

// kernelSpec is the per-kernel configuration shared by all prototypes of a
// KERNEL section.
type kernelSpec struct {
	Section     string
	Name        string
	Description string
	Debug       bool
	Intents     map[ir.Intent][]string
	Dimensions  []string
}

// typeTests collects (original, canonical) type pairs in first-seen order.
type typeTests struct {
	seen  map[ir.TypeConversion]bool
	items []ir.TypeConversion
}

func newTypeTests() *typeTests {
	return &typeTests{seen: make(map[ir.TypeConversion]bool)}
}

func (t *typeTests) add(tc ir.TypeConversion) {
	if t.seen[tc] {
		return
	}
	t.seen[tc] = true
	t.items = append(t.items, tc)
}

// enricher attaches normalized types, intents, shapes, dependencies and
// values to prototypes.
type enricher struct {
	typemap *typemap.TypeMap
	tests   *typeTests
	logger  *zap.Logger
}

// enrich fills in p from spec. p is modified in place.
func (e *enricher) enrich(p *ir.Prototype, spec *kernelSpec) error {
	p.KernelName = spec.Name
	p.Description = spec.Description
	p.OnelineDescription = onelineDescription(spec.Description)
	p.Debug = spec.Debug

	e.applyTypemap(p)

	b := expr.NewBindings(p.ArgumentNames())

	for _, intent := range ir.Intents {
		for _, token := range spec.Intents[intent] {
			name, ok, err := e.resolve(b, p, spec, token)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := p.SetArgumentIntent(name, intent); err != nil {
				return wrapCompileError(ErrCodeUnknownArgument, spec.Section, err)
			}
		}
	}
	for i := range p.Arguments {
		if p.Arguments[i].Intent == "" {
			p.Arguments[i].Intent = ir.IntentInput
		}
	}

	for _, token := range spec.Dimensions {
		if _, _, err := e.resolve(b, p, spec, token); err != nil {
			return err
		}
	}

	b.ResolveShapeDepends()
	p.MaxRank = 0
	for _, shape := range b.Shapes() {
		if err := p.SetArgumentShape(shape.Name, shape.Dims); err != nil {
			return wrapCompileError(ErrCodeUnknownArgument, spec.Section, err)
		}
		arg, _ := p.Argument(shape.Name)
		if !arg.Intent.IsHidden() {
			p.MaxRank = max(p.MaxRank, len(shape.Dims))
		}
	}

	for _, dep := range b.Depends() {
		if err := p.SetArgumentDepends(dep.Name, dep.On); err != nil {
			return wrapCompileError(ErrCodeUnknownArgument, spec.Section, err)
		}
	}
	for _, v := range b.Values() {
		if err := p.SetArgumentValue(v.Name, v.Expr); err != nil {
			return wrapCompileError(ErrCodeUnknownArgument, spec.Section, err)
		}
	}

	if cycle := findCycle(b.Graph()); cycle != nil {
		return cycleError(spec.Section, p.FunctionName, cycle)
	}
	return nil
}

// resolve runs one specification token through the bindings builder.
// A malformed shape is logged and reported as ok=false; every other failure
// is fatal.
func (e *enricher) resolve(b *expr.Bindings, p *ir.Prototype, spec *kernelSpec, token string) (string, bool, error) {
	name, err := b.Resolve(token)
	if err == nil {
		return name, true, nil
	}
	if expr.IsRecoverable(err) {
		e.logger.Warn("ignoring malformed shape expression",
			zap.String("kernel", spec.Name),
			zap.String("function", p.FunctionName),
			zap.String("token", token),
			zap.Error(err))
		return "", false, nil
	}
	var dup *expr.DuplicateValueError
	if errors.As(err, &dup) {
		return "", false, wrapCompileError(ErrCodeDuplicateValue, spec.Section, err)
	}
	return "", false, wrapCompileError(ErrCodeInvalidSpec, spec.Section, err)
}

// applyTypemap normalizes the return type and every argument type.
func (e *enricher) applyTypemap(p *ir.Prototype) {
	p.Type, p.CType, p.CTypeZero = e.normalize(p.Type)
	for i := range p.Arguments {
		arg := &p.Arguments[i]
		arg.Type, arg.CType, arg.CTypeZero = e.normalize(arg.Type)
	}
}

func (e *enricher) normalize(orig string) (normal, ctype, zero string) {
	normal = e.typemap.Normalize(orig)
	ctype = typemap.StorageType(normal)
	zero, _ = e.typemap.Zero(normal)
	if orig != normal {
		e.tests.add(ir.TypeConversion{OrigType: orig, NormalType: normal, CType: ctype})
	}
	return normal, ctype, zero
}

func onelineDescription(description string) string {
	line, _, _ := strings.Cut(strings.TrimLeft(description, " \t\r\n"), "\n")
	if line == "" {
		return "<description not specified>"
	}
	return line
}
