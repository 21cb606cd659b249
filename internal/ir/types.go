package ir

import (
	"errors"
	"fmt"
)

// ErrUnknownArgument is returned when an operation names an argument the
// prototype does not declare.
var ErrUnknownArgument = errors.New("unknown argument")

// Intent describes the role of an argument relative to data flow.
type Intent string

const (
	IntentInput   Intent = "input"
	IntentInplace Intent = "inplace"
	IntentInout   Intent = "inout"
	IntentOutput  Intent = "output"
	IntentHide    Intent = "hide"
)

// Intents lists the intent categories in the order they are applied.
// A later category wins when an argument is listed under several.
var Intents = []Intent{IntentInput, IntentInplace, IntentInout, IntentOutput, IntentHide}

// IsInput reports whether the argument is read by the kernel.
func (i Intent) IsInput() bool {
	return i == IntentInput || i == IntentInplace || i == IntentInout
}

// IsOutput reports whether the argument is written back to the caller.
func (i Intent) IsOutput() bool {
	return i == IntentOutput || i == IntentInplace || i == IntentInout
}

// IsHidden reports whether the argument is hidden from the kernel signature.
func (i Intent) IsHidden() bool {
	return i == IntentHide
}

// Kernel kinds.
const (
	KindXnd     = "Xnd"
	KindC       = "C"
	KindFortran = "Fortran"
)

// Array type representations.
const (
	ArrayTypeSymbolic = "symbolic"
	ArrayTypeVariable = "variable"
)

// ValidArrayTypes defines the allowed array type representations.
var ValidArrayTypes = map[string]bool{
	ArrayTypeSymbolic: true,
	ArrayTypeVariable: true,
}

// Argument is a named prototype argument.
type Argument struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	CType     string   `json:"ctype"`
	CTypeZero string   `json:"ctype_zero,omitempty"`
	Pointer   bool     `json:"pointer,omitempty"`
	Intent    Intent   `json:"intent,omitempty"`
	Shape     []string `json:"shape,omitempty"` // empty for scalars
	Depends   []string `json:"depends,omitempty"`
	Value     string   `json:"value,omitempty"`
	HasValue  bool     `json:"has_value,omitempty"`
}

// Prototype is a function signature read from a kernel section, enriched
// with intents, shapes, dependencies and values.
type Prototype struct {
	KernelName         string     `json:"kernel_name"`
	FunctionName       string     `json:"function_name"`
	Description        string     `json:"description"`
	OnelineDescription string     `json:"oneline_description"`
	Debug              bool       `json:"debug"`
	Type               string     `json:"type"`
	CType              string     `json:"ctype"`
	CTypeZero          string     `json:"ctype_zero,omitempty"`
	Arguments          []Argument `json:"arguments"`
	MaxRank            int        `json:"max_rank"`
}

// Argument returns the argument with the given name.
func (p *Prototype) Argument(name string) (*Argument, bool) {
	for i := range p.Arguments {
		if p.Arguments[i].Name == name {
			return &p.Arguments[i], true
		}
	}
	return nil, false
}

// ArgumentNames returns the argument names in declaration order.
func (p *Prototype) ArgumentNames() []string {
	names := make([]string, len(p.Arguments))
	for i, arg := range p.Arguments {
		names[i] = arg.Name
	}
	return names
}

func (p *Prototype) mustArgument(name string) (*Argument, error) {
	arg, ok := p.Argument(name)
	if !ok {
		return nil, fmt.Errorf("%w %q in %s", ErrUnknownArgument, name, p.FunctionName)
	}
	return arg, nil
}

// SetArgumentIntent sets the intent of the named argument.
func (p *Prototype) SetArgumentIntent(name string, intent Intent) error {
	arg, err := p.mustArgument(name)
	if err != nil {
		return err
	}
	arg.Intent = intent
	return nil
}

// SetArgumentShape sets the shape of the named argument.
func (p *Prototype) SetArgumentShape(name string, shape []string) error {
	arg, err := p.mustArgument(name)
	if err != nil {
		return err
	}
	arg.Shape = append([]string(nil), shape...)
	return nil
}

// SetArgumentDepends sets the dependency list of the named argument.
func (p *Prototype) SetArgumentDepends(name string, depends []string) error {
	arg, err := p.mustArgument(name)
	if err != nil {
		return err
	}
	arg.Depends = append([]string(nil), depends...)
	return nil
}

// SetArgumentValue binds a value expression to the named argument.
func (p *Prototype) SetArgumentValue(name, value string) error {
	arg, err := p.mustArgument(name)
	if err != nil {
		return err
	}
	arg.Value = value
	arg.HasValue = true
	return nil
}

// InputOutputArguments partitions the arguments into inputs and outputs.
// Arguments with an in-place intent appear in both; hidden arguments in
// neither.
func (p *Prototype) InputOutputArguments() (inputs, outputs []Argument) {
	for _, arg := range p.Arguments {
		if arg.Intent.IsInput() {
			inputs = append(inputs, arg)
		}
		if arg.Intent.IsOutput() {
			outputs = append(outputs, arg)
		}
	}
	return inputs, outputs
}

// Clone returns a deep copy of the prototype.
func (p *Prototype) Clone() *Prototype {
	c := *p
	c.Arguments = make([]Argument, len(p.Arguments))
	for i, arg := range p.Arguments {
		arg.Shape = cloneStrings(arg.Shape)
		arg.Depends = cloneStrings(arg.Depends)
		c.Arguments[i] = arg
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Kernel is one expanded variant of a prototype.
type Kernel struct {
	Prototype
	Kind         string `json:"kind"`
	ArrayType    string `json:"arraytype"`
	Ellipses     string `json:"ellipses"`      // "", "... * " or "var... * "
	EllipsesName string `json:"ellipses_name"` // identifier-safe form of Ellipses
	ID           string `json:"id"`            // content-addressed identity
	Repr         string `json:"-"`             // pretty-printed debug form
}

// Identity is the tuple that uniquely identifies a kernel within a module.
type Identity struct {
	FunctionName string
	Kind         string
	ArrayType    string
	Ellipses     string
}

// Identity returns the identifying tuple of the kernel.
func (k *Kernel) Identity() Identity {
	return Identity{
		FunctionName: k.FunctionName,
		Kind:         k.Kind,
		ArrayType:    k.ArrayType,
		Ellipses:     k.Ellipses,
	}
}

// String renders the identity for diagnostics.
func (id Identity) String() string {
	return fmt.Sprintf("%s[kind=%s arraytype=%s ellipses=%q]", id.FunctionName, id.Kind, id.ArrayType, id.Ellipses)
}

// TypeConversion records a type alias that needs a generated conversion test.
type TypeConversion struct {
	OrigType   string `json:"orig_type"`
	NormalType string `json:"normal_type"`
	CType      string `json:"ctype"`
}

// ModuleDescriptor is the complete description of a generated module.
type ModuleDescriptor struct {
	ModuleName   string           `json:"module_name"`
	Includes     string           `json:"includes"` // joined #include directives
	IncludeDirs  []string         `json:"include_dirs"`
	Sources      []string         `json:"sources"`
	Kernels      []Kernel         `json:"kernels"`
	TypemapTests []TypeConversion `json:"typemap_tests"`
}
