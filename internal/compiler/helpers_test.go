package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/kernelgen/internal/config"
	"github.com/roach88/kernelgen/internal/ir"
	"github.com/roach88/kernelgen/internal/prototype"
	"github.com/roach88/kernelgen/internal/testutil"
	"github.com/roach88/kernelgen/internal/typemap"
)

// parseINI parses an inline INI config.
func parseINI(t *testing.T, text string) *config.File {
	t.Helper()
	cfg, err := config.ParseINI("test.cfg", []byte(text))
	require.NoError(t, err)
	return cfg
}

// assembleINI assembles an inline INI config and returns the descriptor
// together with the captured log entries.
func assembleINI(t *testing.T, text string, opts Options) (*ir.ModuleDescriptor, *observer.ObservedLogs, error) {
	t.Helper()
	logger, logs := testutil.ObservedLogger()
	opts.Logger = logger
	d, err := Assemble(parseINI(t, text), prototype.NewReader(), opts)
	return d, logs, err
}

// readPrototype parses a single prototype declaration.
func readPrototype(t *testing.T, decl string) *ir.Prototype {
	t.Helper()
	ps, err := prototype.NewReader().Read(decl)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	return ps[0]
}

func newTestEnricher(t *testing.T, rules string) (*enricher, *observer.ObservedLogs) {
	t.Helper()
	tm := typemap.New()
	require.NoError(t, tm.ParseRules(rules))
	logger, logs := testutil.ObservedLogger()
	return &enricher{typemap: tm, tests: newTypeTests(), logger: logger}, logs
}

func testSpec(intents map[ir.Intent][]string, dims ...string) *kernelSpec {
	return &kernelSpec{
		Section:    "KERNEL test",
		Name:       "test",
		Intents:    intents,
		Dimensions: dims,
	}
}

func kernelTuples(d *ir.ModuleDescriptor) []string {
	out := make([]string, len(d.Kernels))
	for i := range d.Kernels {
		out[i] = d.Kernels[i].Identity().String()
	}
	return out
}
