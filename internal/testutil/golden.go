// Package testutil provides shared test helpers.
package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// GoldenDir is the fixture directory, relative to the package under test.
const GoldenDir = "testdata/golden"

// AssertGolden compares data against testdata/golden/<name>.golden.
//
// To regenerate golden files, run the package tests with -update.
func AssertGolden(t *testing.T, name string, data []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// ObservedLogger returns a logger that records every entry at debug level
// and above.
func ObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}
