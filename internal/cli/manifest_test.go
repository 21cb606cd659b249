package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runManifestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewManifestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// recordExample generates configPath with --manifest dbPath.
func recordExample(t *testing.T, dbPath, configPath string) {
	t.Helper()
	_, err := newGenerateCommand(t, "text", nil, configPath, "--source-dir", t.TempDir(), "--manifest", dbPath)
	require.NoError(t, err)
}

// symbolicOnlyConfig is the example configuration restricted to symbolic
// array types.
func symbolicOnlyConfig(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(exampleConfig)
	require.NoError(t, err)
	text := strings.Replace(string(data), "arraytypes = symbolic, variable", "arraytypes = symbolic", 1)
	return writeConfig(t, text)
}

func TestManifestMissingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")

	output, err := runManifestCommand(t, "text", dbPath, "example")
	require.Error(t, err)
	assert.Contains(t, output, "Error [E005]")

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "manifest must not be created")
}

func TestManifestNoRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")
	recordExample(t, dbPath, exampleConfig)

	output, err := runManifestCommand(t, "json", dbPath, "other")
	require.Error(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &response))
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeRunNotFound, response.Error.Code)
	assert.Contains(t, response.Error.Message, `"other"`)
}

func TestManifestLatestRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")
	recordExample(t, dbPath, exampleConfig)

	output, err := runManifestCommand(t, "text", dbPath, "example")
	require.NoError(t, err)

	assert.Contains(t, output, "(seq 1) of module example: 4 kernel(s)")
	assert.Contains(t, output, "Config: "+exampleConfig)
	assert.Contains(t, output, `scale[kind=Xnd arraytype=variable ellipses="var... * "]`)
	assert.NotContains(t, output, "previous run")
}

func TestManifestDiff(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")
	recordExample(t, dbPath, exampleConfig)

	t.Run("first run", func(t *testing.T) {
		output, err := runManifestCommand(t, "text", dbPath, "example", "--diff")
		require.NoError(t, err)
		assert.Contains(t, output, "No previous run.")
		assert.Equal(t, 4, strings.Count(output, "  + scale["))
	})

	recordExample(t, dbPath, symbolicOnlyConfig(t))

	t.Run("text", func(t *testing.T) {
		output, err := runManifestCommand(t, "text", dbPath, "example", "--diff")
		require.NoError(t, err)
		assert.Contains(t, output, "(seq 2) of module example: 2 kernel(s)")
		assert.Contains(t, output, "Changes since run ")
		assert.Equal(t, 2, strings.Count(output, "  - scale[kind=Xnd arraytype=variable"))
		assert.Contains(t, output, "  2 unchanged")
	})

	t.Run("json", func(t *testing.T) {
		output, err := runManifestCommand(t, "json", dbPath, "example", "--diff")
		require.NoError(t, err)

		var response struct {
			Status string         `json:"status"`
			Data   ManifestResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(output), &response))
		assert.Equal(t, int64(2), response.Data.Run.Seq)
		assert.Len(t, response.Data.Kernels, 2)
		require.NotNil(t, response.Data.Diff)
		assert.Empty(t, response.Data.Diff.Added)
		assert.Len(t, response.Data.Diff.Removed, 2)
		assert.Equal(t, 2, response.Data.Diff.Unchanged)
	})
}

func TestManifestUnchangedRerun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "manifest.db")
	recordExample(t, dbPath, exampleConfig)
	recordExample(t, dbPath, exampleConfig)

	output, err := runManifestCommand(t, "text", dbPath, "example", "--diff")
	require.NoError(t, err)
	assert.Contains(t, output, "No changes since run ")
	assert.Contains(t, output, "  4 unchanged")
}
