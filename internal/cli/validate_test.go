package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kernelgen/internal/compiler"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains string
	}{
		{"text", "text", "✓ Module example: 4 kernel(s) valid"},
		{"json", "json", `"valid":true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			cmd := NewValidateCommand(&RootOptions{Format: tt.format})
			cmd.SetOut(buf)
			cmd.SetArgs([]string{exampleConfig})

			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestValidateLoadError(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeConfig(t, "[MODULE m]\narraytypes = fixed\n")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E204]: MODULE m: ")
}

func TestOutputValidationErrors(t *testing.T) {
	result := ValidationResult{
		Module:      "example",
		KernelCount: 2,
		Errors: []compiler.ValidationError{
			{Code: "E302", Field: "kernels[1]", Message: "duplicate kernel identity"},
			{Code: "E305", Field: "kernels[0].ellipses", Message: "ellipses without input arguments"},
		},
	}

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		err := outputValidationErrors(&OutputFormatter{Format: "text", Writer: buf}, result)

		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, err.Error(), "2 error(s)")
		assert.Contains(t, buf.String(), "✗ Validation failed")
		assert.Contains(t, buf.String(), "[E302] kernels[1]: duplicate kernel identity")
		assert.Contains(t, buf.String(), "[E305] kernels[0].ellipses: ellipses without input arguments")
	})

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		err := outputValidationErrors(&OutputFormatter{Format: "json", Writer: buf}, result)
		require.Error(t, err)

		var response struct {
			Status string           `json:"status"`
			Error  CLIError         `json:"error"`
			Data   ValidationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &response))
		assert.Equal(t, "error", response.Status)
		assert.Equal(t, "E302", response.Error.Code)
		assert.False(t, response.Data.Valid)
		assert.Len(t, response.Data.Errors, 2)
	})
}
