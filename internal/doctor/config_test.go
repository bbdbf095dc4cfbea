package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFileCheck(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("explicit path missing", func(t *testing.T) {
		check := &ConfigFileCheck{ConfigPath: filepath.Join(tmpDir, "nonexistent.yaml")}
		result := check.Run(context.Background())

		assert.Equal(t, StatusFail, result.Status)
	})

	t.Run("no config anywhere warns", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		check := &ConfigFileCheck{InitPath: filepath.Join(tmpDir, "init", ".patchctl.yaml")}
		result := check.Run(context.Background())

		assert.Equal(t, StatusWarn, result.Status)
		assert.True(t, result.Fixable)
		assert.Contains(t, result.Suggestion, "patchctl config init")
	})

	t.Run("not fixable without init path", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		result := (&ConfigFileCheck{}).Run(context.Background())
		assert.False(t, result.Fixable)
	})

	t.Run("config found", func(t *testing.T) {
		cfgPath := filepath.Join(tmpDir, ".patchctl.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("version: 1\n"), 0o644))

		check := &ConfigFileCheck{ConfigPath: cfgPath}
		result := check.Run(context.Background())

		assert.Equal(t, StatusPass, result.Status, result.Message)
		assert.Contains(t, result.Message, ".patchctl.yaml")
	})

	t.Run("name and category", func(t *testing.T) {
		check := &ConfigFileCheck{}
		assert.Equal(t, "config_file", check.Name())
		assert.Equal(t, "CONFIG", check.Category())
	})
}

func TestConfigFileCheck_Fix(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	initPath := filepath.Join(dir, ".patchctl.yaml")

	check := &ConfigFileCheck{InitPath: initPath}
	require.Equal(t, StatusWarn, check.Run(context.Background()).Status)

	require.NoError(t, check.Fix())
	assert.FileExists(t, initPath)
	assert.Equal(t, StatusPass, check.Run(context.Background()).Status)

	assert.Error(t, check.Fix(), "an existing config is never overwritten")
}

func TestConfigSchemaCheck(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(t *testing.T, name, content string) string {
		t.Helper()
		p := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	tests := []struct {
		name    string
		content string
		status  CheckStatus
	}{
		{
			name:    "valid schema",
			content: "version: 1\nrefresh:\n  interval: 30s\n",
			status:  StatusPass,
		},
		{
			name:    "invalid yaml",
			content: "this is not valid yaml: [unclosed",
			status:  StatusFail,
		},
		{
			name:    "refresh interval too short",
			content: "version: 1\nrefresh:\n  interval: 1s\n",
			status:  StatusFail,
		},
		{
			name:    "bad subscription id",
			content: "version: 1\nsubscriptions: [prod]\n",
			status:  StatusFail,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, fmt.Sprintf("case%d.yaml", i), tt.content)
			result := (&ConfigSchemaCheck{ConfigPath: path}).Run(context.Background())
			assert.Equal(t, tt.status, result.Status, result.Message)
		})
	}
}

func TestConfigSchemaCheck_DefaultsPass(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	result := (&ConfigSchemaCheck{}).Run(context.Background())
	assert.Equal(t, StatusPass, result.Status, result.Message)
}

func TestNewConfigChecks(t *testing.T) {
	checks := NewConfigChecks("", "")
	require.Len(t, checks, 2)
	for _, c := range checks {
		assert.Equal(t, "CONFIG", c.Category())
	}
}
