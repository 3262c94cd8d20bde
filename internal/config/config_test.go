package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvPath, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, "original", cfg.TimestampMode)
	assert.True(t, cfg.Journal)
	assert.Equal(t, filepath.Join(home, ".config", "s1f", "journal.db"), cfg.JournalPath)
	assert.Empty(t, cfg.Path)
}

func TestLoadFromEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := writeConfig(t, `
workers = 4
timestamp_mode = "original"
target_encoding = "latin-1"
strict_checksum = true
journal_path = "~/journal/s1f.db"
`)
	t.Setenv(EnvPath, p)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, p, cfg.Path)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "original", cfg.TimestampMode)
	assert.Equal(t, "latin-1", cfg.TargetEncoding)
	assert.True(t, cfg.StrictChecksum)
	assert.Equal(t, filepath.Join(home, "journal", "s1f.db"), cfg.JournalPath)
}

func TestLoadFileErrors(t *testing.T) {
	tests := map[string]string{
		"bad toml":       "workers = ",
		"zero workers":   "workers = 0",
		"timestamp mode": `timestamp_mode = "yesterday"`,
		"both encodings": "respect_encoding = true\ntarget_encoding = \"utf-8\"",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, body))
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
