package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/s1f/internal/config"
	"github.com/Zuo-Peng/s1f/internal/extract"
	"github.com/Zuo-Peng/s1f/internal/parse/parsetest"
)

// isolate points HOME at a temp dir so config and journal stay out of the
// real home directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvPath, "")
	return home
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeBundle(t *testing.T, text string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bundle.txt")
	require.NoError(t, os.WriteFile(p, []byte(text), 0o644))
	return p
}

func sampleBundle(t *testing.T) string {
	return writeBundle(t, parsetest.Standard(
		parsetest.File{Path: "a.txt", Content: "hello world\n"},
		parsetest.File{Path: "src/b.go", Content: "package b\n\n// TODO: wire it\n"},
	))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"generic", errors.New("boom"), exitError},
		{"failures", fmt.Errorf("%w: 1 of 2", extract.ErrExtractionFailed), exitError},
		{"verify", errVerifyFailed, exitError},
		{"input", &extract.InputError{Path: "x", Err: extract.ErrEmptyInput}, exitInput},
		{"no separators", &extract.InputError{Err: extract.ErrNoSeparators}, exitInput},
		{"options", fmt.Errorf("%w: workers", extract.ErrInvalidOptions), exitInput},
		{"config", &config.ConfigError{Path: "c.toml", Err: errors.New("bad")}, exitInput},
		{"usage", usageError{errors.New("no input")}, exitInput},
		{"cancelled", extract.ErrCancelled, exitCancelled},
		{"context", fmt.Errorf("read: %w", context.Canceled), exitCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestExtractAndHistory(t *testing.T) {
	isolate(t)
	bundle := sampleBundle(t)
	dest := t.TempDir()

	out, _, err := run(t, bundle, dest)
	require.NoError(t, err)
	assert.Contains(t, out, "created=2")

	got, err := os.ReadFile(filepath.Join(dest, "src", "b.go"))
	require.NoError(t, err)
	assert.Equal(t, "package b\n\n// TODO: wire it\n", string(got))

	out, _, err = run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "created=2")

	out, _, err = run(t, "history", "--files", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "src/b.go")
	assert.Contains(t, out, "created")
}

func TestExtractFlagsAndSkip(t *testing.T) {
	isolate(t)
	bundle := sampleBundle(t)
	dest := t.TempDir()

	_, _, err := run(t, "-i", bundle, "-d", dest, "--no-journal")
	require.NoError(t, err)

	out, errOut, err := run(t, "-i", bundle, "-d", dest, "--no-journal")
	require.NoError(t, err)
	assert.Equal(t, exitOK, exitCode(err))
	assert.Contains(t, out, "skipped=2")
	assert.Contains(t, errOut, "nothing written")

	out, _, err = run(t, "-i", bundle, "-d", dest, "--no-journal", "-f")
	require.NoError(t, err)
	assert.Contains(t, out, "overwritten=2")

	out, _, err = run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "(no runs recorded)")
}

func TestExtractTimestampMode(t *testing.T) {
	isolate(t)
	modified := time.Date(2022, 3, 14, 15, 9, 26, 0, time.UTC)
	bundle := writeBundle(t, parsetest.UUID(parsetest.File{Path: "dated.txt", Content: "pi day\n", Modified: modified}))

	dest := t.TempDir()
	_, _, err := run(t, bundle, dest, "--no-journal")
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(dest, "dated.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(modified), info.ModTime())

	dest = t.TempDir()
	_, _, err = run(t, bundle, dest, "--no-journal", "--timestamp-mode", "current")
	require.NoError(t, err)
	info, err = os.Stat(filepath.Join(dest, "dated.txt"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), info.ModTime(), time.Hour)
}

func TestExtractFailureExitsOne(t *testing.T) {
	isolate(t)
	bundle := writeBundle(t, parsetest.Standard(
		parsetest.File{Path: "ok.txt", Content: "fine"},
		parsetest.File{Path: "../evil.txt", Content: "nope"},
	))
	dest := t.TempDir()

	out, _, err := run(t, bundle, dest, "--no-journal")
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrExtractionFailed)
	assert.Equal(t, exitError, exitCode(err))
	assert.Contains(t, out, "failed=1")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "evil.txt"))
}

func TestExtractInputErrors(t *testing.T) {
	isolate(t)
	dest := t.TempDir()

	_, _, err := run(t)
	assert.Equal(t, exitInput, exitCode(err))

	_, _, err = run(t, filepath.Join(dest, "missing.txt"), dest)
	assert.Equal(t, exitInput, exitCode(err))

	plain := writeBundle(t, "just some text\nwith no separators\n")
	_, _, err = run(t, plain, dest)
	assert.ErrorIs(t, err, extract.ErrNoSeparators)
	assert.Equal(t, exitInput, exitCode(err))

	_, _, err = run(t, plain, dest, "--no-such-flag")
	assert.Equal(t, exitInput, exitCode(err))

	_, _, err = run(t, plain, dest, "--respect-encoding", "--target-encoding", "latin-1")
	assert.Error(t, err)

	_, _, err = run(t, sampleBundle(t), dest, "--target-encoding", "klingon")
	assert.ErrorIs(t, err, extract.ErrInvalidOptions)
	assert.Equal(t, exitInput, exitCode(err))
}

func TestInteractiveNeedsTerminal(t *testing.T) {
	isolate(t)
	_, _, err := run(t, sampleBundle(t), t.TempDir(), "--interactive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
	assert.Equal(t, exitInput, exitCode(err))
}

func TestConfigFile(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "s1f.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("journal = false\nworkers = 2\n"), 0o644))

	dest := t.TempDir()
	_, _, err := run(t, "--config", cfgPath, sampleBundle(t), dest)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(home, ".config", "s1f", "journal.db"))

	bad := filepath.Join(home, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("workers = 0\n"), 0o644))
	_, _, err = run(t, "--config", bad, sampleBundle(t), dest)
	var ce *config.ConfigError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, exitInput, exitCode(err))

	_, _, err = run(t, "--config", filepath.Join(home, "absent.toml"), "doctor")
	assert.ErrorAs(t, err, &ce)
}

func TestListMode(t *testing.T) {
	isolate(t)
	bundle := sampleBundle(t)
	dest := t.TempDir()

	out, _, err := run(t, bundle, dest, "-l")
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "2 files")
	assert.NoFileExists(t, filepath.Join(dest, "a.txt"))

	out, _, err = run(t, "list", bundle, "--format", "json")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "src/b.go", entries[1]["path"])

	_, _, err = run(t, "list", bundle, "--format", "xml")
	assert.Equal(t, exitInput, exitCode(err))
}

func TestGrep(t *testing.T) {
	isolate(t)
	bundle := sampleBundle(t)

	out, _, err := run(t, "grep", bundle, "todo")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 3)
	assert.Equal(t, "src/b.go", fields[0])
	assert.Equal(t, "3", fields[1])
	assert.Contains(t, fields[2], "TODO")
	assert.NotContains(t, fields[2], ">>>")

	out, errOut, err := run(t, "grep", bundle, "todo", "--glob", "*.txt")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "No matches.")
}

func TestOpenPrint(t *testing.T) {
	isolate(t)
	bundle := sampleBundle(t)

	out, _, err := run(t, "open", bundle, "src/b.go", "--print")
	require.NoError(t, err)
	assert.Equal(t, bundle+":4\n", out)

	_, _, err = run(t, "open", bundle, "nope.txt", "--print")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	isolate(t)
	bundle := sampleBundle(t)
	dest := t.TempDir()

	_, _, err := run(t, bundle, dest, "--no-journal")
	require.NoError(t, err)

	out, _, err := run(t, "verify", bundle, dest)
	require.NoError(t, err)
	assert.Contains(t, out, "checked=2 ok=2 problems=0")

	require.NoError(t, os.WriteFile(filepath.Join(dest, "a.txt"), []byte("changed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stray.txt"), []byte("x"), 0o644))
	out, _, err = run(t, "verify", bundle, dest, "--extra")
	assert.ErrorIs(t, err, errVerifyFailed)
	assert.Equal(t, exitError, exitCode(err))
	assert.Contains(t, out, "differs")
	assert.Contains(t, out, "stray.txt")
}

func TestDoctor(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Config ===")
	assert.Contains(t, out, "not present, using defaults")
	assert.Contains(t, out, "NOT FOUND")
	assert.Contains(t, out, "latin-1")
	assert.NotContains(t, out, "NOT SUPPORTED")
}

func TestBrowseNeedsTerminal(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "browse", sampleBundle(t))
	assert.Equal(t, exitInput, exitCode(err))
}
