package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cable/internal/engine"
	"github.com/roach88/cable/internal/store"
)

func runRunCmd(t *testing.T, opts *RunOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newRunCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunMissingDatabaseFlag(t *testing.T) {
	path := writeDoc(t, "app.yaml", counterDoc)

	_, err := runRunCmd(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRunNonExistentDocument(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cable.db")

	_, err := runRunCmd(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}},
		"--db", db, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunInvalidDocument(t *testing.T) {
	path := writeDoc(t, "bad.yaml", "x: {type: widget}\n")
	db := filepath.Join(t.TempDir(), "cable.db")

	out, err := runRunCmd(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}}, "--db", db, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
}

func TestRunDefineError(t *testing.T) {
	path := writeDoc(t, "app.yaml", "total: {fn: add, params: [missing]}\n")
	db := filepath.Join(t.TempDir(), "cable.db")

	out, err := runRunCmd(t, &RunOptions{RootOptions: &RootOptions{Format: "text"}}, "--db", db, "--for", "10ms", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "UNDEFINED_REFERENCE")
}

func TestRunForDuration(t *testing.T) {
	path := writeDoc(t, "app.yaml", `
ready: {type: event, source: init}
busy: {fn: not, params: [ready]}
`)
	db := filepath.Join(t.TempDir(), "cable.db")

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		Tokens:      engine.NewSequenceGenerator("run"),
	}
	out, err := runRunCmd(t, opts, "--db", db, "--for", "50ms", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Engine started")
	assert.Contains(t, out, "ready = true\n")
	assert.Contains(t, out, "busy = false\n")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	info, err := st.ReadCascadeInfo(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Empty(t, info.Error)
	counts, err := st.Counts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, counts["define"])
}

func TestRunWithSourceCache(t *testing.T) {
	path := writeDoc(t, "app.yaml", `
ready: {type: event, source: init}
words: {type: library, path: words.txt, shim: lines}
total: {fn: count, params: [words, ready]}
`)
	dir := filepath.Dir(path)
	words := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(words, []byte("a\nb\n"), 0o644))
	db := filepath.Join(dir, "cable.db")
	cache := filepath.Join(dir, "sources.bolt")

	opts := &RunOptions{RootOptions: &RootOptions{Format: "text"}}
	_, err := runRunCmd(t, opts, "--db", db, "--cache", cache, "--for", "20ms", path)
	require.NoError(t, err)
	_, err = os.Stat(cache)
	require.NoError(t, err)

	// The second run is served from the cache.
	require.NoError(t, os.Remove(words))
	out, err := runRunCmd(t, &RunOptions{RootOptions: &RootOptions{Format: "json"}},
		"--db", db, "--cache", cache, "--for", "20ms", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"node":"total"`)
	assert.Contains(t, out, `"value":"2"`)
}
