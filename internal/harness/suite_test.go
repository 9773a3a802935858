package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPaths(t *testing.T) {
	paths, err := ExpandPaths([]string{"testdata/scenarios", "testdata/scenarios/counter.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "counter.yaml"),
		filepath.Join("testdata", "scenarios", "errors.yaml"),
		filepath.Join("testdata", "scenarios", "list.yaml"),
	}, paths)

	_, err = ExpandPaths([]string{"testdata/none"})
	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "testdata/none", nf.Path)
}

func TestRunFiles(t *testing.T) {
	paths, err := ExpandPaths([]string{"testdata/scenarios"})
	require.NoError(t, err)

	result := RunFiles(context.Background(), paths)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Passed, "failures: %+v", result.Failures)
	assert.Zero(t, result.Failed)
}

func TestRunFiles_CountsFailures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\n"), 0o644))
	failing := filepath.Join(dir, "failing.yaml")
	require.NoError(t, os.WriteFile(failing, []byte(`
name: failing
description: wrong final value
nodes: {a: 1}
assertions:
  - type: final_value
    node: a
    value: 2
`), 0o644))

	result := RunFiles(context.Background(), []string{bad, failing})
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Failures, 2)
	assert.Contains(t, result.Failures[0].Errors[0], "failed to load scenario")
	assert.Equal(t, "failing", result.Failures[1].Scenario)
}
