package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGraphCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewGraphCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestGraphText(t *testing.T) {
	path := writeDoc(t, "app.yaml", counterDoc)

	out, err := runGraphCmd(t, "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "NODE")
	assert.Regexp(t, `count\s+data\s+-\s+doubled`, out)
	assert.Regexp(t, `doubled\s+synthetic\s+count,two\s+-`, out)
}

func TestGraphJSON(t *testing.T) {
	path := writeDoc(t, "app.yaml", `
ui:
  main: {fn: identity, params: [label]}
  label: "hi"
`)

	out, err := runGraphCmd(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Data GraphResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, path, resp.Data.Document)

	byID := map[string]NodeInfo{}
	for _, n := range resp.Data.Nodes {
		byID[n.ID] = n
	}
	require.Contains(t, byID, "ui")
	require.Contains(t, byID, "ui_label")
	assert.Equal(t, "synthetic", byID["ui"].Kind)
	assert.Equal(t, []string{"ui"}, byID["ui_label"].Dependents)
	assert.Equal(t, []string{}, byID["ui"].Dependents)
}

func TestGraphKindFilter(t *testing.T) {
	path := writeDoc(t, "app.yaml", counterDoc)

	out, err := runGraphCmd(t, "json", path, "--kind", "data")
	require.NoError(t, err)

	var resp struct {
		Data GraphResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Nodes, 2)
	for _, n := range resp.Data.Nodes {
		assert.Equal(t, "data", n.Kind)
	}
}

func TestGraphInvalidDocument(t *testing.T) {
	path := writeDoc(t, "bad.yaml", "x: {type: widget}\n")

	_, err := runGraphCmd(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func graphHash(t *testing.T, doc string) string {
	t.Helper()
	out, err := runGraphCmd(t, "json", writeDoc(t, "app.yaml", doc))
	require.NoError(t, err)
	var resp struct {
		Data GraphResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Hash, 64)
	return resp.Data.Hash
}

func TestGraphHashIgnoresValues(t *testing.T) {
	other := `count: 7
two: 3
doubled:
  fn: mul
  params: [count, two]
`
	assert.Equal(t, graphHash(t, counterDoc), graphHash(t, other))
}

func TestGraphHashTracksEdges(t *testing.T) {
	rewired := `count: 2
two: 2
doubled:
  fn: mul
  params: [count, count]
`
	assert.NotEqual(t, graphHash(t, counterDoc), graphHash(t, rewired))
}

func TestGraphTextPrintsHash(t *testing.T) {
	out, err := runGraphCmd(t, "text", writeDoc(t, "app.yaml", counterDoc))
	require.NoError(t, err)
	assert.Regexp(t, `\nhash: [0-9a-f]{64}\n`, out)
}
