package harness

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cable/internal/compiler"
)

func load(t *testing.T, path string) *Scenario {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)
	return s
}

func TestRun_Counter(t *testing.T) {
	result, err := Run(load(t, "testdata/scenarios/counter.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 6, result.Values["doubled"])
	assert.Equal(t, 3, result.Values["count"])

	cascades := map[string]bool{}
	for _, ev := range result.Trace {
		cascades[ev.Cascade] = true
	}
	assert.Equal(t, map[string]bool{"counter-1": true, "counter-2": true, "counter-3": true}, cascades)
}

func TestRun_ModuleDocument(t *testing.T) {
	result, err := Run(load(t, "testdata/scenarios/list.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "items: 2", result.Values["label"])
}

func TestRun_ExpectedErrors(t *testing.T) {
	result, err := Run(load(t, "testdata/scenarios/errors.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Deterministic(t *testing.T) {
	s := load(t, "testdata/scenarios/list.yaml")
	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_ReportsFailures(t *testing.T) {
	s := &Scenario{
		Name:        "failing",
		Description: "expectations that do not hold",
		Nodes:       map[string]any{"count": 1},
		Steps: []Step{
			{Evaluate: "count", Expect: &Expect{Value: 2}},
			{Set: "count", Value: 5, Expect: &Expect{Error: "boom"}},
			{Set: "missing", Value: 1},
		},
		Assertions: []Assertion{
			{Type: AssertFinalValue, Node: "count", Value: 4},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "steps[0] (evaluate count): expected 2, got 1")
	assert.Contains(t, result.Errors[1], `expected error containing "boom", got success`)
	assert.Contains(t, result.Errors[2], "steps[2] (set missing)")
	assert.Contains(t, result.Errors[3], "count = 5")
}

func TestRun_DefaultCascadeToken(t *testing.T) {
	s := &Scenario{
		Name:        "tokens",
		Description: "default token prefix",
		Nodes:       map[string]any{"a": 1},
		Assertions:  []Assertion{{Type: AssertFinalValue, Node: "a", Value: 1}},
	}
	result, err := Run(s)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trace)
	assert.Equal(t, "cascade-1", result.Trace[0].Cascade)
}

func TestRun_QuotaStopsCascade(t *testing.T) {
	nodes := map[string]any{"a": 0}
	for _, name := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		nodes[name] = map[string]any{"fn": "identity", "params": []any{"a"}}
	}
	s := &Scenario{
		Name:        "quota",
		Description: "a cascade past its step quota is cancelled",
		MaxSteps:    3,
		Nodes:       nodes,
		Steps: []Step{
			{Set: "a", Value: 1, Expect: &Expect{Error: "QUOTA_EXCEEDED"}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Node: "s4", Count: 1},
			{Type: AssertTraceCount, Node: "s5", Count: 0},
			{Type: AssertFinalValue, Node: "s3", Value: 1},
		},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_CompileError(t *testing.T) {
	s := &Scenario{
		Name:        "bad",
		Description: "document does not compile",
		Nodes:       map[string]any{"x": map[string]any{"fn": "nope"}},
		Assertions:  []Assertion{{Type: AssertFinalValue, Node: "x"}},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile nodes")
}

func TestRun_CustomCatalogAndFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/docs/app.yaml", []byte("n: 4\nsq: {fn: square, params: [n]}\n"), 0o644))

	catalog := compiler.NewCatalog(nil)
	catalog.RegisterFunc("square", func(in compiler.Inputs) (any, error) {
		n := in.Values[0].(int)
		return n * n, nil
	})

	s := &Scenario{
		Name:        "custom",
		Description: "functions registered by the caller",
		Module:      "/docs/app.yaml",
		Steps:       []Step{{Evaluate: "sq", Expect: &Expect{Value: 16}}},
		Assertions:  []Assertion{{Type: AssertFinalValue, Node: "sq", Value: 16}},
	}
	result, err := Run(s, WithCatalog(catalog), WithFs(fs))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
