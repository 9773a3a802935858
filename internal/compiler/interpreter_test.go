package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cable/internal/graph"
	"github.com/roach88/cable/internal/source"
)

func TestCompileModule_Scope(t *testing.T) {
	g := build(t, "app.yaml", `
remote: {type: module, url: "mem://counter.yaml"}
total:
  fn: add
  params: [remote, one]
one: 1
`, source.Map{
		"mem://counter.yaml": "start: 41\nmain: {fn: identity, params: [start]}\n",
	})

	assert.Equal(t, 41, evaluate(t, g, "remote"))
	assert.Equal(t, 42, evaluate(t, g, "total"))
	_, ok := g.Node("remote_start")
	assert.True(t, ok)
}

func TestCompileModule_SingleNode(t *testing.T) {
	spec, err := newCompiler().CompileModule(context.Background(), "greeting", "type: data\nvalue: hi\n")
	require.NoError(t, err)
	assert.Equal(t, graph.Data{Value: "hi"}, spec)
}

func TestCompileModule_Invalid(t *testing.T) {
	_, err := newCompiler().CompileModule(context.Background(), "m", "fn: missing\n")
	require.Error(t, err)
	assert.Equal(t, ErrUnknownFunc, ValidationErrors(err)[0].Code)
}

func TestCompileModule_FailureIsLoadFailed(t *testing.T) {
	c := newCompiler()
	decls, err := c.CompileString("app.yaml", `remote: {type: module, url: "mem://bad.yaml"}`)
	require.NoError(t, err)

	g := graph.New(
		graph.WithLogger(quietLogger()),
		graph.WithFetcher(source.Map{"mem://bad.yaml": "x: {type: nope}\n"}),
		graph.WithInterpreter(c),
	)
	err = g.Define(context.Background(), decls)
	require.Error(t, err)
	assert.True(t, graph.IsLoadFailed(err))
}

func TestExecuteLibrary_Shim(t *testing.T) {
	g := build(t, "app.yaml", `
config: {type: library, path: "mem://config.json", shim: json}
words: {type: library, path: "mem://words.txt", shim: lines}
`, source.Map{
		"mem://config.json": `{"name": "cable", "size": 2}`,
		"mem://words.txt":   "alpha\nbeta\n",
	})

	assert.Equal(t, map[string]any{"name": "cable", "size": 2}, evaluate(t, g, "config"))
	assert.Equal(t, []any{"alpha", "beta"}, evaluate(t, g, "words"))
}

func TestExecuteLibrary_Manifest(t *testing.T) {
	g := build(t, "app.yaml", `
count: 3
stats: {type: library, path: "mem://stats.yaml"}
plain: {type: library, path: "mem://plain.yaml"}
`, source.Map{
		"mem://stats.yaml": "dependencies: [count]\nfactory: pack\n",
		"mem://plain.yaml": "value: [1, 2]\n",
	})

	assert.Equal(t, map[string]any{"count": 3}, evaluate(t, g, "stats"))
	assert.Equal(t, []any{1, 2}, evaluate(t, g, "plain"))
}

func TestExecuteLibrary_Errors(t *testing.T) {
	c := newCompiler()
	ctx := context.Background()

	_, err := c.ExecuteLibrary(ctx, "lib", "x", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown shim")

	_, err = c.ExecuteLibrary(ctx, "lib", "factory: nope\nextra: 1\n", "")
	require.Error(t, err)
	codes := []string{}
	for _, ve := range ValidationErrors(err) {
		codes = append(codes, ve.Code)
	}
	assert.ElementsMatch(t, []string{ErrUnknownField, ErrUnknownFactory}, codes)

	_, err = c.ExecuteLibrary(ctx, "lib", "{\"value\": ", "json")
	require.Error(t, err)
}

func TestExecuteLibrary_Definition(t *testing.T) {
	def, err := newCompiler().ExecuteLibrary(context.Background(), "lib", "id: util\nvalue: 7\n", "")
	require.NoError(t, err)
	assert.Equal(t, "util", def.ID)
	assert.Equal(t, []string{}, def.Dependencies)

	handle, err := def.Factory(nil)
	require.NoError(t, err)
	assert.Equal(t, 7, handle)
}
