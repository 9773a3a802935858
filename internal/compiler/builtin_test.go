package compiler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, c *Catalog, fn string, values ...any) (any, error) {
	t.Helper()
	f, ok := c.Func(fn)
	require.True(t, ok, "function %s", fn)
	names := make([]string, len(values))
	for i := range values {
		names[i] = string(rune('a' + i))
	}
	return f(Inputs{Node: "n", Names: names, Values: values})
}

func TestBuiltins(t *testing.T) {
	c := NewCatalog(quietLogger())

	tests := []struct {
		fn     string
		values []any
		want   any
	}{
		{"identity", []any{"x"}, "x"},
		{"add", []any{1, 2, 3}, 6},
		{"add", []any{1, 0.5}, 1.5},
		{"add", []any{json.Number("2"), int64(3)}, 5},
		{"add", nil, 0},
		{"mul", []any{2, 3}, 6},
		{"mul", []any{2.5, 2}, 5.0},
		{"concat", []any{"a", 1, nil, true}, "a1true"},
		{"concat", []any{[]any{1}, []any{2, 3}}, []any{1, 2, 3}},
		{"not", []any{0}, true},
		{"not", []any{"x"}, false},
		{"not", []any{[]any{}}, true},
		{"count", []any{[]any{1, 2}}, 2},
		{"count", []any{"abc"}, 3},
		{"count", []any{nil}, 0},
		{"pack", []any{1, "x"}, map[string]any{"a": 1, "b": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			got, err := call(t, c, tt.fn, tt.values...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	c := NewCatalog(quietLogger())

	_, err := call(t, c, "identity")
	require.Error(t, err)

	_, err = call(t, c, "add", 1, "two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b is string, not a number")

	_, err = call(t, c, "count", 5)
	require.Error(t, err)
}

func TestBuiltins_Log(t *testing.T) {
	var buf bytes.Buffer
	c := NewCatalog(slog.New(slog.NewTextHandler(&buf, nil)))

	v, err := call(t, c, "log", 7)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Contains(t, buf.String(), "node values")
	assert.Contains(t, buf.String(), "node=n")
	assert.Contains(t, buf.String(), "a=7")
}

func TestCatalog_Register(t *testing.T) {
	c := NewCatalog(nil)
	c.RegisterFunc("answer", func(Inputs) (any, error) { return 42, nil })
	c.RegisterShim("upper", func(src string) (any, error) { return src + "!", nil })
	c.RegisterFactory("const", func(Manifest, []any) (any, error) { return "c", nil })

	funcs, helpers, shims, factories := c.Names()
	assert.Contains(t, funcs, "answer")
	assert.Equal(t, []string{"append", "increment", "toggle"}, helpers)
	assert.Equal(t, []string{"json", "lines", "text", "upper"}, shims)
	assert.Equal(t, []string{"const", "pack", "value"}, factories)

	got, err := call(t, c, "answer")
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestShims(t *testing.T) {
	c := NewCatalog(nil)

	lines, _ := c.Shim("lines")
	v, err := lines("a\r\nb\n")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	v, err = lines("")
	require.NoError(t, err)
	assert.Equal(t, []any{}, v)

	text, _ := c.Shim("text")
	v, err = text("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", v)
}
