package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanIn(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		want   []string
	}{
		{"reserved words dropped", []string{"a", "result", "c", "event"}, []string{"a", "c"}},
		{"only respond", []string{"respond"}, []string{}},
		{"lazy marker stripped", []string{"a", "_b"}, []string{"a", "b"}},
		{"define and type dropped", []string{"define", "lib", "type"}, []string{"lib"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FanIn(tt.params))
		})
	}
}

func TestDependencies_ExcludesLazy(t *testing.T) {
	assert.Equal(t, []string{"a"}, Dependencies([]string{"a", "_b", "result"}))
	assert.Equal(t, []string{}, Dependencies([]string{"_only"}))
}

func TestCandidates(t *testing.T) {
	chain := Chain{"x", "y", "z"}

	assert.Equal(t, []string{"x_y_z_w", "x_y_w", "x_w", "w"}, Candidates(chain, "w"))
	assert.Equal(t, []string{"x_y_z", "x_y", "x"}, Candidates(chain, "main"))
	assert.Equal(t, []string{"x_y", "x"}, Candidates(Chain{"x", "y"}, "main"))
	assert.Equal(t, []string{"w"}, Candidates(nil, "w"))
	assert.Empty(t, Candidates(nil, "main"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		params []string
		want   Kind
	}{
		{[]string{"a", "result"}, KindSynthetic},
		{[]string{"respond"}, KindSynthetic},
		{[]string{"result", "define"}, KindSynthetic},
		{[]string{"lib", "define"}, KindSubdefinition},
		{[]string{"event"}, KindEvent},
		{[]string{"event", "a"}, KindEffect},
		{[]string{"a", "_b"}, KindEffect},
		{nil, KindEffect},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.params))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "data", KindData.String())
	assert.Equal(t, "subdefinition", KindSubdefinition.String())
	assert.Equal(t, "module", KindModule.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestChain_AppendDoesNotAlias(t *testing.T) {
	base := make(Chain, 1, 4)
	base[0] = "x"

	a := base.Append("y")
	b := base.Append("z")

	assert.Equal(t, "x_y", a.String())
	assert.Equal(t, "x_z", b.String())
}

func TestScopeSegment(t *testing.T) {
	assert.Equal(t, "outer", scopeSegment(nil, "outer"))
	assert.Equal(t, "inner", scopeSegment(Chain{"outer"}, "outer_inner"))
	assert.Equal(t, "other", scopeSegment(Chain{"outer"}, "other"))
}
