package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	type point struct {
		x, y int
	}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs zero", nil, 0, false},
		{"same int", 5, 5, true},
		{"different int", 5, 6, false},
		{"int vs float", 5, 5.0, true},
		{"int vs int64", 5, int64(5), true},
		{"uint vs int", uint(3), 3, true},
		{"negative int vs uint", -1, uint(math.MaxUint64), false},
		{"NaN", math.NaN(), math.NaN(), true},
		{"string", "#ff0", "#ff0", true},
		{"string vs number", "5", 5, false},
		{"slices", []any{1, "a"}, []any{1, "a"}, true},
		{"slices differ", []int{1, 2}, []int{1, 3}, false},
		{"maps", map[string]any{"a": 1}, map[string]any{"a": 1.0}, true},
		{"maps differ", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{"unexported struct fields", point{1, 2}, point{1, 2}, true},
		{"unexported struct fields differ", point{1, 2}, point{2, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a), "Equal must be symmetric")
		})
	}
}

func TestEqual_Funcs(t *testing.T) {
	f := func() {}
	assert.False(t, Equal(f, f), "non-nil funcs never compare equal")
}

func TestSortedKeys_UTF16Order(t *testing.T) {
	m := map[string]int{
		"\U0001F600": 1, // surrogate pair, sorts before U+FFFD in UTF-16
		"\uFFFD":     2,
		"a":          3,
	}
	assert.Equal(t, []string{"a", "\U0001F600", "\uFFFD"}, SortedKeys(m))
}
