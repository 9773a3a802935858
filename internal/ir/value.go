package ir

import (
	"math"
	"reflect"
	"slices"
	"unicode/utf16"

	"github.com/google/go-cmp/cmp"
)

// equalOptions is the comparison policy used for coalescing.
//
//   - numbers compare by value across Go numeric types (int 5 == float64 5)
//   - NaN equals NaN, so a node fed NaN twice does not re-propagate
//   - unexported struct fields take part in the comparison
//   - funcs are equal only when both are nil (go-cmp default)
var equalOptions = cmp.Options{
	cmp.FilterValues(bothNumbers, cmp.Comparer(numbersEqual)),
	cmp.Exporter(func(reflect.Type) bool { return true }),
}

// Equal reports whether two node values are the same for the purpose of
// change detection. It is a deep, structural comparison: two slices with the
// same elements are equal even when they are distinct allocations.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return cmp.Equal(a, b, equalOptions)
}

type number struct {
	kind  reflect.Kind // Int, Uint or Float64
	i     int64
	u     uint64
	f     float64
	valid bool
}

func asNumber(v any) number {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: reflect.Int, i: rv.Int(), f: float64(rv.Int()), valid: true}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: reflect.Uint, u: rv.Uint(), f: float64(rv.Uint()), valid: true}
	case reflect.Float32, reflect.Float64:
		return number{kind: reflect.Float64, f: rv.Float(), valid: true}
	}
	return number{}
}

func bothNumbers(a, b any) bool {
	return asNumber(a).valid && asNumber(b).valid
}

func numbersEqual(a, b any) bool {
	x, y := asNumber(a), asNumber(b)
	switch {
	case x.kind == reflect.Int && y.kind == reflect.Int:
		return x.i == y.i
	case x.kind == reflect.Uint && y.kind == reflect.Uint:
		return x.u == y.u
	case x.kind == reflect.Int && y.kind == reflect.Uint:
		return x.i >= 0 && uint64(x.i) == y.u
	case x.kind == reflect.Uint && y.kind == reflect.Int:
		return y.i >= 0 && uint64(y.i) == x.u
	}
	if math.IsNaN(x.f) && math.IsNaN(y.f) {
		return true
	}
	return x.f == y.f
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for astral runes.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}
