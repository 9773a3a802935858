package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/cable/internal/ir"
)

// NewRecord builds a record, rendering v as canonical JSON and hashing it.
// Values without a JSON form are rendered from their %v text.
func NewRecord(seq int64, cascade, op, node, kind string, v any) Record {
	return Record{
		Seq:       seq,
		Cascade:   cascade,
		Op:        op,
		Node:      node,
		Kind:      kind,
		Value:     ir.Describe(v),
		ValueHash: ir.ValueHash(v),
	}
}

// DecodeValue parses a record's stored value. Numbers decode as
// json.Number so large integers keep their precision.
func DecodeValue(data string) (any, error) {
	if data == "" {
		return nil, nil
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}
