package compiler

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// An HCL document declares data as top-level attributes and everything
// else as blocks:
//
//	count = 0
//
//	node "doubled" {
//	  fn     = "mul"
//	  params = ["count", "two"]
//	}
//
//	scope "panel" {
//	  title = "x"
//	  node "main" { type = "event" }
//	}
//
// Attribute values are literals; expressions referencing other names are
// not evaluated.

// hclBodySchema is the block structure of a document or scope body.
// Attributes are free-form, so they are read off the syntax body.
var hclBodySchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "node", LabelNames: []string{"name"}},
		{Type: "scope", LabelNames: []string{"name"}},
	},
}

// decodeHCL parses an HCL document into the same tree the other formats
// produce.
func decodeHCL(name, src string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(src), name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse HCL %s: %w", name, diags)
	}

	tree, diags := hclTree(file.Body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode HCL %s: %w", name, diags)
	}
	return tree, nil
}

// hclTree decodes a document or scope body. Scope blocks recurse.
func hclTree(body hcl.Body) (map[string]any, hcl.Diagnostics) {
	syntax, ok := body.(*hclsyntax.Body)
	if !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported syntax",
			Detail:   "Documents must be written in native HCL syntax.",
		}}
	}

	content, _, diags := body.PartialContent(hclBodySchema)
	for _, block := range syntax.Blocks {
		if block.Type != "node" && block.Type != "scope" {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported block type",
				Detail:   fmt.Sprintf("Blocks of type %q are not expected here; use node or scope.", block.Type),
				Subject:  block.TypeRange.Ptr(),
			})
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	attrs := make(hcl.Attributes, len(syntax.Attributes))
	for name, attr := range syntax.Attributes {
		attrs[name] = attr.AsHCLAttribute()
	}
	out, diags := attributeValues(attrs)
	if diags.HasErrors() {
		return nil, diags
	}

	for _, block := range content.Blocks {
		name := block.Labels[0]
		var val map[string]any
		var ds hcl.Diagnostics
		if block.Type == "scope" {
			val, ds = hclTree(block.Body)
		} else {
			val, ds = hclNode(block.Body)
		}
		diags = append(diags, ds...)
		if ds.HasErrors() {
			continue
		}
		if _, dup := out[name]; dup {
			diags = append(diags, duplicateDiag(name, block.DefRange))
			continue
		}
		out[name] = val
	}
	return out, diags
}

// hclNode decodes a node block, which holds attributes only.
func hclNode(body hcl.Body) (map[string]any, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	return attributeValues(attrs)
}

func attributeValues(attrs hcl.Attributes) (map[string]any, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, ds := attr.Expr.Value(nil)
		diags = append(diags, ds...)
		if ds.HasErrors() {
			continue
		}
		native, err := ctyToNative(val)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported value",
				Detail:   fmt.Sprintf("attribute %q: %s", name, err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}
		out[name] = native
	}
	return out, diags
}

func duplicateDiag(name string, at hcl.Range) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Duplicate name",
		Detail:   fmt.Sprintf("%q is declared more than once", name),
		Subject:  at.Ptr(),
	}
}

// ctyToNative converts a cty value to plain Go values. Whole numbers that
// fit an int become int, other numbers float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := []any{}
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := map[string]any{}
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty type: %s", ty.FriendlyName())
}
