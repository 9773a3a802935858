package compiler

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a declaration document syntax.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatCUE
	FormatJSON
	FormatHCL
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatCUE:
		return "cue"
	case FormatJSON:
		return "json"
	case FormatHCL:
		return "hcl"
	}
	return "unknown"
}

var (
	hclAssignment = regexp.MustCompile(`^[A-Za-z_][\w-]*\s*=`)
	hclBlock      = regexp.MustCompile(`^(node|scope)\s+"[^"]*"\s*\{`)
)

// DetectFormat picks a syntax from name's extension, falling back to the
// first meaningful line of src: braces mean JSON, an assignment or a node
// or scope block means HCL, anything else YAML.
func DetectFormat(name, src string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	case ".json":
		return FormatJSON
	case ".hcl":
		return FormatHCL
	}

	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "{"), strings.HasPrefix(line, "["):
			return FormatJSON
		case hclAssignment.MatchString(line), hclBlock.MatchString(line):
			return FormatHCL
		}
		return FormatYAML
	}
	return FormatYAML
}

// Parse decodes src into a document tree. Sniffed YAML that fails to parse
// is retried as CUE, whose field syntax overlaps with YAML's.
func Parse(name, src string) (map[string]any, error) {
	format := DetectFormat(name, src)
	tree, err := parseAs(format, name, src)
	if err != nil && format == FormatYAML && path.Ext(name) == "" {
		if cueTree, cueErr := parseAs(FormatCUE, name, src); cueErr == nil {
			return cueTree, nil
		}
	}
	return tree, err
}

func parseAs(format Format, name, src string) (map[string]any, error) {
	var doc any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal([]byte(src), &doc)
		if err != nil {
			err = fmt.Errorf("parse YAML %s: %w", name, err)
		}
	case FormatCUE, FormatJSON:
		doc, err = decodeCUE(name, src)
	case FormatHCL:
		return decodeHCL(name, src)
	default:
		return nil, fmt.Errorf("unknown document format for %s", name)
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	tree, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document %s: top level must be a mapping, got %T", name, doc)
	}
	return tree, nil
}
