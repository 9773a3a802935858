package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted run against a declaration document.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Module is the path of the declaration document to define.
	Module string `yaml:"module,omitempty"`

	// Nodes is an inline declaration document, used when Module is empty.
	Nodes map[string]any `yaml:"nodes,omitempty"`

	// CascadeToken prefixes the sequential cascade tokens. Default
	// "cascade".
	CascadeToken string `yaml:"cascade_token,omitempty"`

	// MaxSteps overrides the per-cascade evaluation quota.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Steps run in order after the document is defined.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the drained trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Step drives the graph. Exactly one of Set, Fire, Call or Evaluate is
// given.
type Step struct {
	Set      string `yaml:"set,omitempty"`
	Fire     string `yaml:"fire,omitempty"`
	Call     string `yaml:"call,omitempty"`
	Evaluate string `yaml:"evaluate,omitempty"`

	// Value is written by set and fire.
	Value any `yaml:"value,omitempty"`

	// Helper and Args are used by call.
	Helper string `yaml:"helper,omitempty"`
	Args   []any  `yaml:"args,omitempty"`

	// Expect checks the step's outcome. Without it the step must
	// succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the outcome of a step.
type Expect struct {
	// Value is compared with what evaluate or call returned.
	Value any `yaml:"value,omitempty"`

	// Error, when set, must appear in the step's error.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the trace or the final graph.
type Assertion struct {
	// Type is one of trace_count, trace_order, trace_contains or
	// final_value.
	Type string `yaml:"type"`

	// Op filters trace records. Default evaluate for trace_count and
	// trace_order, result for trace_contains.
	Op string `yaml:"op,omitempty"`

	// Node is the canonical id (trace_count, trace_contains) or the name
	// (final_value) checked.
	Node string `yaml:"node,omitempty"`

	// Nodes must first appear in this order (trace_order).
	Nodes []string `yaml:"nodes,omitempty"`

	// Count is the exact number of matching records (trace_count).
	Count int `yaml:"count,omitempty"`

	// Value is the expected value (trace_contains, final_value).
	Value any `yaml:"value,omitempty"`
}

// Assertion types.
const (
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertTraceContains = "trace_contains"
	AssertFinalValue    = "final_value"
)

// LoadScenario reads a scenario file. A relative module path is resolved
// against the scenario's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file, resolving a relative
// module path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario decodes scenario YAML.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Module != "" && !filepath.IsAbs(scenario.Module) && basePath != "" {
		scenario.Module = filepath.Join(basePath, scenario.Module)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Module != "" && s.Nodes != nil:
		return fmt.Errorf("module and nodes are mutually exclusive")
	case s.Module == "" && s.Nodes == nil:
		return fmt.Errorf("module or nodes is required")
	case s.Module != "":
		if _, err := os.Stat(s.Module); os.IsNotExist(err) {
			return fmt.Errorf("module file not found: %s", s.Module)
		}
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	actions := 0
	for _, name := range []string{step.Set, step.Fire, step.Call, step.Evaluate} {
		if name != "" {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("steps[%d]: exactly one of set, fire, call or evaluate is required", i)
	}
	if step.Call != "" && step.Helper == "" {
		return fmt.Errorf("steps[%d]: helper is required for call", i)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Nodes) == 0 {
			return fmt.Errorf("assertions[%d]: nodes list is required for trace_order", index)
		}
	case AssertTraceContains, AssertFinalValue:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
