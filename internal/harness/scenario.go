package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a tactic catalog and a
// sequence of engine operations with expected results.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Builtin includes the built-in tactics before any catalog. Defaults
	// to true.
	Builtin *bool `yaml:"builtin,omitempty"`

	// Catalogs lists catalog directories, relative to the scenario file.
	Catalogs []string `yaml:"catalogs,omitempty"`

	// Catalog lists inline tactics registered after the directories.
	Catalog []TacticEntry `yaml:"catalog,omitempty"`

	// Steps run in order against one engine and one transcript store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and store.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// UsesBuiltin reports whether the built-in tactics are included.
func (s *Scenario) UsesBuiltin() bool {
	return s.Builtin == nil || *s.Builtin
}

// TacticEntry is an inline tactic.
type TacticEntry struct {
	Name      string         `yaml:"name"`
	Spec      map[string]any `yaml:"spec"`
	Transform string         `yaml:"transform,omitempty"`
}

// Step is one engine operation. Exactly one of Parse, Chain, Predict and
// Check is set.
type Step struct {
	Parse   *string `yaml:"parse,omitempty"`
	Chain   *string `yaml:"chain,omitempty"`
	Predict *string `yaml:"predict,omitempty"`
	Check   *string `yaml:"check,omitempty"`

	// Stack is the incoming state for parse, chain and predict.
	Stack []string `yaml:"stack,omitempty"`

	// AllowEmpty lets fallback tactics match zero characters.
	AllowEmpty bool `yaml:"allow_empty,omitempty"`

	// Expect is validated against the step result when present.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Operation names the step kind.
func (s Step) Operation() string {
	switch {
	case s.Parse != nil:
		return "parse"
	case s.Chain != nil:
		return "chain"
	case s.Predict != nil:
		return "predict"
	case s.Check != nil:
		return "check"
	default:
		return ""
	}
}

// Input returns the step text.
func (s Step) Input() string {
	for _, p := range []*string{s.Parse, s.Chain, s.Predict, s.Check} {
		if p != nil {
			return *p
		}
	}
	return ""
}

// Expect lists the expected results of a step. Unset fields are not
// checked.
type Expect struct {
	// None expects no match (parse) or the none outcome (predict).
	None bool `yaml:"none,omitempty"`

	// Tactic and Values describe the parse match. Values is a subset
	// match; lists are written as YAML sequences.
	Tactic string         `yaml:"tactic,omitempty"`
	Values map[string]any `yaml:"values,omitempty"`
	End    *int           `yaml:"end,omitempty"`

	// Tactics lists the chain matches in order.
	Tactics []string `yaml:"tactics,omitempty"`
	Rest    *string  `yaml:"rest,omitempty"`

	// Stack is the state after parse, chain or check.
	Stack *[]string `yaml:"stack,omitempty"`

	// Outcome and Paths describe a prediction. Paths use Path.String
	// rendering and must match exactly, in order.
	Outcome string   `yaml:"outcome,omitempty"`
	Paths   []string `yaml:"paths,omitempty"`

	// Script, Errors and Fatal describe a check report.
	Script *string `yaml:"script,omitempty"`
	Errors *int    `yaml:"errors,omitempty"`
	Fatal  *bool   `yaml:"fatal,omitempty"`
}

// Assertion validates the trace or the transcript store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a tactic appears in the trace with values
	// - "trace_order": tactics appear in order
	// - "trace_count": a tactic appears exactly N times
	// - "final_state": query a store table and verify one row
	Type string `yaml:"type"`

	// Tactic is the tactic name (trace_contains, trace_count).
	Tactic string `yaml:"tactic,omitempty"`

	// Values are the expected captured values (trace_contains).
	// Subset match - only specified names are validated.
	Values map[string]any `yaml:"values,omitempty"`

	// Table is the store table name (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Tactics is the expected order (trace_order).
	Tactics []string `yaml:"tactics,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Catalog paths are
// resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, dir := range scenario.Catalogs {
		if !filepath.IsAbs(dir) {
			scenario.Catalogs[i] = filepath.Join(base, dir)
		}
	}
	for _, dir := range scenario.Catalogs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: catalog directory not found: %s", dir)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if !s.UsesBuiltin() && len(s.Catalogs) == 0 && len(s.Catalog) == 0 {
		return fmt.Errorf("no tactics: builtin is false and no catalog is given")
	}

	for i, entry := range s.Catalog {
		if entry.Spec == nil {
			return fmt.Errorf("catalog[%d]: spec is required", i)
		}
	}

	for i, step := range s.Steps {
		set := 0
		for _, p := range []*string{step.Parse, step.Chain, step.Predict, step.Check} {
			if p != nil {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of parse, chain, predict, check is required", i)
		}
		if step.Check != nil && len(step.Stack) > 0 {
			return fmt.Errorf("steps[%d]: check always starts from an empty stack", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Tactic == "" {
			return fmt.Errorf("assertions[%d]: tactic is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Tactics) == 0 {
			return fmt.Errorf("assertions[%d]: tactics list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Tactic == "" {
			return fmt.Errorf("assertions[%d]: tactic is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
