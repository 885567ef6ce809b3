package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a store test scenario: a sequence of operations against
// a fresh in-memory store, with expected outcomes and assertions on the
// resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Options override store defaults for this scenario.
	Options *ScenarioOptions `yaml:"options,omitempty"`

	// Setup contains operations run before the main flow.
	// Setup operations must succeed.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow contains the main operations with optional expectations.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioOptions mirror the configurable store options.
type ScenarioOptions struct {
	ChatPrefix           string `yaml:"chat_prefix,omitempty"`
	MinChatCount         int    `yaml:"min_chat_count,omitempty"`
	UncategorizedID      string `yaml:"uncategorized_id,omitempty"`
	UncategorizedName    string `yaml:"uncategorized_name,omitempty"`
	ProtectUncategorized bool   `yaml:"protect_uncategorized,omitempty"`
}

// ActionStep is a single operation in the setup section.
type ActionStep struct {
	// Action names the store operation, e.g. "Chats.create".
	Action string `yaml:"action"`

	// Args are the operation arguments. String values of the form "$alias"
	// are replaced by the id bound to alias.
	Args map[string]any `yaml:"args"`

	// As binds the id of the returned record to an alias.
	As string `yaml:"as,omitempty"`
}

// FlowStep is a single operation in the main flow.
type FlowStep struct {
	// Invoke names the store operation.
	Invoke string `yaml:"invoke"`

	// Args are the operation arguments, with alias substitution.
	Args map[string]any `yaml:"args"`

	// As binds the id of the returned record to an alias.
	As string `yaml:"as,omitempty"`

	// Expect specifies the expected completion.
	// If nil, the operation is expected to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected completion behavior.
type ExpectClause struct {
	// Case is "ok" or a store error code such as "NOT_FOUND".
	Case string `yaml:"case"`

	// Result contains expected result field values.
	// This is a subset match: only specified fields are validated.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is the operation name (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected invocation arguments (trace_contains).
	// Subset match.
	Args map[string]any `yaml:"args,omitempty"`

	// Table is the snapshot collection: chats, categories, messages or
	// settings (final_state, final_order, final_count).
	Table string `yaml:"table,omitempty"`

	// Where filters rows by exact field values (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (final_state). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Field names the column listed by final_order.
	Field string `yaml:"field,omitempty"`

	// Values is the expected ordered list of Field values (final_order).
	Values []any `yaml:"values,omitempty"`

	// Count is the expected number of occurrences or rows
	// (trace_count, final_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected operation order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertFinalOrder    = "final_order"
	AssertFinalCount    = "final_count"
)

// Snapshot collections addressable by state assertions.
const (
	TableChats      = "chats"
	TableCategories = "categories"
	TableMessages   = "messages"
	TableSettings   = "settings"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
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

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Options != nil && s.Options.MinChatCount < 0 {
		return fmt.Errorf("options.min_chat_count must be non-negative")
	}

	for i, step := range s.Setup {
		if step.Action == "" {
			return fmt.Errorf("setup[%d]: action is required", i)
		}
		if !knownAction(step.Action) {
			return fmt.Errorf("setup[%d]: unknown action %q", i, step.Action)
		}
		if step.Args == nil {
			return fmt.Errorf("setup[%d]: args is required (use empty map if no args)", i)
		}
	}

	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if !knownAction(step.Invoke) {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Invoke)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use empty map if no args)", i)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
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
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if err := validateTable(index, a); err != nil {
			return err
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertFinalOrder:
		if err := validateTable(index, a); err != nil {
			return err
		}
		if a.Table == TableSettings {
			return fmt.Errorf("assertions[%d]: final_order does not apply to settings", index)
		}
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for final_order", index)
		}
	case AssertFinalCount:
		if err := validateTable(index, a); err != nil {
			return err
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for final_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validateTable(index int, a *Assertion) error {
	switch a.Table {
	case TableChats, TableCategories, TableMessages, TableSettings:
		return nil
	case "":
		return fmt.Errorf("assertions[%d]: table is required for %s", index, a.Type)
	default:
		return fmt.Errorf("assertions[%d]: unknown table %q (want one of %s)", index, a.Table,
			strings.Join([]string{TableChats, TableCategories, TableMessages, TableSettings}, ", "))
	}
}
