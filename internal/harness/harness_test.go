package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distype/distype/internal/model"
)

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Flow: []FlowStep{
			{Invoke: "Chats.list", Args: map[string]any{}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceContains, Action: "Chats.list"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, EventInvocation, result.Trace[0].Type)
	assert.Nil(t, result.Trace[0].Args)
	assert.Equal(t, EventCompletion, result.Trace[1].Type)
	assert.Equal(t, CaseOK, result.Trace[1].Case)

	chats, ok := result.Trace[1].Result.([]any)
	require.True(t, ok, "result is %T", result.Trace[1].Result)
	assert.Len(t, chats, 3)

	assert.Equal(t, 1, result.State.SchemaVersion)
	assert.Len(t, result.State.Chats, 3)
}

func TestRun_AliasesAndSetup(t *testing.T) {
	scenario := &Scenario{
		Name:        "aliases",
		Description: "Setup binds an alias used by the flow",
		Setup: []ActionStep{
			{Action: "Categories.create", Args: map[string]any{"name": "Work"}, As: "work"},
		},
		Flow: []FlowStep{
			{
				Invoke: "Messages.append",
				Args:   map[string]any{"category_id": "$work", "text": "hi"},
				As:     "hi",
				Expect: &ExpectClause{Case: CaseOK, Result: map[string]any{"category_id": "$work"}},
			},
			{
				Invoke: "Messages.setText",
				Args:   map[string]any{"id": "$hi", "text": "hello"},
			},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Table: TableMessages, Where: map[string]any{"id": "id-5"}, Expect: map[string]any{"text": "hello"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, map[string]any{"category_id": "id-4", "text": "hi"}, result.Trace[2].Args)
	assert.Equal(t, []model.Message{{ID: "id-5", CategoryID: "id-4", Text: "hello"}}, result.State.Categories[1].Messages)
}

func TestRun_CustomUncategorized(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: custom_uncategorized
description: A custom reserved id is seeded, pinned and protected
options:
  uncategorized_id: inbox
  uncategorized_name: Inbox
  protect_uncategorized: true
flow:
  - invoke: Categories.create
    args: { name: Work }
  - invoke: Messages.append
    args: { category_id: inbox, text: hi }
    expect:
      case: ok
      result: { category_id: inbox }
  - invoke: Categories.delete
    args: { id: inbox }
    expect:
      case: RESERVED
  - invoke: Categories.create
    args: { id: inbox, name: Other }
    expect:
      case: RESERVED
assertions:
  - type: final_order
    table: categories
    field: id
    values: [inbox, id-4]
`))
	require.NoError(t, err)
	require.NotNil(t, scenario.Options)
	assert.Equal(t, "inbox", scenario.Options.UncategorizedID)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.State.Categories, 2)
	assert.Equal(t, "inbox", result.State.Categories[0].ID)
	assert.Equal(t, "Inbox", result.State.Categories[0].Name)
	assert.Len(t, result.State.Categories[0].Messages, 1)
}

func TestRun_UnexpectedCaseIsReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_case",
		Description: "Expecting success from a missing record",
		Flow: []FlowStep{
			{Invoke: "Chats.rename", Args: map[string]any{"id": "missing", "name": "x"}},
			{Invoke: "Chats.get", Args: map[string]any{"id": "id-1"}, Expect: &ExpectClause{Case: CaseOK, Result: map[string]any{"name": "wrong"}}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Action: "Chats.rename", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected case ok, got NOT_FOUND")
	assert.Contains(t, result.Errors[1], "expected result")
	assert.Equal(t, "NOT_FOUND", result.Trace[1].Case)
}

func TestRun_FailingSetupAborts(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_setup",
		Description: "Setup that fails",
		Setup: []ActionStep{
			{Action: "Messages.append", Args: map[string]any{"category_id": "nope", "text": "x"}},
		},
		Flow:       []FlowStep{{Invoke: "Chats.list", Args: map[string]any{}}},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: "Chats.list", Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestRun_MalformedArgsAbort(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_args",
		Description: "Missing and mistyped args",
		Flow: []FlowStep{
			{Invoke: "Settings.update", Args: map[string]any{"use_internet": "yes"}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: "Settings.update", Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `arg "use_internet" must be a boolean`)

	scenario.Flow[0] = FlowStep{Invoke: "Chats.delete", Args: map[string]any{}}
	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `arg "id" is required`)
}

func TestRun_AliasOnResultWithoutID(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_alias",
		Description: "Alias on an operation with no record result",
		Flow: []FlowStep{
			{Invoke: "Settings.get", Args: map[string]any{}, As: "s"},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Action: "Settings.get", Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result has no id")
}

func TestActionNames(t *testing.T) {
	names := ActionNames()
	assert.Len(t, names, 18)
	assert.Contains(t, names, "Chats.create")
	assert.Contains(t, names, "Settings.update")
	assert.IsNonDecreasing(t, names)
}
