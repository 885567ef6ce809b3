package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/distype/distype/internal/store"
	"github.com/distype/distype/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios against a private in-memory store with sequential
// record ids, so the same scenario always produces the same trace and
// final state.
type Harness struct {
	store   *store.Store
	aliases map[string]string
	seq     int64
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. open a fresh in-memory store with sequential ids
//  2. execute setup steps, which must succeed
//  3. execute flow steps, checking each expect clause
//  4. snapshot the store and evaluate assertions
//
// An error is returned only when the scenario cannot be executed at all
// (store failure, failing setup step, malformed arguments). Expectation and
// assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := store.Options{
		IDs:    testutil.NewSequentialIDs("id"),
		Logger: logger,
	}
	if o := scenario.Options; o != nil {
		opts.ChatPrefix = o.ChatPrefix
		opts.MinChatCount = o.MinChatCount
		opts.UncategorizedID = o.UncategorizedID
		opts.UncategorizedName = o.UncategorizedName
		opts.ProtectUncategorized = o.ProtectUncategorized
	}

	st, err := store.Open(store.MemoryPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:   st,
		aliases: map[string]string{},
		logger:  logger,
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	snap, err := st.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot store: %w", err)
	}
	result.State = snap

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup runs all setup steps. Any store error aborts the run.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		outputCase, _, err := h.invoke(ctx, step.Action, step.Args, step.As, result)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if outputCase != CaseOK {
			return fmt.Errorf("setup step %d: %s completed with %s", i, step.Action, outputCase)
		}
	}
	return nil
}

// executeFlow runs all flow steps and validates expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		outputCase, got, err := h.invoke(ctx, step.Invoke, step.Args, step.As, result)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		expectedCase := CaseOK
		if step.Expect != nil {
			expectedCase = step.Expect.Case
		}
		if outputCase != expectedCase {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected case %s, got %s", i, step.Invoke, expectedCase, outputCase))
			continue
		}

		if step.Expect != nil && len(step.Expect.Result) > 0 {
			want, err := normalize(h.substitute(step.Expect.Result))
			if err != nil {
				return fmt.Errorf("flow step %d: expected result: %w", i, err)
			}
			if !matchArgs(got, want.(map[string]any)) {
				result.AddError(fmt.Sprintf("flow[%d] %s: expected result %v, got %v", i, step.Invoke, want, got))
			}
		}
	}
	return nil
}

// invoke runs one action, records its invocation and completion in the
// trace, and binds alias to the returned record's id. It returns the
// completion case and the JSON-normalized result.
func (h *Harness) invoke(ctx context.Context, action string, rawArgs map[string]any, alias string, result *Result) (string, any, error) {
	fn, ok := actions[action]
	if !ok {
		return "", nil, fmt.Errorf("unknown action %q", action)
	}

	args := h.substitute(rawArgs)
	result.AddInvocationTrace(action, args, h.nextSeq())

	value, opErr := fn(ctx, h.store, actionArgs(args))

	var ae *argError
	if errors.As(opErr, &ae) {
		return "", nil, fmt.Errorf("%s: %w", action, opErr)
	}

	outputCase := CaseOK
	var got any
	if opErr != nil {
		code := store.CodeOf(opErr)
		if code == "" {
			return "", nil, fmt.Errorf("%s: %w", action, opErr)
		}
		outputCase = string(code)
	} else if value != nil {
		var err error
		if got, err = normalize(value); err != nil {
			return "", nil, fmt.Errorf("%s: result: %w", action, err)
		}
	}

	result.AddCompletionTrace(outputCase, got, h.nextSeq())

	h.logger.Info("step completed", "action", action, "case", outputCase)

	if alias != "" && outputCase == CaseOK {
		id, ok := recordID(got)
		if !ok {
			return "", nil, fmt.Errorf("%s: as %q: result has no id", action, alias)
		}
		h.aliases[alias] = id
	}

	return outputCase, got, nil
}

func (h *Harness) nextSeq() int64 {
	h.seq++
	return h.seq
}

// substitute replaces "$alias" string values with bound ids.
// Unbound aliases are left as written.
func (h *Harness) substitute(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && strings.HasPrefix(s, "$") {
			if id, bound := h.aliases[s[1:]]; bound {
				v = id
			}
		}
		out[k] = v
	}
	return out
}

// normalize converts v to its generic JSON form (maps, slices, float64,
// string, bool) so YAML expectations and store results compare uniformly.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func recordID(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := m["id"].(string)
	return id, ok
}
