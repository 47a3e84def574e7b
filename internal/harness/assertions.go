package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/queryir"
	"github.com/roach88/cnl/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTactics in trace:\n")
		for i, name := range tacticsIn(e.Trace) {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, name)
		}
	}
	return buf.String()
}

// tacticEvent reports whether ev records a matched tactic.
func tacticEvent(ev TraceEvent) bool {
	return ev.Tactic != "" && (ev.Type == EventMatch || ev.Type == EventChunk)
}

func tacticsIn(trace []TraceEvent) []string {
	var names []string
	for _, ev := range trace {
		if tacticEvent(ev) {
			names = append(names, ev.Tactic)
		}
	}
	return names
}

// assertTraceContains checks if the trace contains a match of the tactic
// whose values contain the expected ones.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, ev := range trace {
		if tacticEvent(ev) && ev.Tactic == assertion.Tactic && matchValues(ev.Values, assertion.Values) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("tactic %s with values %v", assertion.Tactic, assertion.Values),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if tactics first appear in the specified order.
// Intervening tactics are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, name := range tacticsIn(trace) {
		if _, seen := positions[name]; !seen {
			positions[name] = i + 1 // 1-indexed for readability
		}
	}

	for _, name := range assertion.Tactics {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all tactics present: %v", assertion.Tactics),
				Actual:   fmt.Sprintf("missing tactic: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Tactics); i++ {
		prev := assertion.Tactics[i-1]
		curr := assertion.Tactics[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("tactics in order: %v", assertion.Tactics),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the tactic appears exactly the specified
// number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, name := range tacticsIn(trace) {
		if name == assertion.Tactic {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Tactic),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks that exactly one row of a store table matches
// Where and contains the expected values.
//
// Table and column names are validated against a whitelist pattern;
// values are always bound as parameters.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	q := queryir.Select{From: assertion.Table, Filter: queryir.Where(assertion.Where)}
	if err := queryir.Validate(q); err != nil {
		return err
	}

	rows, err := st.Select(ctx, q)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, queryir.Describe(q.Filter)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, queryir.Describe(q.Filter)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// stateValuesEqual compares a YAML value with a SQLite column value.
// SQLite returns integers as int64, booleans as 0/1 and TEXT as string or
// []byte depending on the driver path.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		act, ok := actual.(string)
		return ok && exp == act
	case int:
		act, ok := actual.(int64)
		return ok && int64(exp) == act
	case int64:
		act, ok := actual.(int64)
		return ok && exp == act
	case bool:
		if act, ok := actual.(bool); ok {
			return exp == act
		}
		act, ok := actual.(int64)
		return ok && exp == (act != 0)
	}
	return reflect.DeepEqual(expected, actual)
}

// matchValues checks if actual contains all expected values (subset
// match). A YAML string matches a scalar capture; a YAML sequence of
// strings matches a list capture.
func matchValues(actual ir.Values, expected map[string]any) bool {
	for name, want := range expected {
		got, ok := actual[name]
		if !ok {
			return false
		}
		switch w := want.(type) {
		case string:
			if got.Multi || got.Text != w {
				return false
			}
		case []any:
			if !got.Multi || len(got.List) != len(w) {
				return false
			}
			for i, item := range w {
				if s, ok := item.(string); !ok || s != got.List[i] {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
