package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cnl/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Empty fields are left out so each event shows only
// what its type records.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"type": ev.Type,
			"step": ev.Step,
			"seq":  ev.Seq,
		}
		switch ev.Type {
		case EventMatch, EventChunk, EventChainEnd:
			m["start"] = ev.Start
			m["end"] = ev.End
		}
		if ev.Tactic != "" {
			m["tactic"] = ev.Tactic
		}
		if len(ev.Values) > 0 {
			m["values"] = ev.Values
		}
		if ev.Kind != "" {
			m["kind"] = ev.Kind
		}
		if ev.Line != 0 {
			m["line"] = ev.Line
		}
		if ev.Code != "" {
			m["code"] = ev.Code
		}
		if ev.Message != "" {
			m["message"] = ev.Message
		}
		if ev.Fatal {
			m["fatal"] = true
		}
		if ev.Outcome != "" {
			m["outcome"] = ev.Outcome
			m["paths"] = append([]string{}, ev.Paths...)
		}
		if ev.Type == EventMatch || ev.Type == EventChainEnd || ev.Type == EventReport {
			m["stack"] = append(ir.Stack{}, ev.Stack...)
		}
		if ev.Rest != "" {
			m["rest"] = ev.Rest
		}
		if ev.Report != "" {
			m["report"] = ev.Report
			m["script"] = ev.Script
		}
		traceList[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// Marshal renders the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
