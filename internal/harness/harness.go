package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/cnl/internal/catalog"
	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/store"
	"github.com/roach88/cnl/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	checker *document.Checker
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Build the registry from built-ins, catalog directories and inline tactics
// 3. Execute steps, validating each expect clause
// 4. Evaluate assertions against the trace and the store
//
// The returned error reports setup failures; expectation failures are
// recorded in the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	entries, err := scenarioEntries(scenario)
	if err != nil {
		return nil, err
	}
	reg, err := catalog.NewRegistry(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	ctx := context.Background()
	if err := st.WriteTactics(ctx, reg.All()); err != nil {
		return nil, fmt.Errorf("failed to record tactics: %w", err)
	}

	eng := engine.New(reg)
	h := &Harness{
		store:  st,
		engine: eng,
		checker: document.NewChecker(eng,
			document.WithClock(testutil.NewDeterministicClock()),
			document.WithIDGenerator(testutil.NewSequentialIDGenerator("doc"))),
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// RunWithLogger runs scenario and reports its start and outcome to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	logger.Debug("running scenario", "scenario", scenario.Name, "steps", len(scenario.Steps))
	result, err := Run(scenario)
	if err == nil {
		logger.Debug("scenario finished", "scenario", scenario.Name, "pass", result.Pass, "events", len(result.Trace))
	}
	return result, err
}

func scenarioEntries(s *Scenario) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	if s.UsesBuiltin() {
		entries = append(entries, catalog.Builtin()...)
	}
	for _, dir := range s.Catalogs {
		loaded, errs := catalog.Load(dir, catalog.LoadModeFailFast)
		if len(errs) > 0 {
			return nil, fmt.Errorf("catalog %s: %w", dir, errors.Join(errs...))
		}
		entries = append(entries, loaded...)
	}
	for i, t := range s.Catalog {
		e, err := catalog.Decode(t.Name, t.Spec, t.Transform)
		if err != nil {
			return nil, fmt.Errorf("catalog[%d]: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	var opts []engine.ParseOption
	if step.AllowEmpty {
		opts = append(opts, engine.WithEmptyMatch())
	}
	stack := ir.Stack(step.Stack)
	text := step.Input()

	var failures []string
	switch step.Operation() {
	case "parse":
		m, ok := h.engine.ParseOne(text, stack, opts...)
		if !ok {
			result.add(TraceEvent{Type: EventNoMatch, Step: i, Seq: h.clock.Next()})
			m = nil
		} else {
			result.add(h.matchEvent(i, *m))
		}
		failures = expectParse(step.Expect, m)

	case "chain":
		chain := h.engine.ParseChain(text, stack, opts...)
		for _, m := range chain.Matches {
			result.add(h.matchEvent(i, m))
		}
		result.add(TraceEvent{
			Type:  EventChainEnd,
			Step:  i,
			Seq:   h.clock.Next(),
			End:   chain.End,
			Stack: chain.Stack,
			Rest:  chain.Rest(text),
		})
		failures = expectChain(step.Expect, chain, text)

	case "predict":
		p := h.engine.Predict(text, stack)
		paths := make([]string, len(p.Paths))
		for j, path := range p.Paths {
			paths[j] = path.String()
		}
		result.add(TraceEvent{
			Type:    EventPrediction,
			Step:    i,
			Seq:     h.clock.Next(),
			Outcome: p.Outcome.String(),
			Paths:   paths,
		})
		failures = expectPrediction(step.Expect, p.Outcome.String(), paths)

	case "check":
		report, err := h.checker.CheckText(text)
		var fatal *document.FatalError
		if err != nil && !errors.As(err, &fatal) {
			return err
		}
		if err := h.store.WriteReport(ctx, report, text); err != nil {
			return err
		}
		for _, ch := range report.Chunks {
			result.add(TraceEvent{
				Type:    EventChunk,
				Step:    i,
				Seq:     h.clock.Next(),
				Kind:    string(ch.Kind),
				Line:    ch.Line,
				Start:   ch.Start,
				End:     ch.End,
				Tactic:  ch.Tactic,
				Values:  ch.Values,
				Code:    ch.Code,
				Message: ch.Message,
				Fatal:   ch.Fatal,
			})
		}
		result.add(TraceEvent{
			Type:   EventReport,
			Step:   i,
			Seq:    h.clock.Next(),
			Report: report.ID,
			Stack:  report.Stack,
			Script: report.Script,
		})
		failures = expectReport(step.Expect, report)
	}

	for _, f := range failures {
		result.AddError(fmt.Sprintf("steps[%d] %s %q: %s", i, step.Operation(), text, f))
	}

	h.logger.Info("step completed",
		"step", i,
		"operation", step.Operation(),
		"failures", len(failures),
	)
	return nil
}

func (h *Harness) matchEvent(step int, m engine.Match) TraceEvent {
	return TraceEvent{
		Type:   EventMatch,
		Step:   step,
		Seq:    h.clock.Next(),
		Tactic: m.Tactic.Label(),
		Values: m.Values,
		Start:  m.Start,
		End:    m.End,
		Stack:  m.Stack,
	}
}

func expectParse(exp *Expect, m *engine.Match) []string {
	if exp == nil {
		return nil
	}
	var out []string
	if exp.None {
		if m != nil {
			out = append(out, fmt.Sprintf("expected no match, got %s", m.Tactic.Label()))
		}
		return out
	}
	if m == nil {
		return []string{"expected a match, got none"}
	}
	if exp.Tactic != "" && exp.Tactic != m.Tactic.Label() {
		out = append(out, fmt.Sprintf("tactic = %s, want %s", m.Tactic.Label(), exp.Tactic))
	}
	if exp.Values != nil && !matchValues(m.Values, exp.Values) {
		out = append(out, fmt.Sprintf("values = %v, want %v", m.Values.Map(), exp.Values))
	}
	if exp.End != nil && *exp.End != m.End {
		out = append(out, fmt.Sprintf("end = %d, want %d", m.End, *exp.End))
	}
	if exp.Stack != nil && !m.Stack.Equal(ir.Stack(*exp.Stack)) {
		out = append(out, fmt.Sprintf("stack = %v, want %v", m.Stack, *exp.Stack))
	}
	return out
}

func expectChain(exp *Expect, chain engine.Chain, text string) []string {
	if exp == nil {
		return nil
	}
	var out []string
	if exp.Tactics != nil {
		got := make([]string, len(chain.Matches))
		for i, m := range chain.Matches {
			got[i] = m.Tactic.Label()
		}
		if !slices.Equal(got, exp.Tactics) {
			out = append(out, fmt.Sprintf("tactics = %v, want %v", got, exp.Tactics))
		}
	}
	if exp.End != nil && *exp.End != chain.End {
		out = append(out, fmt.Sprintf("end = %d, want %d", chain.End, *exp.End))
	}
	if exp.Rest != nil && *exp.Rest != chain.Rest(text) {
		out = append(out, fmt.Sprintf("rest = %q, want %q", chain.Rest(text), *exp.Rest))
	}
	if exp.Stack != nil && !chain.Stack.Equal(ir.Stack(*exp.Stack)) {
		out = append(out, fmt.Sprintf("stack = %v, want %v", chain.Stack, *exp.Stack))
	}
	return out
}

func expectPrediction(exp *Expect, outcome string, paths []string) []string {
	if exp == nil {
		return nil
	}
	var out []string
	want := exp.Outcome
	if exp.None {
		want = engine.OutcomeNone.String()
	}
	if want != "" && want != outcome {
		out = append(out, fmt.Sprintf("outcome = %s, want %s", outcome, want))
	}
	if exp.Paths != nil && !slices.Equal(paths, exp.Paths) {
		out = append(out, fmt.Sprintf("paths = %q, want %q", paths, exp.Paths))
	}
	return out
}

func expectReport(exp *Expect, r *document.Report) []string {
	if exp == nil {
		return nil
	}
	var out []string
	if exp.Script != nil && *exp.Script != r.Script {
		out = append(out, fmt.Sprintf("script = %q, want %q", r.Script, *exp.Script))
	}
	if exp.Errors != nil && *exp.Errors != len(r.Errors()) {
		out = append(out, fmt.Sprintf("errors = %d, want %d", len(r.Errors()), *exp.Errors))
	}
	if exp.Fatal != nil {
		fatal := false
		for _, ch := range r.Chunks {
			fatal = fatal || ch.Fatal
		}
		if fatal != *exp.Fatal {
			out = append(out, fmt.Sprintf("fatal = %t, want %t", fatal, *exp.Fatal))
		}
	}
	if exp.Stack != nil && !r.Stack.Equal(ir.Stack(*exp.Stack)) {
		out = append(out, fmt.Sprintf("stack = %v, want %v", r.Stack, *exp.Stack))
	}
	return out
}
