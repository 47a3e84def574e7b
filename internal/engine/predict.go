package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/cnl/internal/grammar"
	"github.com/roach88/cnl/internal/ir"
)

// StepKind classifies a predicted step.
type StepKind uint8

const (
	StepLiteral   StepKind = iota + 1 // type the given text
	StepReference                     // fill in the named reference
)

func (k StepKind) String() string {
	switch k {
	case StepLiteral:
		return "literal"
	case StepReference:
		return "reference"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *StepKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "literal":
		*k = StepLiteral
	case "reference":
		*k = StepReference
	default:
		return fmt.Errorf("unknown step kind %q", b)
	}
	return nil
}

// Step is one observable continuation: literal text, or the name of a
// reference the user fills in.
type Step struct {
	Kind StepKind `json:"kind"`
	Text string   `json:"text"`
}

// Literal returns a literal step.
func Literal(text string) Step { return Step{Kind: StepLiteral, Text: text} }

// EnterReference returns a reference step.
func EnterReference(name string) Step { return Step{Kind: StepReference, Text: name} }

// Path is a sequence of steps from the current input. Completed paths
// end in a full tactic match.
type Path struct {
	Steps     []Step `json:"steps"`
	Completed bool   `json:"completed"`
}

// String renders the path for display, e.g. `"Let " <name> "."`.
func (p Path) String() string {
	parts := make([]string, 0, len(p.Steps)+1)
	for _, s := range p.Steps {
		if s.Kind == StepReference {
			parts = append(parts, "<"+s.Text+">")
		} else {
			parts = append(parts, fmt.Sprintf("%q", s.Text))
		}
	}
	if p.Completed {
		parts = append(parts, "$")
	}
	return strings.Join(parts, " ")
}

// Outcome classifies a prediction.
type Outcome uint8

const (
	// OutcomeNone: the input cannot be continued into any tactic.
	OutcomeNone Outcome = iota
	// OutcomeComplete: the input is a full match with nothing to add.
	OutcomeComplete
	// OutcomeContinuations: Paths lists the ways to continue.
	OutcomeContinuations
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeComplete:
		return "complete"
	case OutcomeContinuations:
		return "continuations"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalJSON encodes the outcome by name.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes an outcome name.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, cand := range []Outcome{OutcomeNone, OutcomeComplete, OutcomeContinuations} {
		if cand.String() == name {
			*o = cand
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", name)
}

// Prediction is the result of Predict.
type Prediction struct {
	Outcome Outcome `json:"outcome"`
	Paths   []Path  `json:"paths"`

	// Truncated is set when the step budget stopped the search early.
	Truncated bool `json:"truncated,omitempty"`
}

// frontier is one partial path with the parser state at its end.
type frontier struct {
	snap      grammar.Snapshot
	steps     []Step
	completed bool
}

// Predict lists the observable continuations of text under stack.
//
// The search starts from two seeds, the input as typed and the input with
// any open reference closed. Each round extends every unfinished frontier
// by one literal character or one reference entry; adjacent literal steps
// merge and paths with identical steps are kept once. Layout spaces, the
// body of a reference and the close marker are never predicted.
func (e *Engine) Predict(text string, stack ir.Stack) Prediction {
	c := e.composite(stack)
	p := grammar.NewParser(c.g)

	toks := grammar.Tokens(text)
	if p.FeedAll(toks) != len(toks) {
		return Prediction{Outcome: OutcomeNone}
	}

	origin := p.Save()
	frontiers := []frontier{{snap: origin, completed: accepted(p)}}
	if p.Feed(grammar.CloseToken) {
		frontiers = append(frontiers, frontier{snap: p.Save(), completed: accepted(p)})
	}

	quota := newStepQuota(e.stepBudget)
	truncated := false

	for round := 0; round < e.rounds; round++ {
		var next []frontier
		open := false
		for _, f := range frontiers {
			if f.completed {
				next = append(next, f)
				continue
			}
			p.Restore(f.snap)
			for _, exp := range p.Expectations() {
				if err := quota.Check(); err != nil {
					slog.Debug("prediction truncated", "error", err, "round", round)
					truncated = true
					break
				}
				if nf, ok := expand(p, f, exp); ok {
					next = append(next, nf)
					open = open || !nf.completed
				}
			}
			if truncated {
				break
			}
		}
		if truncated {
			// keep the last complete round
			break
		}
		frontiers = dedupe(next)
		if !open {
			break
		}
	}

	return summarize(dedupe(frontiers), truncated)
}

// expand extends f by one expectation.
func expand(p *grammar.Parser, f frontier, exp grammar.Expectation) (frontier, bool) {
	switch exp.Kind {
	case grammar.ExpectLiteral:
		tok := grammar.Token{Char: []rune(exp.Text)[0]}
		// prefer ending an open capture before the literal; fall back to
		// the plain feed when closing loses the literal. Only literals
		// take the character, so a space never also counts as layout.
		p.Restore(f.snap)
		closed := p.Feed(grammar.CloseToken)
		if !p.FeedLiteral(tok) {
			if !closed {
				return frontier{}, false
			}
			p.Restore(f.snap)
			if !p.FeedLiteral(tok) {
				return frontier{}, false
			}
		}
		return frontier{
			snap:      p.Save(),
			steps:     appendStep(f.steps, Literal(exp.Text)),
			completed: accepted(p),
		}, true

	case grammar.ExpectReference:
		p.Restore(f.snap)
		if !p.Feed(grammar.CloseToken) {
			return frontier{}, false
		}
		return frontier{
			snap:      p.Save(),
			steps:     appendStep(f.steps, EnterReference(exp.Text)),
			completed: accepted(p),
		}, true
	}
	return frontier{}, false
}

// appendStep returns a new slice with s added, merging it into a trailing
// literal step.
func appendStep(steps []Step, s Step) []Step {
	out := make([]Step, len(steps), len(steps)+1)
	copy(out, steps)
	if n := len(out); n > 0 && s.Kind == StepLiteral && out[n-1].Kind == StepLiteral {
		out[n-1].Text += s.Text
		return out
	}
	return append(out, s)
}

// dedupe keeps the first frontier for each distinct step sequence.
func dedupe(frontiers []frontier) []frontier {
	seen := make(map[string]bool, len(frontiers))
	out := frontiers[:0:0]
	for _, f := range frontiers {
		k := stepsKey(f.steps)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}

func stepsKey(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		b.WriteByte(byte(s.Kind))
		b.WriteString(s.Text)
		b.WriteByte(0)
	}
	return b.String()
}

func accepted(p *grammar.Parser) bool {
	_, ok := p.Best()
	return ok
}

func summarize(frontiers []frontier, truncated bool) Prediction {
	if len(frontiers) == 0 {
		return Prediction{Outcome: OutcomeNone, Truncated: truncated}
	}
	paths := make([]Path, len(frontiers))
	for i, f := range frontiers {
		steps := f.steps
		if steps == nil {
			steps = []Step{}
		}
		paths[i] = Path{Steps: steps, Completed: f.completed}
	}
	if len(paths) == 1 && paths[0].Completed && len(paths[0].Steps) == 0 {
		return Prediction{Outcome: OutcomeComplete, Paths: paths, Truncated: truncated}
	}
	return Prediction{Outcome: OutcomeContinuations, Paths: paths, Truncated: truncated}
}
