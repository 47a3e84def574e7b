package harness

import (
	"github.com/roach88/cnl/internal/ir"
)

// Trace event types.
const (
	EventMatch      = "match"
	EventNoMatch    = "no_match"
	EventChainEnd   = "chain_end"
	EventPrediction = "prediction"
	EventChunk      = "chunk"
	EventReport     = "report"
)

// TraceEvent records one observable result of a step.
type TraceEvent struct {
	Type string `json:"type"`
	Step int    `json:"step"`
	Seq  int64  `json:"seq"`

	// match and tactic chunks
	Tactic string    `json:"tactic,omitempty"`
	Values ir.Values `json:"values,omitempty"`
	Start  int       `json:"start"`
	End    int       `json:"end"`

	// chunk
	Kind    string `json:"kind,omitempty"`
	Line    int    `json:"line,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Fatal   bool   `json:"fatal,omitempty"`

	// prediction
	Outcome string   `json:"outcome,omitempty"`
	Paths   []string `json:"paths,omitempty"`

	// chain_end and report
	Stack  ir.Stack `json:"stack,omitempty"`
	Rest   string   `json:"rest,omitempty"`
	Report string   `json:"report,omitempty"`
	Script string   `json:"script,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains the events of all steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
