package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/cnl/internal/grammar"
	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/tactic"
)

const (
	// DefaultRounds bounds the number of prediction rounds.
	DefaultRounds = 32

	// DefaultStepBudget bounds the number of chart feeds one prediction
	// may spend.
	DefaultStepBudget = 4096
)

// Engine parses and predicts against the tactics of one registry.
type Engine struct {
	reg        *tactic.Registry
	rounds     int
	stepBudget int

	mu      sync.Mutex
	version int
	cache   map[grammar.FilterKey]*compiled
}

// compiled is a composite plus the tactics its root alternatives belong to.
type compiled struct {
	g       *grammar.Composite
	tactics []*tactic.Tactic
}

// Option configures an Engine.
type Option func(*Engine)

// WithRounds sets the default prediction round budget.
func WithRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.rounds = n
		}
	}
}

// WithStepBudget sets the default prediction step budget.
func WithStepBudget(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.stepBudget = n
		}
	}
}

// New returns an engine over reg.
func New(reg *tactic.Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:        reg,
		rounds:     DefaultRounds,
		stepBudget: DefaultStepBudget,
		cache:      make(map[grammar.FilterKey]*compiled),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine reads.
func (e *Engine) Registry() *tactic.Registry {
	return e.reg
}

// composite returns the memoized composite for the key selected by stack,
// rebuilding it when the registry has grown since it was assembled.
func (e *Engine) composite(stack ir.Stack) *compiled {
	key := grammar.ActiveKey(stack)
	tactics := e.reg.All()

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(tactics) != e.version {
		e.version = len(tactics)
		clear(e.cache)
	}
	if c, ok := e.cache[key]; ok {
		return c
	}

	frags := make([]*grammar.Fragment, len(tactics))
	for i, t := range tactics {
		frags[i] = t.Fragment
	}
	g := grammar.Assemble(frags, key)

	c := &compiled{g: g, tactics: make([]*tactic.Tactic, len(g.Included))}
	for alt, i := range g.Included {
		c.tactics[alt] = tactics[i]
	}
	e.cache[key] = c

	slog.Debug("composite assembled",
		"key", string(key),
		"version", e.version,
		"alternatives", g.Len())
	return c
}
