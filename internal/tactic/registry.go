package tactic

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/cnl/internal/grammar"
	"github.com/roach88/cnl/internal/ir"
)

// SpecParser turns specification source text into a Specification.
// The registry never parses source text itself.
type SpecParser interface {
	ParseSpecification(source string) (ir.Specification, error)
}

// SpecParserFunc adapts a function to SpecParser.
type SpecParserFunc func(source string) (ir.Specification, error)

// ParseSpecification calls f(source).
func (f SpecParserFunc) ParseSpecification(source string) (ir.Specification, error) {
	return f(source)
}

// Registry is an append-only, ordered collection of compiled tactics.
// Safe for concurrent use.
type Registry struct {
	parser   SpecParser
	validate func(ir.Specification) error

	mu       sync.RWMutex
	tactics  []*Tactic
	bySource map[string]*Tactic
	nextFrag grammar.FragmentID
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithValidator runs fn on every parsed specification before it is
// compiled. A non-nil error aborts the registration.
func WithValidator(fn func(ir.Specification) error) RegistryOption {
	return func(r *Registry) {
		r.validate = fn
	}
}

// NewRegistry returns an empty registry using parser for source text.
func NewRegistry(parser SpecParser, opts ...RegistryOption) *Registry {
	r := &Registry{
		parser:   parser,
		bySource: make(map[string]*Tactic),
		nextFrag: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register parses source, compiles its grammar fragment and appends the
// tactic.
//
// If source is already registered under the same name the existing tactic
// is returned. Under a different name Register returns a *ConflictError.
// Parse, validation and compile errors are returned wrapped.
func (r *Registry) Register(name, source string, tr Transformer) (*Tactic, error) {
	id := ir.TacticID(source)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.bySource[id]; ok {
		if existing.Name == name {
			return existing, nil
		}
		return nil, &ConflictError{Source: source, Existing: existing.Name, Requested: name}
	}

	spec, err := r.parser.ParseSpecification(source)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", displayName(name, id), err)
	}
	if r.validate != nil {
		if err := r.validate(spec); err != nil {
			return nil, fmt.Errorf("register %s: %w", displayName(name, id), err)
		}
	}

	frag, err := grammar.Compile(r.nextFrag, spec)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", displayName(name, id), err)
	}
	r.nextFrag++

	t := &Tactic{
		Index:       len(r.tactics),
		Name:        name,
		Source:      source,
		ID:          id,
		Spec:        spec,
		Fragment:    frag,
		transformer: tr,
	}
	r.tactics = append(r.tactics, t)
	r.bySource[id] = t

	slog.Debug("tactic registered",
		"tactic", t.Label(),
		"index", t.Index,
		"fragment", frag.ID,
		"filter", string(frag.Key),
		"rules", len(frag.Rules))

	return t, nil
}

// All returns a snapshot of the registered tactics in registration order.
func (r *Registry) All() []*Tactic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tactic, len(r.tactics))
	copy(out, r.tactics)
	return out
}

// Version returns the number of registered tactics. Since the registry is
// append-only, equal versions mean equal snapshots.
func (r *Registry) Version() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tactics)
}

// Lookup finds a tactic by name. Unnamed tactics are not found.
func (r *Registry) Lookup(name string) (*Tactic, bool) {
	if name == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tactics {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

func displayName(name, id string) string {
	if name != "" {
		return fmt.Sprintf("%q", name)
	}
	return "tactic " + id[:12]
}
