package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns report IDs with a fixed prefix and a
// counter: "<prefix>-1", "<prefix>-2", ...
//
// It satisfies document.IDGenerator so checked reports, and the golden
// files recorded from them, are stable across runs.
type SequentialIDGenerator struct {
	prefix string

	mu sync.Mutex
	n  int
}

// NewSequentialIDGenerator returns a generator using prefix, or "report"
// when prefix is empty.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "report"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
