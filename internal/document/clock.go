package document

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Clock stamps reports with increasing sequence numbers.
type Clock interface {
	Next() int64
}

// IDGenerator names reports.
type IDGenerator interface {
	Generate() string
}

// SeqClock is a monotonic logical clock. Reports are ordered by the
// number it hands out, never by wall time, so a replayed session stores
// its reports in the same order.
//
// Thread-safety: SeqClock is safe for concurrent use (atomic operations).
type SeqClock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *SeqClock {
	return &SeqClock{}
}

// NewClockAt creates a clock resuming after start, e.g. the highest
// sequence number already in the store.
func NewClockAt(start int64) *SeqClock {
	c := &SeqClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *SeqClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *SeqClock) Current() int64 {
	return c.seq.Load()
}

// UUIDv7Generator generates time-sortable UUIDv7 report IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
