package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Zero(t, clock.Current())

	got := []int64{clock.Next(), clock.Next(), clock.Next()}
	assert.Equal(t, []int64{1, 2, 3}, got)
	assert.Equal(t, int64(3), clock.Current())

	clock.Reset()
	assert.Zero(t, clock.Current())
	assert.Equal(t, int64(1), clock.Next(), "a reset clock replays from 1")
}

func TestDeterministicClock_Concurrent(t *testing.T) {
	clock := NewDeterministicClock()

	var (
		mu   sync.Mutex
		seen = map[int64]int{}
		wg   sync.WaitGroup
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				seq := clock.Next()
				mu.Lock()
				seen[seq]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 16*50)
	assert.Equal(t, int64(16*50), clock.Current())
	for seq, n := range seen {
		assert.Equal(t, 1, n, "seq %d handed out twice", seq)
	}
}
