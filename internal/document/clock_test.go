package document

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/testutil"
)

func TestSeqClock(t *testing.T) {
	tests := []struct {
		name  string
		clock *SeqClock
		want  []int64
	}{
		{"fresh", NewClock(), []int64{1, 2, 3}},
		{"resumed", NewClockAt(41), []int64{42, 43, 44}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for range tt.want {
				got = append(got, tt.clock.Next())
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want[len(tt.want)-1], tt.clock.Current(), "Current does not advance")
			assert.Equal(t, tt.want[len(tt.want)-1], tt.clock.Current())
		})
	}
}

func TestSeqClock_Concurrent(t *testing.T) {
	c := NewClockAt(10)
	seqs := make(chan int64, 20*20)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				seqs <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	for seq := range seqs {
		require.False(t, seen[seq], "seq %d generated twice", seq)
		require.Greater(t, seq, int64(10))
		seen[seq] = true
	}
	assert.Len(t, seen, 400)
	assert.Equal(t, int64(410), c.Current())
}

func TestChecker_ResumesClock(t *testing.T) {
	e := engine.New(testutil.NewRegistry(t, proofDefs...))
	checker := NewChecker(e, WithClock(NewClockAt(7)))

	first, err := checker.CheckText("Note.\n")
	require.NoError(t, err)
	second, err := checker.CheckText("Note.\n")
	require.NoError(t, err)

	assert.Equal(t, int64(8), first.Seq)
	assert.Equal(t, int64(9), second.Seq)
	assert.NotEqual(t, first.ID, second.ID, "default IDs are UUIDv7")
	assert.Equal(t, first.DocumentHash, second.DocumentHash)
}

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.Generate(), g.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
	assert.Less(t, a, b, "IDs sort by creation time")
}

var (
	_ Clock       = (*SeqClock)(nil)
	_ IDGenerator = UUIDv7Generator{}
)
