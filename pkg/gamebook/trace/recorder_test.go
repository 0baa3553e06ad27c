package trace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/internal/repository/memory"
	"gamebook-engine/pkg/store"
)

func newTestRecorder(retention int) *Recorder {
	return NewRecorder(retention, nil, nil, logger.NewNopLogger())
}

func TestRecordAssignsMonotonicSequence(t *testing.T) {
	r := newTestRecorder(0)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		seq, err := r.Record(ctx, i, "input", "resolved")
		require.NoError(t, err)
		assert.Equal(t, uint64(i), seq)
	}
	assert.Equal(t, uint64(5), r.LastSeq())
}

func TestRecordConcurrentNoGapsNoDuplicates(t *testing.T) {
	r := newTestRecorder(0)
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	seqs := make([]uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seq, err := r.Record(ctx, i, fmt.Sprintf("input-%d", i), "resolved")
			assert.NoError(t, err)
			seqs[i] = seq
		}(i)
	}
	wg.Wait()

	sort.Slice(seqs, func(a, b int) bool { return seqs[a] < seqs[b] })
	for i, seq := range seqs {
		assert.Equal(t, uint64(i+1), seq, "sequence numbers must be gapless")
	}

	entries := r.List(0, 0)
	require.Len(t, entries, n)
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i].Seq, entries[i-1].Seq, "log must be in ascending order")
	}
}

func TestRetentionEvictsOldest(t *testing.T) {
	r := newTestRecorder(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := r.Record(ctx, i, "input", "resolved")
		require.NoError(t, err)
	}

	entries := r.List(0, 0)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(3), entries[0].Seq, "oldest entries evicted first")
	assert.Equal(t, uint64(5), entries[2].Seq)
	assert.Equal(t, uint64(5), r.LastSeq(), "eviction never rewinds the counter")
}

func TestListReturnsCopies(t *testing.T) {
	r := newTestRecorder(0)
	_, err := r.Record(context.Background(), 1, "input", "resolved")
	require.NoError(t, err)

	got := r.List(0, 0)
	got[0].Outcome = "tampered"

	again := r.List(0, 0)
	assert.Equal(t, "resolved", again[0].Outcome, "callers must not be able to mutate the log")
}

func TestListSinceAndLimit(t *testing.T) {
	r := newTestRecorder(0)
	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		_, err := r.Record(ctx, i, "input", "resolved")
		require.NoError(t, err)
	}

	entries := r.List(3, 4)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(5), entries[0].Seq)
	assert.Equal(t, uint64(7), entries[2].Seq)
}

func TestReplayStopsWhenToldTo(t *testing.T) {
	r := newTestRecorder(0)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := r.Record(ctx, i, "input", "resolved")
		require.NoError(t, err)
	}

	var seen []uint64
	r.Replay(func(e store.TraceEntry) bool {
		seen = append(seen, e.Seq)
		return e.Seq < 3
	})
	assert.Equal(t, []uint64{1, 2, 3}, seen)
}

func TestRecorderResumesFromDurableLog(t *testing.T) {
	repo := memory.NewTraceRepository()
	ctx := context.Background()

	first := NewRecorder(0, repo, nil, logger.NewNopLogger())
	for i := 1; i <= 4; i++ {
		_, err := first.Record(ctx, i, "input", "resolved")
		require.NoError(t, err)
	}

	// A new process picks up where the previous one stopped.
	second := NewRecorder(0, repo, nil, logger.NewNopLogger())
	seq, err := second.Record(ctx, 5, "input", "resolved")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), seq)
}

func TestRetentionTrimsDurableLog(t *testing.T) {
	repo := memory.NewTraceRepository()
	ctx := context.Background()

	r := NewRecorder(2, repo, nil, logger.NewNopLogger())
	for i := 1; i <= 4; i++ {
		_, err := r.Record(ctx, i, "input", "resolved")
		require.NoError(t, err)
	}

	stored, err := repo.Range(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, uint64(3), stored[0].Seq)
}
