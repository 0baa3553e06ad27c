package memory

import (
	"context"
	"sync"

	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/pkg/store"
)

// TraceRepository is the in-memory durable-log stand-in for tests and
// the simulation binary.
type TraceRepository struct {
	mu      sync.Mutex
	entries []store.TraceEntry
}

func NewTraceRepository() *TraceRepository {
	return &TraceRepository{}
}

var _ contract.TraceRepository = &TraceRepository{}

func (r *TraceRepository) Append(ctx context.Context, entry *store.TraceEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *TraceRepository) Range(ctx context.Context, sinceSeq uint64, limit int) ([]*store.TraceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*store.TraceEntry
	for i := range r.entries {
		e := r.entries[i]
		if e.Seq <= sinceSeq {
			continue
		}
		out = append(out, &e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *TraceRepository) TrimBefore(ctx context.Context, minSeq uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep := r.entries[:0]
	for _, e := range r.entries {
		if e.Seq >= minSeq {
			keep = append(keep, e)
		}
	}
	r.entries = keep
	return nil
}

func (r *TraceRepository) LastSeq(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return 0, nil
	}
	return r.entries[len(r.entries)-1].Seq, nil
}
