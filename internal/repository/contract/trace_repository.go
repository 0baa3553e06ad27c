package contract

import (
	"context"

	"gamebook-engine/pkg/store"
)

// TraceRepository persists the append-only decision log. Sequence numbers
// are assigned by the trace recorder before entries reach this layer.
type TraceRepository interface {
	// Append durably stores one entry.
	Append(ctx context.Context, entry *store.TraceEntry) error

	// Range returns entries with Seq > sinceSeq in ascending order, at
	// most limit of them (limit <= 0 means no limit).
	Range(ctx context.Context, sinceSeq uint64, limit int) ([]*store.TraceEntry, error)

	// TrimBefore removes entries with Seq < minSeq (retention eviction).
	TrimBefore(ctx context.Context, minSeq uint64) error

	// LastSeq returns the highest stored sequence number, or 0 when the
	// log is empty.
	LastSeq(ctx context.Context) (uint64, error)
}
