// Package trace keeps the ordered, bounded decision log.
package trace

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/pkg/events"
	"gamebook-engine/pkg/store"
)

const DefaultRetention = 1000

// TopicDecisionRecorded is the in-process bus topic for recorded
// decisions.
const TopicDecisionRecorded = "decision.recorded"

// Recorder appends immutable decision records with a monotonically
// increasing sequence number. The counter and the log tail share one
// mutex, so concurrent appends never produce duplicate or out-of-order
// sequence numbers. Retention is FIFO: once the bound is exceeded the
// oldest entries become unobservable.
type Recorder struct {
	mu        sync.Mutex
	seq       uint64
	entries   []store.TraceEntry
	retention int

	repo      contract.TraceRepository // optional durable log
	publisher message.Publisher        // optional event bus
	logger    logger.ILogger
}

func NewRecorder(retention int, repo contract.TraceRepository, publisher message.Publisher, log logger.ILogger) *Recorder {
	if retention <= 0 {
		retention = DefaultRetention
	}
	r := &Recorder{
		retention: retention,
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
	if repo != nil {
		// Resume the sequence from the durable log so replayed processes
		// never reissue numbers.
		if last, err := repo.LastSeq(context.Background()); err == nil {
			r.seq = last
		} else {
			log.Warn("trace", "failed to read last sequence, starting at zero", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return r
}

// Record appends one entry and returns its assigned sequence number.
// Sequence assignment is totally ordered across callers.
func (r *Recorder) Record(ctx context.Context, section int, action, outcome string) (uint64, error) {
	r.mu.Lock()
	r.seq++
	entry := store.TraceEntry{
		Seq:       r.seq,
		Section:   section,
		Action:    action,
		Outcome:   outcome,
		Timestamp: time.Now(),
	}
	r.entries = append(r.entries, entry)

	var evictBefore uint64
	if len(r.entries) > r.retention {
		drop := len(r.entries) - r.retention
		evictBefore = r.entries[drop].Seq
		r.entries = append([]store.TraceEntry(nil), r.entries[drop:]...)
	}

	if r.repo != nil {
		// Durable append stays inside the lock so the stored log shares
		// the in-memory ordering.
		if err := r.repo.Append(ctx, &entry); err != nil {
			r.logger.Error("trace", "durable trace append failed", map[string]interface{}{
				"seq": entry.Seq, "error": err.Error(),
			})
		}
	}
	r.mu.Unlock()

	if evictBefore > 0 && r.repo != nil {
		if err := r.repo.TrimBefore(ctx, evictBefore); err != nil {
			r.logger.Warn("trace", "trace retention trim failed", map[string]interface{}{
				"before": evictBefore, "error": err.Error(),
			})
		}
	}

	r.publish(entry)
	return entry.Seq, nil
}

// List returns entries with Seq > sinceSeq in ascending order, up to
// limit (limit <= 0 means everything retained). Callers receive copies;
// the log itself is never handed out.
func (r *Recorder) List(limit int, sinceSeq uint64) []store.TraceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]store.TraceEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Seq <= sinceSeq {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Replay walks the retained log in ascending sequence order until fn
// returns false. Restartable: each call starts from the oldest retained
// entry.
func (r *Recorder) Replay(fn func(store.TraceEntry) bool) {
	for _, e := range r.List(0, 0) {
		if !fn(e) {
			return
		}
	}
}

// LastSeq returns the most recently assigned sequence number.
func (r *Recorder) LastSeq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

func (r *Recorder) publish(entry store.TraceEntry) {
	if r.publisher == nil {
		return
	}
	payload, err := json.Marshal(events.NewDecisionRecorded(entry).Payload())
	if err != nil {
		r.logger.Warn("trace", "failed to marshal decision event", map[string]interface{}{
			"seq": entry.Seq, "error": err.Error(),
		})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := r.publisher.Publish(TopicDecisionRecorded, msg); err != nil {
		r.logger.Warn("trace", "failed to publish decision event", map[string]interface{}{
			"seq": entry.Seq, "error": err.Error(),
		})
	}
}
