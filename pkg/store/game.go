package store

import (
	"fmt"
	"time"

	"gamebook-engine/pkg/gamebook/fault"
)

// ArtifactKind distinguishes the two derived artifacts a section can have.
type ArtifactKind string

const (
	KindContent ArtifactKind = "CONTENT"
	KindRules   ArtifactKind = "RULES"
)

// SectionKey identifies a cached artifact. Immutable, usable as a map key.
type SectionKey struct {
	Section int          `json:"section"`
	Kind    ArtifactKind `json:"kind"`
}

// String renders the key in the form used by the cache and the KV backends.
func (k SectionKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.Section)
}

// Origin records whether a content artifact is the raw source text or the
// formatted output derived from it.
type Origin string

const (
	OriginRaw       Origin = "RAW"
	OriginProcessed Origin = "PROCESSED"
)

// ContentArtifact is the formatted narrative for a section. Artifacts are
// never mutated after creation; a new formatting run replaces the entry.
type ContentArtifact struct {
	Section    int       `json:"section"`
	Body       string    `json:"body"`
	Origin     Origin    `json:"origin"`
	ProducedAt time.Time `json:"produced_at"`
}

// DecisionStatus is the per-request decision state machine position.
type DecisionStatus string

const (
	StatusPending      DecisionStatus = "PENDING"
	StatusValidating   DecisionStatus = "VALIDATING"
	StatusResolved     DecisionStatus = "RESOLVED"
	StatusNeedsOutcome DecisionStatus = "NEEDS_OUTCOME"
	StatusRejected     DecisionStatus = "REJECTED"
	StatusFailed       DecisionStatus = "FAILED"
)

// GameState is the externally visible result of processing one request.
// It is constructed fresh per request by the pipeline and never shared;
// it is terminal once Err or NextSection is set.
type GameState struct {
	Section            int            `json:"section"`
	PlayerInput        string         `json:"player_input,omitempty"`
	NextSection        *int           `json:"next_section,omitempty"`
	NeedsRandomOutcome bool           `json:"needs_random_outcome"`
	OutcomeKind        OutcomeKind    `json:"outcome_kind"`
	Status             DecisionStatus `json:"status"`
	Err                *fault.Error   `json:"-"`
	LastUpdate         time.Time      `json:"last_update"`
}

// NewGameState seeds a pending state for one request.
func NewGameState(section int, playerInput string) *GameState {
	return &GameState{
		Section:     section,
		PlayerInput: playerInput,
		OutcomeKind: OutcomeNone,
		Status:      StatusPending,
		LastUpdate:  time.Now(),
	}
}

// Fail marks the state terminal with a typed failure.
func (s *GameState) Fail(err *fault.Error) *GameState {
	s.Err = err
	s.Status = StatusFailed
	s.LastUpdate = time.Now()
	return s
}

// Reject marks the state rejected (player input was invalid, not a system
// failure).
func (s *GameState) Reject(err *fault.Error) *GameState {
	s.Err = err
	s.Status = StatusRejected
	s.LastUpdate = time.Now()
	return s
}

// Resolve marks the state terminal with the chosen next section.
func (s *GameState) Resolve(next int) *GameState {
	s.NextSection = &next
	s.Status = StatusResolved
	s.LastUpdate = time.Now()
	return s
}

// Terminal reports whether the state accepts no further transitions.
func (s *GameState) Terminal() bool {
	return s.Err != nil || s.NextSection != nil
}

// TraceEntry is one immutable record in the decision log. Seq is assigned
// by the trace recorder, never by callers.
type TraceEntry struct {
	Seq       uint64    `json:"seq"`
	Section   int       `json:"section"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}
