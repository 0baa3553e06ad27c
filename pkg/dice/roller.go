// Package dice implements the randomization collaborator for dice-gated
// section branches.
package dice

import (
	"errors"
	"math/rand/v2"

	"gamebook-engine/pkg/store"
)

// Outcome labels understood by choice outcome-target maps.
const (
	LabelSuccess = "success"
	LabelFailure = "failure"
)

// ErrUnknownOutcomeKind indicates a roll was requested for a kind with no
// dice table.
var ErrUnknownOutcomeKind = errors.New("unknown outcome kind")

// Roller produces the realized label for a randomized branch. The engine
// only maps the label through a choice's outcome targets; it never
// generates randomness itself.
type Roller interface {
	Roll(kind store.OutcomeKind) (string, error)
}

// RandomRoller rolls per-kind dice tables. Combat resolves on 2d6
// against a threshold of 7; chance resolves on 1d6 against 4.
type RandomRoller struct {
	intN func(n int) int
}

var _ Roller = &RandomRoller{}

func NewRoller() *RandomRoller {
	return &RandomRoller{intN: rand.IntN}
}

// NewSeededRoller returns a deterministic roller for tests and replay.
func NewSeededRoller(seed uint64) *RandomRoller {
	rng := rand.New(rand.NewPCG(seed, seed))
	return &RandomRoller{intN: rng.IntN}
}

func (r *RandomRoller) Roll(kind store.OutcomeKind) (string, error) {
	switch kind {
	case store.OutcomeCombat:
		total := r.die(6) + r.die(6)
		if total >= 7 {
			return LabelSuccess, nil
		}
		return LabelFailure, nil
	case store.OutcomeChance:
		if r.die(6) >= 4 {
			return LabelSuccess, nil
		}
		return LabelFailure, nil
	default:
		return "", ErrUnknownOutcomeKind
	}
}

func (r *RandomRoller) die(sides int) int {
	return r.intN(sides) + 1
}

// FixedRoller always returns the same label. Test double.
type FixedRoller struct {
	Label string
}

var _ Roller = FixedRoller{}

func (f FixedRoller) Roll(store.OutcomeKind) (string, error) {
	return f.Label, nil
}
