package dice

import (
	"testing"

	"gamebook-engine/pkg/store"
)

func TestRollLabels(t *testing.T) {
	r := NewSeededRoller(1)

	for _, kind := range []store.OutcomeKind{store.OutcomeCombat, store.OutcomeChance} {
		for i := 0; i < 100; i++ {
			label, err := r.Roll(kind)
			if err != nil {
				t.Fatalf("Roll(%s) failed: %v", kind, err)
			}
			if label != LabelSuccess && label != LabelFailure {
				t.Fatalf("Roll(%s) produced unknown label %q", kind, label)
			}
		}
	}
}

func TestRollUnknownKind(t *testing.T) {
	r := NewRoller()
	if _, err := r.Roll(store.OutcomeNone); err != ErrUnknownOutcomeKind {
		t.Fatalf("want ErrUnknownOutcomeKind, got %v", err)
	}
}

func TestSeededRollerIsDeterministic(t *testing.T) {
	a := NewSeededRoller(42)
	b := NewSeededRoller(42)

	for i := 0; i < 50; i++ {
		la, _ := a.Roll(store.OutcomeCombat)
		lb, _ := b.Roll(store.OutcomeCombat)
		if la != lb {
			t.Fatalf("roll %d diverged: %q vs %q", i, la, lb)
		}
	}
}

func TestRollProducesBothLabels(t *testing.T) {
	r := NewSeededRoller(7)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		label, _ := r.Roll(store.OutcomeChance)
		seen[label] = true
	}
	if !seen[LabelSuccess] || !seen[LabelFailure] {
		t.Fatalf("expected both labels over 200 rolls, saw %v", seen)
	}
}
