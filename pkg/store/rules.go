package store

import (
	"fmt"
)

// OutcomeKind classifies the randomized gate on a section or choice.
type OutcomeKind string

const (
	OutcomeNone   OutcomeKind = "NONE"
	OutcomeCombat OutcomeKind = "COMBAT"
	OutcomeChance OutcomeKind = "CHANCE"
)

// ChoiceKind classifies how a choice resolves to its target section.
type ChoiceKind string

const (
	// ChoiceDirect resolves to a single implicit target.
	ChoiceDirect ChoiceKind = "DIRECT"
	// ChoiceRandom resolves through a dice outcome only.
	ChoiceRandom ChoiceKind = "RANDOM"
	// ChoiceMixed has conditions and a dice outcome.
	ChoiceMixed ChoiceKind = "MIXED"
)

// Choice is one selectable action within a section's rules.
type Choice struct {
	Text        string         `json:"text" yaml:"text"`
	Kind        ChoiceKind     `json:"kind" yaml:"kind"`
	Conditions  []string       `json:"conditions,omitempty" yaml:"conditions"`
	OutcomeKind OutcomeKind    `json:"outcome_kind,omitempty" yaml:"outcome_kind"`
	Target      int            `json:"target,omitempty" yaml:"target"`
	// OutcomeTargets maps an outcome label ("success"/"failure") to the
	// section it leads to. Empty for DIRECT choices.
	OutcomeTargets map[string]int `json:"outcome_targets,omitempty" yaml:"outcome_targets"`
}

// RuleSet is the structured rule description extracted for one section.
// Conditions are opaque predicate strings; evaluation is delegated to the
// decision stage's evaluator hook.
type RuleSet struct {
	Section            int         `json:"section" yaml:"section"`
	NeedsRandomOutcome bool        `json:"needs_random_outcome" yaml:"needs_random_outcome"`
	OutcomeKind        OutcomeKind `json:"outcome_kind" yaml:"outcome_kind"`
	Conditions         []string    `json:"conditions,omitempty" yaml:"conditions"`
	Choices            []Choice    `json:"choices" yaml:"choices"`
	NextSections       []int       `json:"next_sections" yaml:"next_sections"`
	Summary            string      `json:"summary,omitempty" yaml:"summary"`
}

// HasNextSection reports whether target is one of the declared candidates.
func (r *RuleSet) HasNextSection(target int) bool {
	for _, s := range r.NextSections {
		if s == target {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a rule set. It returns a
// plain error describing the first violation; the rules stage wraps it
// into the typed failure taxonomy.
func (r *RuleSet) Validate() error {
	if r.Section <= 0 {
		return fmt.Errorf("section number must be positive, got %d", r.Section)
	}
	if r.NeedsRandomOutcome && r.OutcomeKind == OutcomeNone {
		return fmt.Errorf("section %d needs a random outcome but outcome kind is NONE", r.Section)
	}
	for i, c := range r.Choices {
		switch c.Kind {
		case ChoiceDirect:
			if len(c.OutcomeTargets) != 0 {
				return fmt.Errorf("section %d choice %d: direct choice must not carry outcome targets", r.Section, i)
			}
			if c.Target <= 0 {
				return fmt.Errorf("section %d choice %d: direct choice missing target", r.Section, i)
			}
			if !r.HasNextSection(c.Target) {
				return fmt.Errorf("section %d choice %d: target %d not in next section candidates", r.Section, i, c.Target)
			}
		case ChoiceRandom, ChoiceMixed:
			if len(c.OutcomeTargets) == 0 {
				return fmt.Errorf("section %d choice %d: %s choice missing outcome targets", r.Section, i, c.Kind)
			}
			if c.OutcomeKind == OutcomeNone || c.OutcomeKind == "" {
				return fmt.Errorf("section %d choice %d: %s choice missing outcome kind", r.Section, i, c.Kind)
			}
			for label, target := range c.OutcomeTargets {
				if !r.HasNextSection(target) {
					return fmt.Errorf("section %d choice %d: outcome %q target %d not in next section candidates", r.Section, i, label, target)
				}
			}
		default:
			return fmt.Errorf("section %d choice %d: unknown choice kind %q", r.Section, i, c.Kind)
		}
	}
	return nil
}
