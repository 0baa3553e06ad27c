// Package decision validates player actions against a section's rule set
// and drives the per-request state machine:
//
//	PENDING → VALIDATING → {RESOLVED, NEEDS_OUTCOME, REJECTED, FAILED}
package decision

import (
	"strconv"
	"strings"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/pkg/gamebook/fault"
	"gamebook-engine/pkg/store"
)

// Evaluator reports whether a single opaque condition predicate holds for
// the current state. Conditions are free text; the engine imposes no
// parser. A nil evaluator treats every condition as met.
type Evaluator func(condition string, state *store.GameState) bool

type Stage struct {
	eval   Evaluator
	logger logger.ILogger
}

func NewStage(eval Evaluator, log logger.ILogger) *Stage {
	return &Stage{eval: eval, logger: log}
}

// Decide advances the state machine for one request. It returns the
// updated state and, when the state lands in NEEDS_OUTCOME, the matched
// choice whose outcome targets the realized dice label indexes into.
func (s *Stage) Decide(state *store.GameState, rules *store.RuleSet) (*store.GameState, *store.Choice) {
	state.Status = store.StatusValidating

	input := strings.TrimSpace(state.PlayerInput)
	if input == "" {
		return state.Reject(fault.New(fault.KindInvalidInputFormat, state.Section,
			"empty player input for section %d", state.Section)), nil
	}

	var (
		choice *store.Choice
		direct int
	)
	if n, err := strconv.Atoi(input); err == nil {
		if n <= 0 {
			return state.Reject(fault.New(fault.KindInvalidInputFormat, state.Section,
				"non-positive target %d for section %d", n, state.Section)), nil
		}
		if !rules.HasNextSection(n) {
			return state.Reject(fault.New(fault.KindInvalidChoice, state.Section,
				"invalid choice %q for section %d", input, state.Section)), nil
		}
		choice = s.matchByTarget(rules, n)
		direct = n
	} else {
		choice = s.matchByText(rules, input)
		if choice == nil {
			return state.Reject(fault.New(fault.KindInvalidChoice, state.Section,
				"invalid choice %q for section %d", input, state.Section)), nil
		}
	}

	// A numeric candidate listed in next_sections but referenced by no
	// choice is plain navigation.
	if choice == nil {
		return state.Resolve(direct), nil
	}

	if unmet := s.unmetCondition(choice, state); unmet != "" {
		return state.Reject(fault.New(fault.KindConditionsNotMet, state.Section,
			"condition not met for section %d: %s", state.Section, unmet)), nil
	}

	switch choice.Kind {
	case store.ChoiceDirect:
		state.NeedsRandomOutcome = false
		return state.Resolve(choice.Target), nil
	case store.ChoiceRandom, store.ChoiceMixed:
		state.NeedsRandomOutcome = true
		state.OutcomeKind = choice.OutcomeKind
		state.Status = store.StatusNeedsOutcome
		return state, choice
	default:
		return state.Fail(fault.New(fault.KindMalformedRuleSet, state.Section,
			"unknown choice kind %q in section %d", choice.Kind, state.Section)), nil
	}
}

// ApplyOutcome maps a realized dice label through the matched choice's
// outcome targets, moving NEEDS_OUTCOME to RESOLVED or FAILED.
func (s *Stage) ApplyOutcome(state *store.GameState, choice *store.Choice, label string) *store.GameState {
	if state.Status != store.StatusNeedsOutcome || choice == nil {
		return state
	}
	target, ok := choice.OutcomeTargets[label]
	if !ok {
		return state.Fail(fault.New(fault.KindUnknownOutcomeLabel, state.Section,
			"unknown outcome label %q for section %d", label, state.Section))
	}
	return state.Resolve(target)
}

// matchByTarget finds the choice leading to target. Ambiguous rule data
// (several choices sharing a target) resolves to the first in choice
// order; the ambiguity is logged, not an error.
func (s *Stage) matchByTarget(rules *store.RuleSet, target int) *store.Choice {
	var matches []*store.Choice
	for i := range rules.Choices {
		c := &rules.Choices[i]
		if c.Target == target {
			matches = append(matches, c)
			continue
		}
		for _, t := range c.OutcomeTargets {
			if t == target {
				matches = append(matches, c)
				break
			}
		}
	}
	if len(matches) == 0 {
		return nil
	}
	if len(matches) > 1 {
		s.logger.Warn("decision", "ambiguous choice match, first wins", map[string]interface{}{
			"section": rules.Section, "target": target, "matches": len(matches),
		})
	}
	return matches[0]
}

func (s *Stage) matchByText(rules *store.RuleSet, input string) *store.Choice {
	var matches []*store.Choice
	for i := range rules.Choices {
		if strings.EqualFold(strings.TrimSpace(rules.Choices[i].Text), input) {
			matches = append(matches, &rules.Choices[i])
		}
	}
	if len(matches) == 0 {
		return nil
	}
	if len(matches) > 1 {
		s.logger.Warn("decision", "ambiguous choice match, first wins", map[string]interface{}{
			"section": rules.Section, "input": input, "matches": len(matches),
		})
	}
	return matches[0]
}

func (s *Stage) unmetCondition(choice *store.Choice, state *store.GameState) string {
	if s.eval == nil {
		return ""
	}
	for _, cond := range choice.Conditions {
		if !s.eval(cond, state) {
			return cond
		}
	}
	return ""
}
