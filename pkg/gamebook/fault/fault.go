// Package fault defines the typed failure taxonomy shared by every
// pipeline stage. Stages return *Error values; the executor tags them
// with the originating stage before surfacing them on the game state.
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies a failure class. Kinds are stable identifiers and are
// part of the caller-visible contract.
type Kind string

const (
	KindSectionNotFound     Kind = "SECTION_NOT_FOUND"
	KindGenerationFailure   Kind = "GENERATION_FAILURE"
	KindMalformedRuleSet    Kind = "MALFORMED_RULE_SET"
	KindMalformedContent    Kind = "MALFORMED_CONTENT"
	KindInvalidInputFormat  Kind = "INVALID_INPUT_FORMAT"
	KindInvalidChoice       Kind = "INVALID_CHOICE"
	KindConditionsNotMet    Kind = "CONDITIONS_NOT_MET"
	KindUnknownOutcomeLabel Kind = "UNKNOWN_OUTCOME_LABEL"
	KindTimeout             Kind = "TIMEOUT"
)

// Stage identifies which pipeline stage produced a failure.
type Stage string

const (
	StageContent  Stage = "CONTENT"
	StageRules    Stage = "RULES"
	StageDecision Stage = "DECISION"
)

// Error is the typed failure carried on a GameState. Section is always
// set; Stage is filled in by the pipeline executor when it wraps a
// stage result.
type Error struct {
	Kind    Kind
	Stage   Stage
	Section int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a failure for a section. The message should name the
// section number (callers rely on it for diagnostics).
func New(kind Kind, section int, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Section: section,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches an underlying cause to a new failure.
func Wrap(kind Kind, section int, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Section: section,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WithStage returns a copy tagged with the originating stage. The
// original is left untouched so shared failures are never mutated.
func (e *Error) WithStage(stage Stage) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Stage = stage
	return &cp
}

// From extracts the typed failure from an error chain, if present.
func From(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind Kind) bool {
	if fe, ok := From(err); ok {
		return fe.Kind == kind
	}
	return false
}

// Retryable reports whether a failure kind may succeed on a retry with
// identical input. Only generation failures and timeouts qualify;
// structural and validation failures are terminal.
func Retryable(kind Kind) bool {
	return kind == KindGenerationFailure || kind == KindTimeout
}
