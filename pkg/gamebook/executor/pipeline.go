package executor

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/pkg/dice"
	"gamebook-engine/pkg/gamebook/content"
	"gamebook-engine/pkg/gamebook/decision"
	"gamebook-engine/pkg/gamebook/fault"
	"gamebook-engine/pkg/gamebook/rules"
	"gamebook-engine/pkg/gamebook/trace"
	"gamebook-engine/pkg/generation"
	"gamebook-engine/pkg/store"
)

const (
	DefaultMaxAttempts  = 3
	DefaultStageTimeout = 60 * time.Second
)

// Config bounds the pipeline's retry and wait behaviour. Retries apply
// only to generation failures and timeouts; every other failure kind is
// terminal on first occurrence.
type Config struct {
	MaxAttempts  int
	StageTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = DefaultStageTimeout
	}
	return c
}

// Pipeline orchestrates the three processing stages per request
// Stage 1: Content Formatting → Stage 2: Rule Extraction → Stage 3: Decision
type Pipeline struct {
	content  *content.Manager
	rules    *rules.Manager
	decision *decision.Stage
	roller   dice.Roller
	recorder *trace.Recorder
	logger   logger.ILogger
	cfg      Config
}

func NewPipeline(
	contentMgr *content.Manager,
	rulesMgr *rules.Manager,
	decisionStage *decision.Stage,
	roller dice.Roller,
	recorder *trace.Recorder,
	log logger.ILogger,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		content:  contentMgr,
		rules:    rulesMgr,
		decision: decisionStage,
		roller:   roller,
		recorder: recorder,
		logger:   log,
		cfg:      cfg.withDefaults(),
	}
}

// ProcessOption tunes a single Process call.
type ProcessOption func(*processOptions)

type processOptions struct {
	generation *generation.Settings
}

// WithGenerationOverride applies request-level generation settings on top
// of each stage's configuration for this call only.
func WithGenerationOverride(s generation.Settings) ProcessOption {
	return func(o *processOptions) {
		o.generation = &s
	}
}

// Process is the sole entry point: it sequences the content, rules and
// decision stages for one request, short-circuiting on the first failure
// and tagging it with the stage that produced it. Callers always receive
// a GameState; failures surface on its Err field, never as a panic or a
// bare error. The terminal outcome is recorded in the trace log.
func (p *Pipeline) Process(ctx context.Context, section int, playerInput, rawOverride string, opts ...ProcessOption) *store.GameState {
	var po processOptions
	for _, opt := range opts {
		opt(&po)
	}

	state := store.NewGameState(section, playerInput)
	p.logger.Info("pipeline", "processing section", map[string]interface{}{
		"section": section, "input": playerInput, "override": rawOverride != "",
	})

	// ═══════════════════════════════════════════════════════════════
	// STAGE 1: CONTENT FORMATTING
	// ═══════════════════════════════════════════════════════════════
	var artifact *store.ContentArtifact
	err := p.withRetry(ctx, section, "content", func(ctx context.Context) error {
		var stageErr error
		artifact, stageErr = p.content.GetContent(ctx, section, rawOverride, po.generation)
		return stageErr
	})
	if err != nil {
		return p.finish(ctx, state.Fail(p.toFault(err, section).WithStage(fault.StageContent)))
	}

	// ═══════════════════════════════════════════════════════════════
	// STAGE 2: RULE EXTRACTION
	// ═══════════════════════════════════════════════════════════════
	var ruleSet *store.RuleSet
	err = p.withRetry(ctx, section, "rules", func(ctx context.Context) error {
		var stageErr error
		ruleSet, stageErr = p.rules.GetRules(ctx, section, artifact.Body, po.generation)
		return stageErr
	})
	if err != nil {
		return p.finish(ctx, state.Fail(p.toFault(err, section).WithStage(fault.StageRules)))
	}

	// ═══════════════════════════════════════════════════════════════
	// STAGE 3: DECISION
	// ═══════════════════════════════════════════════════════════════
	state, choice := p.decision.Decide(state, ruleSet)

	if state.Status == store.StatusNeedsOutcome {
		label, rollErr := p.roller.Roll(state.OutcomeKind)
		if rollErr != nil {
			state.Fail(fault.Wrap(fault.KindUnknownOutcomeLabel, section, rollErr,
				"dice roll failed for section %d", section))
		} else {
			p.logger.Debug("pipeline", "dice outcome realized", map[string]interface{}{
				"section": section, "kind": state.OutcomeKind, "label": label,
			})
			state = p.decision.ApplyOutcome(state, choice, label)
		}
	}

	if state.Err != nil {
		state.Err = state.Err.WithStage(fault.StageDecision)
	}
	return p.finish(ctx, state)
}

// withRetry runs one stage with a per-attempt timeout. The timeout
// cancels only this pipeline's wait; shared singleflight computations
// keep running for other waiters.
func (p *Pipeline) withRetry(ctx context.Context, section int, stage string, fn func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		stageCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
		err := fn(stageCtx)
		cancel()
		if err == nil {
			return nil
		}

		fe := p.toFault(err, section)
		if attempt >= p.cfg.MaxAttempts || !fault.Retryable(fe.Kind) {
			return fe
		}
		p.logger.Warn("pipeline", "stage failed, retrying", map[string]interface{}{
			"stage": stage, "section": section, "attempt": attempt, "error": fe.Error(),
		})
	}
}

func (p *Pipeline) toFault(err error, section int) *fault.Error {
	if fe, ok := fault.From(err); ok {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fault.Wrap(fault.KindTimeout, section, err, "stage timed out for section %d", section)
	}
	return fault.Wrap(fault.KindGenerationFailure, section, err, "stage failed for section %d", section)
}

// finish records the terminal outcome and hands the state back.
func (p *Pipeline) finish(ctx context.Context, state *store.GameState) *store.GameState {
	outcome := p.outcomeLabel(state)
	if _, err := p.recorder.Record(ctx, state.Section, state.PlayerInput, outcome); err != nil {
		p.logger.Error("pipeline", "failed to record trace entry", map[string]interface{}{
			"section": state.Section, "error": err.Error(),
		})
	}
	if state.Err != nil {
		p.logger.Warn("pipeline", "request finished with failure", map[string]interface{}{
			"section": state.Section, "kind": state.Err.Kind, "stage": state.Err.Stage,
		})
	} else {
		p.logger.Info("pipeline", "request resolved", map[string]interface{}{
			"section": state.Section, "next": *state.NextSection,
		})
	}
	return state
}

func (p *Pipeline) outcomeLabel(state *store.GameState) string {
	if state.Err != nil {
		return string(state.Err.Kind)
	}
	if state.NextSection != nil {
		return strconv.Itoa(*state.NextSection)
	}
	return string(state.Status)
}
