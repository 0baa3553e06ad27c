package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/internal/repository/memory"
	"gamebook-engine/pkg/artifactcache"
	"gamebook-engine/pkg/dice"
	"gamebook-engine/pkg/gamebook/content"
	"gamebook-engine/pkg/gamebook/decision"
	"gamebook-engine/pkg/gamebook/fault"
	"gamebook-engine/pkg/gamebook/rules"
	"gamebook-engine/pkg/gamebook/trace"
	"gamebook-engine/pkg/generation"
	"gamebook-engine/pkg/store"
)

const caveRulesYAML = `section: 1
next_sections: [145, 278]
choices:
  - text: light your lantern and enter
    kind: DIRECT
    target: 145
  - text: circle the hillside
    kind: DIRECT
    target: 278`

const luckRulesYAML = `section: 278
needs_random_outcome: true
outcome_kind: CHANCE
next_sections: [301, 99]
choices:
  - text: test your luck
    kind: RANDOM
    outcome_kind: CHANCE
    outcome_targets:
      success: 301
      failure: 99`

// fakeProvider formats narratives verbatim and serves rule YAML per
// section, optionally failing the first failN generation calls.
type fakeProvider struct {
	rules map[int]string
	failN int32
	calls int32
}

func (p *fakeProvider) Generate(_ context.Context, task generation.TaskKind, input string, _ ...generation.Option) (string, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if n <= atomic.LoadInt32(&p.failN) {
		return "", fmt.Errorf("transient model failure %d", n)
	}
	if task == generation.TaskFormatNarrative {
		return input, nil
	}
	var section int
	fmt.Sscanf(input, "%d", &section)
	out, ok := p.rules[section]
	if !ok {
		return "", fmt.Errorf("no rules for section %d", section)
	}
	return out, nil
}

type fixture struct {
	pipeline *Pipeline
	provider *fakeProvider
	sections *memory.SectionRepository
	recorder *trace.Recorder
}

func newFixture(t *testing.T, roller dice.Roller, cfg Config) *fixture {
	t.Helper()

	sections := memory.NewSectionRepository()
	ctx := context.Background()
	raw := map[int]string{
		1:   "1\nYou stand at the cave mouth. Turn to 145 or 278.",
		278: "278\nThe path narrows. Test your luck.",
	}
	for section, text := range raw {
		require.NoError(t, sections.PutRaw(ctx, section, store.KindContent, text))
	}

	provider := &fakeProvider{rules: map[int]string{1: caveRulesYAML, 278: luckRulesYAML}}
	quiet := logger.NewNopLogger()
	cache := artifactcache.New(artifactcache.Options{})
	recorder := trace.NewRecorder(0, memory.NewTraceRepository(), nil, quiet)

	pipeline := NewPipeline(
		content.NewManager(cache, sections, provider, generation.Settings{}, quiet),
		rules.NewManager(cache, sections, provider, generation.Settings{}, quiet),
		decision.NewStage(nil, quiet),
		roller,
		recorder,
		quiet,
		cfg,
	)
	return &fixture{pipeline: pipeline, provider: provider, sections: sections, recorder: recorder}
}

func TestProcessResolvesDirectChoice(t *testing.T) {
	f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{})

	state := f.pipeline.Process(context.Background(), 1, "145", "")

	require.NotNil(t, state)
	require.Nil(t, state.Err)
	assert.Equal(t, store.StatusResolved, state.Status)
	assert.Equal(t, 145, *state.NextSection)

	entries := f.recorder.List(0, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, "145", entries[0].Action)
	assert.Equal(t, "145", entries[0].Outcome)
}

func TestProcessRealizesDiceOutcome(t *testing.T) {
	t.Run("success branch", func(t *testing.T) {
		f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{})
		state := f.pipeline.Process(context.Background(), 278, "test your luck", "")
		require.Nil(t, state.Err)
		assert.Equal(t, 301, *state.NextSection)
	})
	t.Run("failure branch", func(t *testing.T) {
		f := newFixture(t, dice.FixedRoller{Label: dice.LabelFailure}, Config{})
		state := f.pipeline.Process(context.Background(), 278, "test your luck", "")
		require.Nil(t, state.Err)
		assert.Equal(t, 99, *state.NextSection)
	})
}

func TestProcessUnknownSectionFailsInContentStage(t *testing.T) {
	f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{})

	state := f.pipeline.Process(context.Background(), 999, "1", "")

	require.NotNil(t, state, "pipeline always returns a state")
	require.NotNil(t, state.Err)
	assert.Equal(t, store.StatusFailed, state.Status)
	assert.Equal(t, fault.KindSectionNotFound, state.Err.Kind)
	assert.Equal(t, fault.StageContent, state.Err.Stage)
	assert.Contains(t, state.Err.Message, "999")
	assert.Zero(t, atomic.LoadInt32(&f.provider.calls), "no stage runs after the short-circuit")

	entries := f.recorder.List(0, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, string(fault.KindSectionNotFound), entries[0].Outcome)
}

func TestProcessRejectionIsTaggedDecisionStage(t *testing.T) {
	f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{})

	state := f.pipeline.Process(context.Background(), 1, "999", "")

	require.NotNil(t, state.Err)
	assert.Equal(t, store.StatusRejected, state.Status)
	assert.Equal(t, fault.KindInvalidChoice, state.Err.Kind)
	assert.Equal(t, fault.StageDecision, state.Err.Stage)
	assert.Contains(t, state.Err.Message, "invalid choice")
}

func TestProcessRetriesTransientFailures(t *testing.T) {
	f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{MaxAttempts: 3})
	atomic.StoreInt32(&f.provider.failN, 2)

	state := f.pipeline.Process(context.Background(), 1, "145", "")

	require.Nil(t, state.Err, "two transient failures fit inside three attempts")
	assert.Equal(t, 145, *state.NextSection)
}

func TestProcessRetryBudgetExhausted(t *testing.T) {
	f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{MaxAttempts: 3})
	atomic.StoreInt32(&f.provider.failN, 10)

	state := f.pipeline.Process(context.Background(), 1, "145", "")

	require.NotNil(t, state.Err)
	assert.Equal(t, fault.KindGenerationFailure, state.Err.Kind)
	assert.Equal(t, fault.StageContent, state.Err.Stage)
	assert.Equal(t, int32(3), atomic.LoadInt32(&f.provider.calls), "exactly MaxAttempts attempts")
}

func TestProcessDoesNotRetryValidationFailures(t *testing.T) {
	f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{MaxAttempts: 3})
	f.provider.rules[1] = "not: [valid yaml"

	state := f.pipeline.Process(context.Background(), 1, "145", "")

	require.NotNil(t, state.Err)
	assert.Equal(t, fault.KindMalformedRuleSet, state.Err.Kind)
	assert.Equal(t, fault.StageRules, state.Err.Stage)
	// One narrative call plus one extraction call; malformed output is
	// terminal on first occurrence.
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.provider.calls))
}

func TestProcessFailureDoesNotPoisonCache(t *testing.T) {
	f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{MaxAttempts: 1})
	atomic.StoreInt32(&f.provider.failN, 1)

	state := f.pipeline.Process(context.Background(), 1, "145", "")
	require.NotNil(t, state.Err)

	// The failed request left nothing cached; the next one succeeds.
	state = f.pipeline.Process(context.Background(), 1, "145", "")
	require.Nil(t, state.Err)
	assert.Equal(t, 145, *state.NextSection)
}

func TestProcessRawOverrideReplacesContent(t *testing.T) {
	f := newFixture(t, dice.FixedRoller{Label: dice.LabelSuccess}, Config{})
	ctx := context.Background()

	override := "1\nA rewritten cave mouth. Turn to 145 or 278."
	state := f.pipeline.Process(ctx, 1, "145", override)
	require.Nil(t, state.Err)

	body, err := f.sections.GetArtifact(ctx, store.SectionKey{Section: 1, Kind: store.KindContent})
	require.NoError(t, err)
	assert.Equal(t, override, body)
}

func TestProcessStageTimeout(t *testing.T) {
	sections := memory.NewSectionRepository()
	ctx := context.Background()
	require.NoError(t, sections.PutRaw(ctx, 1, store.KindContent, "1\nSome cave."))

	slow := &slowProvider{delay: 200 * time.Millisecond}
	quiet := logger.NewNopLogger()
	cache := artifactcache.New(artifactcache.Options{})
	recorder := trace.NewRecorder(0, memory.NewTraceRepository(), nil, quiet)

	pipeline := NewPipeline(
		content.NewManager(cache, sections, slow, generation.Settings{}, quiet),
		rules.NewManager(cache, sections, slow, generation.Settings{}, quiet),
		decision.NewStage(nil, quiet),
		dice.FixedRoller{Label: dice.LabelSuccess},
		recorder,
		quiet,
		Config{MaxAttempts: 1, StageTimeout: 20 * time.Millisecond},
	)

	state := pipeline.Process(ctx, 1, "145", "")

	require.NotNil(t, state.Err)
	assert.Equal(t, fault.KindTimeout, state.Err.Kind)
	assert.Equal(t, fault.StageContent, state.Err.Stage)
}

type slowProvider struct {
	delay time.Duration
}

func (p *slowProvider) Generate(ctx context.Context, _ generation.TaskKind, input string, _ ...generation.Option) (string, error) {
	select {
	case <-time.After(p.delay):
		return input, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
