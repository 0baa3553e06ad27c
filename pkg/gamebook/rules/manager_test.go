package rules

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/internal/repository/memory"
	"gamebook-engine/pkg/artifactcache"
	"gamebook-engine/pkg/gamebook/fault"
	"gamebook-engine/pkg/generation"
)

const validRulesYAML = `section: 1
needs_random_outcome: false
outcome_kind: NONE
next_sections: [145, 278]
choices:
  - text: light your lantern and enter
    kind: DIRECT
    target: 145
  - text: circle the hillside
    kind: DIRECT
    target: 278`

type scriptedProvider struct {
	calls   int32
	outputs []string
	err     error
}

func (p *scriptedProvider) Generate(_ context.Context, _ generation.TaskKind, _ string, _ ...generation.Option) (string, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if p.err != nil {
		return "", p.err
	}
	idx := int(n) - 1
	if idx >= len(p.outputs) {
		idx = len(p.outputs) - 1
	}
	return p.outputs[idx], nil
}

func newTestManager(p generation.Provider) *Manager {
	return NewManager(
		artifactcache.New(artifactcache.Options{}),
		memory.NewSectionRepository(),
		p,
		generation.Settings{Model: "test"},
		logger.NewNopLogger(),
	)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		section  int
		output   string
		wantKind fault.Kind
	}{
		{
			name:    "valid yaml",
			section: 1,
			output:  validRulesYAML,
		},
		{
			name:    "fenced yaml",
			section: 1,
			output:  "```yaml\n" + validRulesYAML + "\n```",
		},
		{
			name:     "not yaml at all",
			section:  1,
			output:   "{{{ definitely not yaml",
			wantKind: fault.KindMalformedRuleSet,
		},
		{
			name:     "wrong section number",
			section:  2,
			output:   validRulesYAML,
			wantKind: fault.KindMalformedRuleSet,
		},
		{
			name:    "direct choice with target outside candidates",
			section: 1,
			output: `section: 1
next_sections: [145]
choices:
  - text: sneak past
    kind: DIRECT
    target: 999`,
			wantKind: fault.KindMalformedRuleSet,
		},
		{
			name:    "random choice without outcome targets",
			section: 1,
			output: `section: 1
next_sections: [145]
choices:
  - text: test your luck
    kind: RANDOM
    outcome_kind: CHANCE`,
			wantKind: fault.KindMalformedRuleSet,
		},
		{
			name:    "needs outcome but kind is NONE",
			section: 1,
			output: `section: 1
needs_random_outcome: true
outcome_kind: NONE
next_sections: []
choices: []`,
			wantKind: fault.KindMalformedRuleSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Parse(tt.section, tt.output)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.True(t, fault.IsKind(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.section, rs.Section)
			assert.Len(t, rs.Choices, 2)
		})
	}
}

func TestParseFillsOmittedSection(t *testing.T) {
	rs, err := Parse(42, "next_sections: []\nchoices: []")
	require.NoError(t, err)
	assert.Equal(t, 42, rs.Section)
}

func TestGetRulesMalformedNotCached(t *testing.T) {
	p := &scriptedProvider{outputs: []string{"not: [valid", validRulesYAML}}
	m := newTestManager(p)
	ctx := context.Background()

	_, err := m.GetRules(ctx, 1, "some narrative", nil)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindMalformedRuleSet))

	// The failure must not be cached: the next call re-extracts and gets
	// the corrected output.
	rs, err := m.GetRules(ctx, 1, "some narrative", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Section)
	assert.Equal(t, int32(2), atomic.LoadInt32(&p.calls))
}

func TestGetRulesCachesValidatedResult(t *testing.T) {
	p := &scriptedProvider{outputs: []string{validRulesYAML}}
	m := newTestManager(p)
	ctx := context.Background()

	first, err := m.GetRules(ctx, 1, "some narrative", nil)
	require.NoError(t, err)

	second, err := m.GetRules(ctx, 1, "different narrative", nil)
	require.NoError(t, err)

	assert.Same(t, first, second, "cache hit wins over re-analysis")
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
}

func TestGetRulesMissingSection(t *testing.T) {
	p := &scriptedProvider{outputs: []string{validRulesYAML}}
	m := newTestManager(p)

	// No content argument and nothing stored for the section.
	_, err := m.GetRules(context.Background(), 3, "", nil)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindSectionNotFound))
	assert.Contains(t, err.Error(), "3", "failure must name the section")
}

func TestGetRulesPersistedRuleSetSurvivesRestart(t *testing.T) {
	sections := memory.NewSectionRepository()
	p := &scriptedProvider{outputs: []string{validRulesYAML}}
	m := NewManager(artifactcache.New(artifactcache.Options{}), sections, p,
		generation.Settings{}, logger.NewNopLogger())
	ctx := context.Background()

	_, err := m.GetRules(ctx, 1, "narrative", nil)
	require.NoError(t, err)

	// Fresh cache, same storage: the durable artifact short-circuits
	// re-extraction.
	m2 := NewManager(artifactcache.New(artifactcache.Options{}), sections, p,
		generation.Settings{}, logger.NewNopLogger())
	rs, err := m2.GetRules(ctx, 1, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{145, 278}, rs.NextSections)
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
}

func TestGetRulesProviderFailure(t *testing.T) {
	p := &scriptedProvider{err: assert.AnError}
	m := newTestManager(p)

	_, err := m.GetRules(context.Background(), 1, "narrative", nil)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindGenerationFailure))

	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Section)
}
