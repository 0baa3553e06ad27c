// Package rules extracts and validates the structured rule set for a
// section.
package rules

import (
	"context"
	"encoding/json"
	"errors"

	"gopkg.in/yaml.v3"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/pkg/artifactcache"
	"gamebook-engine/pkg/gamebook/fault"
	"gamebook-engine/pkg/generation"
	"gamebook-engine/pkg/store"
)

type Manager struct {
	cache    *artifactcache.Cache
	sections contract.SectionRepository
	provider generation.Provider
	settings generation.Settings
	logger   logger.ILogger
}

func NewManager(
	cache *artifactcache.Cache,
	sections contract.SectionRepository,
	provider generation.Provider,
	settings generation.Settings,
	log logger.ILogger,
) *Manager {
	return &Manager{
		cache:    cache,
		sections: sections,
		provider: provider,
		settings: settings,
		logger:   log,
	}
}

// GetRules returns the validated rule set for a section. A cache hit wins
// over re-analysis of any provided content; section rules are stable for
// a play session. On a miss the rule source is the provided content, or
// the stored raw rule text when none is given. Malformed extraction
// results are returned as failures and never cached.
func (m *Manager) GetRules(ctx context.Context, section int, content string, override *generation.Settings) (*store.RuleSet, error) {
	key := store.SectionKey{Section: section, Kind: store.KindRules}

	v, err := m.cache.GetOrCompute(ctx, key.String(), func(ctx context.Context) (interface{}, error) {
		return m.produce(ctx, section, key, content, override)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fault.Wrap(fault.KindTimeout, section, err, "timed out waiting for rules of section %d", section)
		}
		return nil, err
	}
	return v.(*store.RuleSet), nil
}

func (m *Manager) produce(ctx context.Context, section int, key store.SectionKey, content string, override *generation.Settings) (*store.RuleSet, error) {
	// Durable copy from a previous session, if any. Persisted rule sets
	// were validated before being written.
	if raw, err := m.sections.GetArtifact(ctx, key); err == nil {
		var rs store.RuleSet
		if jsonErr := json.Unmarshal([]byte(raw), &rs); jsonErr == nil {
			return &rs, nil
		}
		m.logger.Warn("rules", "discarding unreadable stored rule set", map[string]interface{}{
			"section": section,
		})
	} else if !errors.Is(err, contract.ErrNotFound) {
		return nil, fault.Wrap(fault.KindGenerationFailure, section, err, "failed to read stored rules for section %d", section)
	}

	input := content
	if input == "" {
		raw, err := m.sections.GetRaw(ctx, section, store.KindRules)
		if err != nil {
			if errors.Is(err, contract.ErrNotFound) {
				return nil, fault.New(fault.KindSectionNotFound, section, "section %d not found", section)
			}
			return nil, fault.Wrap(fault.KindGenerationFailure, section, err, "failed to read raw rules for section %d", section)
		}
		input = raw
	}

	settings := m.settings
	if override != nil {
		settings = settings.Merge(*override)
	}

	out, err := m.provider.Generate(ctx, generation.TaskExtractRules, input, settings.Options()...)
	if err != nil {
		return nil, fault.Wrap(fault.KindGenerationFailure, section, err, "rule extraction failed for section %d", section)
	}

	rs, err := Parse(section, out)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rs)
	if err != nil {
		return nil, fault.Wrap(fault.KindMalformedRuleSet, section, err, "unserializable rule set for section %d", section)
	}
	if err := m.sections.PutArtifact(ctx, key, string(payload)); err != nil {
		m.logger.Warn("rules", "failed to persist rule set", map[string]interface{}{
			"section": section, "error": err.Error(),
		})
	}
	return rs, nil
}

// Parse turns raw extraction output into a validated rule set. Output
// that does not unmarshal, or that violates the structural invariants,
// is a MalformedRuleSet failure.
func Parse(section int, output string) (*store.RuleSet, error) {
	clean := generation.StripFence(output)

	var rs store.RuleSet
	if err := yaml.Unmarshal([]byte(clean), &rs); err != nil {
		return nil, fault.Wrap(fault.KindMalformedRuleSet, section, err, "unparseable rule extraction output for section %d", section)
	}
	if rs.Section == 0 {
		rs.Section = section
	}
	if rs.Section != section {
		return nil, fault.New(fault.KindMalformedRuleSet, section, "rule set names section %d, expected %d", rs.Section, section)
	}
	if err := rs.Validate(); err != nil {
		return nil, fault.Wrap(fault.KindMalformedRuleSet, section, err, "invalid rule set for section %d", section)
	}
	return &rs, nil
}
