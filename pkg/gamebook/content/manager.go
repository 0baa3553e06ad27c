// Package content produces formatted narrative artifacts for sections.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

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

// GetContent returns the PROCESSED narrative artifact for a section.
//
// With a raw override the cache read is bypassed and the formatted result
// replaces any prior PROCESSED entry for the section. Without one, the
// artifact cache is consulted first; on a miss the raw source is fetched
// from storage, formatted by the generation collaborator, published to
// the cache and persisted. Nothing partial is ever stored.
func (m *Manager) GetContent(ctx context.Context, section int, rawOverride string, override *generation.Settings) (*store.ContentArtifact, error) {
	key := store.SectionKey{Section: section, Kind: store.KindContent}

	if rawOverride != "" {
		artifact, err := m.format(ctx, section, rawOverride, override)
		if err != nil {
			return nil, err
		}
		// Explicit override always wins over whatever was cached.
		m.cache.Set(key.String(), artifact)
		if err := m.sections.PutArtifact(ctx, key, artifact.Body); err != nil {
			m.logger.Warn("content", "failed to persist override artifact", map[string]interface{}{
				"section": section, "error": err.Error(),
			})
		}
		return artifact, nil
	}

	v, err := m.cache.GetOrCompute(ctx, key.String(), func(ctx context.Context) (interface{}, error) {
		return m.produce(ctx, section, key, override)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fault.Wrap(fault.KindTimeout, section, err, "timed out waiting for content of section %d", section)
		}
		return nil, err
	}
	return v.(*store.ContentArtifact), nil
}

// produce runs inside the cache singleflight: durable artifact first,
// then raw fetch + format.
func (m *Manager) produce(ctx context.Context, section int, key store.SectionKey, override *generation.Settings) (*store.ContentArtifact, error) {
	if body, err := m.sections.GetArtifact(ctx, key); err == nil {
		return &store.ContentArtifact{
			Section:    section,
			Body:       body,
			Origin:     store.OriginProcessed,
			ProducedAt: time.Now(),
		}, nil
	} else if !errors.Is(err, contract.ErrNotFound) {
		return nil, fault.Wrap(fault.KindGenerationFailure, section, err, "failed to read stored artifact for section %d", section)
	}

	raw, err := m.sections.GetRaw(ctx, section, store.KindContent)
	if err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return nil, fault.New(fault.KindSectionNotFound, section, "section %d not found", section)
		}
		return nil, fault.Wrap(fault.KindGenerationFailure, section, err, "failed to read raw text for section %d", section)
	}

	artifact, err := m.format(ctx, section, raw, override)
	if err != nil {
		return nil, err
	}
	if err := m.sections.PutArtifact(ctx, key, artifact.Body); err != nil {
		m.logger.Warn("content", "failed to persist artifact", map[string]interface{}{
			"section": section, "error": err.Error(),
		})
	}
	return artifact, nil
}

func (m *Manager) format(ctx context.Context, section int, raw string, override *generation.Settings) (*store.ContentArtifact, error) {
	settings := m.settings
	if override != nil {
		settings = settings.Merge(*override)
	}

	out, err := m.provider.Generate(ctx, generation.TaskFormatNarrative, raw, settings.Options()...)
	if err != nil {
		return nil, fault.Wrap(fault.KindGenerationFailure, section, err, "narrative formatting failed for section %d", section)
	}

	body := generation.StripFence(out)
	if strings.TrimSpace(body) == "" {
		return nil, fault.New(fault.KindMalformedContent, section, "empty formatted narrative for section %d", section)
	}

	return &store.ContentArtifact{
		Section:    section,
		Body:       body,
		Origin:     store.OriginProcessed,
		ProducedAt: time.Now(),
	}, nil
}
