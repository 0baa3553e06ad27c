package memory

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"

	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/pkg/store"
)

// SectionRepository is the in-memory storage backend, used by tests and
// the simulation binary.
type SectionRepository struct {
	raw       *cache.Cache
	artifacts *cache.Cache
}

func NewSectionRepository() *SectionRepository {
	// Entries never expire; eviction is the artifact cache's job, not
	// the storage backend's.
	return &SectionRepository{
		raw:       cache.New(cache.NoExpiration, 0),
		artifacts: cache.New(cache.NoExpiration, 0),
	}
}

var _ contract.SectionRepository = &SectionRepository{}

func rawKey(section int, kind store.ArtifactKind) string {
	return fmt.Sprintf("%s:%d", kind, section)
}

func (r *SectionRepository) GetRaw(ctx context.Context, section int, kind store.ArtifactKind) (string, error) {
	if x, found := r.raw.Get(rawKey(section, kind)); found {
		return x.(string), nil
	}
	return "", contract.ErrNotFound
}

func (r *SectionRepository) PutRaw(ctx context.Context, section int, kind store.ArtifactKind, text string) error {
	r.raw.Set(rawKey(section, kind), text, cache.NoExpiration)
	return nil
}

func (r *SectionRepository) GetArtifact(ctx context.Context, key store.SectionKey) (string, error) {
	if x, found := r.artifacts.Get(key.String()); found {
		return x.(string), nil
	}
	return "", contract.ErrNotFound
}

func (r *SectionRepository) PutArtifact(ctx context.Context, key store.SectionKey, value string) error {
	r.artifacts.Set(key.String(), value, cache.NoExpiration)
	return nil
}

func (r *SectionRepository) ArtifactExists(ctx context.Context, key store.SectionKey) (bool, error) {
	_, found := r.artifacts.Get(key.String())
	return found, nil
}
