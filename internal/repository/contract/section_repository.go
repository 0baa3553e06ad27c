package contract

import (
	"context"
	"errors"

	"gamebook-engine/pkg/store"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// SectionRepository is the key-value storage contract the engine assumes.
// Implementations only guarantee per-key atomic put; nothing stronger.
type SectionRepository interface {
	// GetRaw returns the raw source text for a section. ErrNotFound if
	// the section does not exist.
	GetRaw(ctx context.Context, section int, kind store.ArtifactKind) (string, error)

	// PutRaw stores raw source text for a section (seeding/import).
	PutRaw(ctx context.Context, section int, kind store.ArtifactKind, text string) error

	// GetArtifact returns the persisted derived artifact for a key.
	// ErrNotFound if no artifact has been produced yet.
	GetArtifact(ctx context.Context, key store.SectionKey) (string, error)

	// PutArtifact persists a derived artifact, replacing any previous
	// value for the key.
	PutArtifact(ctx context.Context, key store.SectionKey, value string) error

	// ArtifactExists reports whether an artifact is persisted for a key.
	ArtifactExists(ctx context.Context, key store.SectionKey) (bool, error)
}
