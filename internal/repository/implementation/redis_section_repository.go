package implementation

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/pkg/store"
)

// RedisSectionRepository is the pure key-value storage backend. It relies
// on nothing stronger than per-key atomic SET, matching the storage
// contract the engine assumes.
type RedisSectionRepository struct {
	client *redis.Client
}

func NewRedisSectionRepository(client *redis.Client) contract.SectionRepository {
	return &RedisSectionRepository{client: client}
}

func redisRawKey(section int, kind store.ArtifactKind) string {
	return fmt.Sprintf("gamebook:raw:%s:%d", kind, section)
}

func redisArtifactKey(key store.SectionKey) string {
	return fmt.Sprintf("gamebook:artifact:%s", key)
}

func (r *RedisSectionRepository) GetRaw(ctx context.Context, section int, kind store.ArtifactKind) (string, error) {
	val, err := r.client.Get(ctx, redisRawKey(section, kind)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", contract.ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RedisSectionRepository) PutRaw(ctx context.Context, section int, kind store.ArtifactKind, text string) error {
	return r.client.Set(ctx, redisRawKey(section, kind), text, 0).Err()
}

func (r *RedisSectionRepository) GetArtifact(ctx context.Context, key store.SectionKey) (string, error) {
	val, err := r.client.Get(ctx, redisArtifactKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", contract.ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RedisSectionRepository) PutArtifact(ctx context.Context, key store.SectionKey, value string) error {
	return r.client.Set(ctx, redisArtifactKey(key), value, 0).Err()
}

func (r *RedisSectionRepository) ArtifactExists(ctx context.Context, key store.SectionKey) (bool, error) {
	n, err := r.client.Exists(ctx, redisArtifactKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
