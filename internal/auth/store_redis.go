// Copyright (c) 2026 Kritika. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kritika-app/kritika/internal/platform/apperr"
	"github.com/kritika-app/kritika/internal/platform/constants"
)

// RedisCodeRepository implements [CodeRepository] on Redis.
//
// Only bcrypt hashes are stored, keyed by user ID, under the confirmation
// TTL. Expiry is Redis's job; there is no cleanup code here.
type RedisCodeRepository struct {
	client *redis.Client
}

// NewCodeRepository creates a Redis backed confirmation-code store.
func NewCodeRepository(client *redis.Client) *RedisCodeRepository {
	return &RedisCodeRepository{client: client}
}

// codeKey builds the namespaced cache key for a user's code hash.
func codeKey(userID string) string {
	return constants.RedisPrefixConfirmationCode + userID
}

// SaveCodeHash stores the hash, replacing any previous code and its TTL.
func (repository *RedisCodeRepository) SaveCodeHash(ctx context.Context, userID, codeHash string, ttl time.Duration) error {
	if err := repository.client.Set(ctx, codeKey(userID), codeHash, ttl).Err(); err != nil {
		return apperr.Internal(fmt.Errorf("redis: failed to save code hash: %w", err))
	}
	return nil
}

// GetCodeHash returns the stored hash or NotFound once it expired.
func (repository *RedisCodeRepository) GetCodeHash(ctx context.Context, userID string) (string, error) {
	codeHash, err := repository.client.Get(ctx, codeKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Confirmation code")
		}
		return "", apperr.Internal(fmt.Errorf("redis: failed to get code hash: %w", err))
	}

	return codeHash, nil
}

// DeleteCode invalidates the code after successful use.
func (repository *RedisCodeRepository) DeleteCode(ctx context.Context, userID string) error {
	if err := repository.client.Del(ctx, codeKey(userID)).Err(); err != nil {
		return apperr.Internal(fmt.Errorf("redis: failed to delete code: %w", err))
	}
	return nil
}
