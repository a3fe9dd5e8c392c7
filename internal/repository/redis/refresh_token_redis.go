package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

const (
	refreshTokenPrefix     = "refresh:"
	userRefreshTokenPrefix = "user_refresh:"
)

// RedisRefreshTokenRepository implements RefreshTokenRepository using Redis.
type RedisRefreshTokenRepository struct {
	client *redis.Client
}

// NewRedisRefreshTokenRepository creates a new Redis-backed refresh token repository.
func NewRedisRefreshTokenRepository(client *redis.Client) repository.RefreshTokenRepository {
	return &RedisRefreshTokenRepository{
		client: client,
	}
}

func (r *RedisRefreshTokenRepository) makeKey(token string) string {
	return refreshTokenPrefix + token
}

func (r *RedisRefreshTokenRepository) makeUserKey(userID string) string {
	return userRefreshTokenPrefix + userID
}

// StoreRefreshToken saves the token with the owning userID as value and indexes it per user.
func (r *RedisRefreshTokenRepository) StoreRefreshToken(ctx context.Context, userID string, token string, expiry time.Time) error {
	duration := time.Until(expiry)
	if duration <= 0 {
		return fmt.Errorf("expiry time must be in the future")
	}

	userKey := r.makeUserKey(userID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.makeKey(token), userID, duration)
	pipe.SAdd(ctx, userKey, token)
	// Tokens share one lifetime, so the newest token always outlives the rest of the index.
	pipe.Expire(ctx, userKey, duration)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store refresh token in redis: %w", err)
	}
	return nil
}

// ConsumeRefreshToken checks if a token is valid and consumes it atomically.
func (r *RedisRefreshTokenRepository) ConsumeRefreshToken(ctx context.Context, token string) (string, error) {
	key := r.makeKey(token)

	pipe := r.client.TxPipeline()
	getCmd := pipe.Get(ctx, key)
	pipe.Del(ctx, key)

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("failed to validate and consume refresh token: %w", err)
	}

	userID, getErr := getCmd.Result()
	if getErr == redis.Nil {
		return "", repository.ErrRefreshTokenNotFound
	}
	if getErr != nil {
		return "", fmt.Errorf("failed to retrieve refresh token from redis: %w", getErr)
	}

	r.client.SRem(ctx, r.makeUserKey(userID), token)
	return userID, nil
}

// RevokeUserTokens deletes every refresh token indexed under userID.
func (r *RedisRefreshTokenRepository) RevokeUserTokens(ctx context.Context, userID string) (int64, error) {
	userKey := r.makeUserKey(userID)

	tokens, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list user refresh tokens: %w", err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, len(tokens))
	for i, token := range tokens {
		keys[i] = r.makeKey(token)
	}

	pipe := r.client.TxPipeline()
	delCmd := pipe.Del(ctx, keys...)
	pipe.Del(ctx, userKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return delCmd.Val(), nil
}
