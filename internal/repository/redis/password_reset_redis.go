package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

const passwordResetTokenPrefix = "pwdreset:"

// RedisPasswordResetTokenRepository implements PasswordResetTokenRepository using Redis.
// The token is part of the key and the value is the authID.
type RedisPasswordResetTokenRepository struct {
	client *redis.Client
}

// NewRedisPasswordResetTokenRepository creates a new Redis-backed password reset token repository.
func NewRedisPasswordResetTokenRepository(client *redis.Client) repository.PasswordResetTokenRepository {
	return &RedisPasswordResetTokenRepository{
		client: client,
	}
}

func (r *RedisPasswordResetTokenRepository) makeKey(token string) string {
	return passwordResetTokenPrefix + token
}

// StoreResetToken saves the token with a TTL matching expiry.
func (r *RedisPasswordResetTokenRepository) StoreResetToken(ctx context.Context, authID string, token string, expiry time.Time) error {
	duration := time.Until(expiry)
	if duration <= 0 {
		return fmt.Errorf("expiry time must be in the future")
	}

	if err := r.client.Set(ctx, r.makeKey(token), authID, duration).Err(); err != nil {
		return fmt.Errorf("failed to store password reset token in redis: %w", err)
	}
	return nil
}

// ConsumeResetToken reads and deletes the token in one transaction.
func (r *RedisPasswordResetTokenRepository) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	key := r.makeKey(token)

	pipe := r.client.TxPipeline()
	getCmd := pipe.Get(ctx, key)
	pipe.Del(ctx, key)

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("failed to validate and consume password reset token: %w", err)
	}

	authID, getErr := getCmd.Result()
	if getErr == redis.Nil {
		return "", repository.ErrPasswordResetTokenNotFound
	}
	if getErr != nil {
		return "", fmt.Errorf("failed to retrieve password reset token from redis: %w", getErr)
	}
	return authID, nil
}
