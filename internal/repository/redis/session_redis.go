package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

// touchRetries bounds optimistic-lock retries in TouchSession.
const touchRetries = 3

// RedisSessionRepository implements SessionRepository using Redis.
type RedisSessionRepository struct {
	client *redis.Client
}

// Helper to construct session key
func makeSessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Helper to construct user index key
func makeUserSessionsKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

func NewRedisSessionRepository(client *redis.Client) repository.SessionRepository {
	return &RedisSessionRepository{
		client: client,
	}
}

// StoreSession saves the session data and adds it to the user's session index.
// The key expires together with the session's absolute lifetime.
func (r *RedisSessionRepository) StoreSession(ctx context.Context, session *models.Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return errors.New("invalid session data: ID and UserID must be set")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return r.DeleteSession(ctx, session.ID)
	}

	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, makeSessionKey(session.ID), jsonData, ttl)
	pipe.SAdd(ctx, makeUserSessionsKey(session.UserID), session.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute session store pipeline: %w", err)
	}
	return nil
}

// GetSession retrieves a session by its ID from Redis.
// It returns ErrSessionNotFound if the session doesn't exist or is expired.
func (r *RedisSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	jsonData, err := r.client.Get(ctx, makeSessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(jsonData, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.IsExpired() {
		_ = r.DeleteSession(ctx, sessionID)
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

// GetSessions loads every session in the user's index. Index entries whose
// session key already expired are pruned.
func (r *RedisSessionRepository) GetSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	userKey := makeUserSessionsKey(userID)

	sessionIDs, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user sessions with SMEMBERS: %w", err)
	}
	sessions := make([]*models.Session, 0, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return sessions, nil
	}

	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = makeSessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load user sessions with MGET: %w", err)
	}

	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, sessionIDs[i])
			continue
		}
		var session models.Session
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionIDs[i], err)
		}
		if session.IsExpired() {
			continue
		}
		sessions = append(sessions, &session)
	}
	if len(stale) > 0 {
		r.client.SRem(ctx, userKey, stale...)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].LoginTime.Equal(sessions[j].LoginTime) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].LoginTime.Before(sessions[j].LoginTime)
	})
	return sessions, nil
}

// TouchSession moves LastActivity forward under WATCH so concurrent touches cannot
// overwrite a newer value with an older one.
func (r *RedisSessionRepository) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	sessionKey := makeSessionKey(sessionID)

	txf := func(tx *redis.Tx) error {
		jsonData, err := tx.Get(ctx, sessionKey).Bytes()
		if err == redis.Nil {
			return repository.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("redis GET failed during touch: %w", err)
		}

		var session models.Session
		if err := json.Unmarshal(jsonData, &session); err != nil {
			return fmt.Errorf("json unmarshal failed during touch: %w", err)
		}
		if session.IsExpired() {
			return repository.ErrSessionNotFound
		}
		if !at.After(session.LastActivity) {
			return nil
		}
		session.LastActivity = at

		updated, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("json marshal failed during touch: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, sessionKey, updated, redis.SetArgs{KeepTTL: true})
			return nil
		})
		return err
	}

	for range touchRetries {
		err := r.client.Watch(ctx, txf, sessionKey)
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return fmt.Errorf("touch session %s: %w", sessionID, redis.TxFailedErr)
}

// DeleteSession removes a session and its index entry.
func (r *RedisSessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	sessionKey := makeSessionKey(sessionID)

	jsonData, err := r.client.Get(ctx, sessionKey).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get session before delete: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(jsonData, &session); err != nil {
		r.client.Del(ctx, sessionKey)
		return fmt.Errorf("failed to unmarshal session before delete (key deleted): %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey)
	if session.UserID != "" {
		pipe.SRem(ctx, makeUserSessionsKey(session.UserID), sessionID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute session delete pipeline: %w", err)
	}
	return nil
}

// DeleteUserSessions deletes all sessions for a user, optionally excluding some.
// It returns the count of sessions that were actually deleted.
func (r *RedisSessionRepository) DeleteUserSessions(ctx context.Context, userID string, excludeSessionIDs ...string) (int64, error) {
	userKey := makeUserSessionsKey(userID)

	sessionIDs, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get user sessions with SMEMBERS: %w", err)
	}
	if len(sessionIDs) == 0 {
		return 0, nil
	}

	excludeMap := make(map[string]struct{}, len(excludeSessionIDs))
	for _, id := range excludeSessionIDs {
		excludeMap[id] = struct{}{}
	}

	var keysToDelete []string
	var idsToRemove []any
	for _, id := range sessionIDs {
		if _, skip := excludeMap[id]; skip {
			continue
		}
		keysToDelete = append(keysToDelete, makeSessionKey(id))
		idsToRemove = append(idsToRemove, id)
	}
	if len(keysToDelete) == 0 {
		return 0, nil
	}

	pipe := r.client.TxPipeline()
	delCmd := pipe.Del(ctx, keysToDelete...)
	pipe.SRem(ctx, userKey, idsToRemove...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to execute user sessions delete pipeline: %w", err)
	}

	return delCmd.Val(), nil
}
