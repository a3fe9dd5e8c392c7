package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

type refreshTokenEntry struct {
	UserID string
	Expiry time.Time
}

// MemoryRefreshTokenRepository implements RefreshTokenRepository in memory.
// NOT FOR PRODUCTION use.
type MemoryRefreshTokenRepository struct {
	tokens map[string]refreshTokenEntry
	mutex  sync.Mutex
}

// NewMemoryRefreshTokenRepository creates a new in-memory refresh token repository.
func NewMemoryRefreshTokenRepository() repository.RefreshTokenRepository {
	return &MemoryRefreshTokenRepository{
		tokens: make(map[string]refreshTokenEntry),
	}
}

// StoreRefreshToken saves a new refresh token.
func (r *MemoryRefreshTokenRepository) StoreRefreshToken(ctx context.Context, userID string, token string, expiry time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.tokens[token] = refreshTokenEntry{
		UserID: userID,
		Expiry: expiry,
	}
	return nil
}

// ConsumeRefreshToken checks if a token is valid and consumes it.
func (r *MemoryRefreshTokenRepository) ConsumeRefreshToken(ctx context.Context, token string) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, exists := r.tokens[token]
	if !exists {
		return "", repository.ErrRefreshTokenNotFound
	}
	delete(r.tokens, token)

	if time.Now().UTC().After(entry.Expiry) {
		return "", repository.ErrRefreshTokenNotFound
	}
	return entry.UserID, nil
}

// RevokeUserTokens drops every token owned by userID.
func (r *MemoryRefreshTokenRepository) RevokeUserTokens(ctx context.Context, userID string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var revoked int64
	for token, entry := range r.tokens {
		if entry.UserID == userID {
			delete(r.tokens, token)
			revoked++
		}
	}
	return revoked, nil
}
