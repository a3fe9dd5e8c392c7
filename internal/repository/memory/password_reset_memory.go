package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

type resetTokenEntry struct {
	AuthID string
	Expiry time.Time
}

// MemoryPasswordResetTokenRepository implements PasswordResetTokenRepository in memory.
// NOT FOR PRODUCTION use.
type MemoryPasswordResetTokenRepository struct {
	tokens map[string]resetTokenEntry
	mutex  sync.Mutex
}

// NewMemoryPasswordResetTokenRepository creates a new in-memory password reset token repository.
func NewMemoryPasswordResetTokenRepository() repository.PasswordResetTokenRepository {
	return &MemoryPasswordResetTokenRepository{
		tokens: make(map[string]resetTokenEntry),
	}
}

// StoreResetToken saves a new reset token. Expired tokens are dropped on the way.
func (r *MemoryPasswordResetTokenRepository) StoreResetToken(ctx context.Context, authID string, token string, expiry time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	for stored, entry := range r.tokens {
		if now.After(entry.Expiry) {
			delete(r.tokens, stored)
		}
	}

	r.tokens[token] = resetTokenEntry{
		AuthID: authID,
		Expiry: expiry,
	}
	return nil
}

// ConsumeResetToken checks if a token is valid and consumes it.
func (r *MemoryPasswordResetTokenRepository) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, exists := r.tokens[token]
	if !exists {
		return "", repository.ErrPasswordResetTokenNotFound
	}
	delete(r.tokens, token)

	if time.Now().UTC().After(entry.Expiry) {
		return "", repository.ErrPasswordResetTokenNotFound
	}
	return entry.AuthID, nil
}
