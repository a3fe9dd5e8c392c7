package repository

import (
	"context"
	"errors"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

var ErrStateNotFound = errors.New("auth state not found or expired")

// StateRepository keeps the server half of an SRP handshake between the two login
// steps. A handshake can be taken exactly once.
type StateRepository interface {
	// SaveHandshake replaces any pending handshake of state.AuthID.
	SaveHandshake(ctx context.Context, state models.AuthSessionState) error
	// TakeHandshake removes and returns the pending handshake of authID.
	TakeHandshake(ctx context.Context, authID string) (*models.AuthSessionState, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
