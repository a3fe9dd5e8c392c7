package repository

import (
	"context"
	"errors"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

// ErrSessionNotFound is returned when a session ID is not found or has expired.
var ErrSessionNotFound = errors.New("session not found or expired")

// SessionRepository defines the interface for managing user login sessions.
type SessionRepository interface {
	// StoreSession saves a new session or updates an existing one.
	StoreSession(ctx context.Context, session *models.Session) error
	// GetSession retrieves a session by its ID.
	// It should return ErrSessionNotFound if the session doesn't exist or is expired.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	// GetSessions lists the live sessions of a user, oldest login first.
	GetSessions(ctx context.Context, userID string) ([]*models.Session, error)
	// TouchSession moves LastActivity forward to at. It never moves it backwards.
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
	// DeleteSession removes a session, effectively logging the user out.
	DeleteSession(ctx context.Context, sessionID string) error
	// DeleteUserSessions deletes all session records for a given userID, optionally excluding some sessionIDs.
	// It returns how many sessions were removed.
	DeleteUserSessions(ctx context.Context, userID string, excludeSessionIDs ...string) (int64, error)
}
