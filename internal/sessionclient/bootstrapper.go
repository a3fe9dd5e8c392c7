package sessionclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

// BootstrapResult reports the outcome of creating the first session after sign-in.
// RequiresManualResolution means the user is signed in but has no session record.
type BootstrapResult struct {
	Session                  *models.SessionResponse
	RequiresManualResolution bool
	Err                      error
}

// SessionCreator is the part of SessionsAPI the bootstrapper needs.
type SessionCreator interface {
	Create(ctx context.Context, userID string, req models.CreateSessionRequest, opts ...RequestOption) (*models.SessionResponse, error)
	Bootstrap(ctx context.Context, userID string, req models.CreateSessionRequest, opts ...RequestOption) (*models.SessionResponse, error)
}

// SubjectSource resolves the signed-in user id.
type SubjectSource interface {
	Subject(ctx context.Context) (string, error)
}

type SessionBootstrapper struct {
	sessions  SessionCreator
	subjects  SubjectSource
	store     LocalStore
	userAgent string
	now       func() time.Time

	flights singleflight.Group
}

func NewSessionBootstrapper(sessions SessionCreator, subjects SubjectSource, store LocalStore, userAgent string) *SessionBootstrapper {
	return &SessionBootstrapper{
		sessions:  sessions,
		subjects:  subjects,
		store:     store,
		userAgent: userAgent,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Bootstrap creates the session record for a freshly signed-in user. An empty userID
// means the token subject. Concurrent calls for the same user share one attempt.
// Failures never force logout.
func (b *SessionBootstrapper) Bootstrap(ctx context.Context, userID string) BootstrapResult {
	if userID == "" {
		subject, err := b.subjects.Subject(ctx)
		if err != nil {
			return unresolved(err)
		}
		userID = subject
	}

	v, _, _ := b.flights.Do(userID, func() (any, error) {
		return b.bootstrap(ctx, userID), nil
	})
	return v.(BootstrapResult)
}

func (b *SessionBootstrapper) bootstrap(ctx context.Context, userID string) BootstrapResult {
	// A cached id belongs to an earlier sign-in and would be reported as terminated.
	if err := b.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("[SessionBootstrapper] Failed to clear stale session state")
	}

	loginTime := b.now()
	req := models.CreateSessionRequest{UserAgent: b.userAgent, LoginTime: &loginTime}

	session, err := b.sessions.Create(ctx, userID, req, WithoutSessionGuard())
	if err != nil {
		if !isBootstrapCondition(err) {
			log.Warn().Err(err).Str("userID", userID).Msg("[SessionBootstrapper] Session creation failed")
			return unresolved(err)
		}
		log.Info().Str("userID", userID).Msg("[SessionBootstrapper] No session yet, retrying on the bootstrap route")
		session, err = b.sessions.Bootstrap(ctx, userID, req, WithoutSessionGuard())
		if err != nil {
			log.Warn().Err(err).Str("userID", userID).Msg("[SessionBootstrapper] Bootstrap route failed")
			return unresolved(err)
		}
	}

	state := LocalState{UserID: userID, SessionID: session.ID, LoginTime: session.LoginTime}
	if state.LoginTime.IsZero() {
		state.LoginTime = loginTime
	}
	if err := b.store.Save(state); err != nil {
		return unresolved(fmt.Errorf("failed to cache session: %w", err))
	}

	log.Info().Str("userID", userID).Str("sessionID", session.ID).Msg("[SessionBootstrapper] Session established")
	return BootstrapResult{Session: session}
}

func isBootstrapCondition(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == models.CodeNoActiveSession
}

func unresolved(err error) BootstrapResult {
	return BootstrapResult{
		RequiresManualResolution: true,
		Err:                      fmt.Errorf("%w: %w", ErrBootstrapUnresolved, err),
	}
}
