package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/config"
	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

type SessionService struct {
	sessionRepo repository.SessionRepository
	cfg         config.SessionConfig
	now         func() time.Time
}

var _ SessionGenerator = (*SessionService)(nil)

// NewSessionService creates a SessionService
func NewSessionService(sessionRepo repository.SessionRepository, cfg config.SessionConfig) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession records a new login for userID. With the single-session policy on,
// every other session of the user is removed first.
func (s *SessionService) CreateSession(ctx context.Context, userID string, in models.CreateSessionInput) (*models.Session, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty")
	}
	now := s.now()

	loginTime := now
	if in.LoginTime != nil {
		lt := in.LoginTime.UTC()
		if lt.Before(now.Add(-s.cfg.LoginTimeSkew)) || lt.After(now.Add(s.cfg.LoginTimeSkew)) {
			log.Warn().Str("userID", userID).Time("loginTime", lt).Msg("[SessionService.CreateSession] Rejecting login time outside skew")
			return nil, ErrStaleLoginTime
		}
		loginTime = lt
	}

	session := &models.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		IPAddress:    in.IPAddress,
		UserAgent:    in.UserAgent,
		LoginTime:    loginTime,
		LastActivity: now,
		ExpiresAt:    now.Add(s.cfg.Lifetime),
	}

	if s.cfg.SingleSession {
		removed, err := s.sessionRepo.DeleteUserSessions(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("userID", userID).Msg("[SessionService.CreateSession] Failed to remove superseded sessions")
			return nil, fmt.Errorf("failed to remove superseded sessions: %w", err)
		}
		if removed > 0 {
			log.Info().Str("userID", userID).Int64("removed", removed).Msg("[SessionService.CreateSession] Superseded previous sessions")
		}
	}

	if err := s.sessionRepo.StoreSession(ctx, session); err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("[SessionService.CreateSession] Failed to store session")
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	log.Info().Str("userID", userID).Str("sessionID", session.ID).Msg("[SessionService.CreateSession] Session created")
	return session, nil
}

// ListSessions returns the user's sessions with IsCurrent set relative to currentSessionID.
func (s *SessionService) ListSessions(ctx context.Context, userID, currentSessionID string) (*models.GetUserSessionsResponse, error) {
	sessions, err := s.sessionRepo.GetSessions(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("[SessionService.ListSessions] Failed to get sessions")
		return nil, fmt.Errorf("failed to get user sessions: %w", err)
	}

	resp := &models.GetUserSessionsResponse{Sessions: make([]models.SessionResponse, 0, len(sessions))}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, models.NewSessionResponse(session, currentSessionID))
	}
	log.Debug().Str("userID", userID).Int("count", len(resp.Sessions)).Msg("[SessionService.ListSessions] Retrieved sessions")
	return resp, nil
}

// TerminateSession deletes one session of userID. A client cannot terminate its own session here.
func (s *SessionService) TerminateSession(ctx context.Context, userID, sessionID, currentSessionID string) error {
	if sessionID == currentSessionID {
		return ErrCannotTerminateCurrentSession
	}

	session, err := s.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return repository.ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}
	// Other users' sessions are reported as missing.
	if session.UserID != userID {
		return repository.ErrSessionNotFound
	}

	if err := s.sessionRepo.DeleteSession(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("[SessionService.TerminateSession] Failed to delete session")
		return fmt.Errorf("failed to terminate session: %w", err)
	}
	log.Info().Str("userID", userID).Str("sessionID", sessionID).Msg("[SessionService.TerminateSession] Session terminated")
	return nil
}

// TerminateOtherSessions deletes every session of userID except currentSessionID.
func (s *SessionService) TerminateOtherSessions(ctx context.Context, userID, currentSessionID string) (int64, error) {
	var exclude []string
	if currentSessionID != "" {
		exclude = append(exclude, currentSessionID)
	}
	count, err := s.sessionRepo.DeleteUserSessions(ctx, userID, exclude...)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("[SessionService.TerminateOtherSessions] Failed to delete sessions")
		return 0, fmt.Errorf("failed to terminate sessions: %w", err)
	}
	log.Info().Str("userID", userID).Int64("terminated", count).Msg("[SessionService.TerminateOtherSessions] Sessions terminated")
	return count, nil
}

// ValidateActiveSession checks the user still holds a live session. When the client
// presents a session id that one must exist and belong to the user. Either way the
// session relied on must be neither expired nor idle.
func (s *SessionService) ValidateActiveSession(ctx context.Context, userID, presentedSessionID string) (*models.Session, error) {
	sessions, err := s.sessionRepo.GetSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrNoActiveSession
	}
	now := s.now()

	if presentedSessionID == "" {
		for _, session := range sessions {
			if !session.ExpiredAt(now) && !session.IsIdle(s.cfg.IdleTimeout, now) {
				return nil, nil
			}
		}
		return nil, ErrSessionInvalid
	}

	var session *models.Session
	for _, candidate := range sessions {
		if candidate.ID == presentedSessionID {
			session = candidate
			break
		}
	}
	if session == nil {
		return nil, ErrSessionTerminated
	}

	if session.ExpiredAt(now) || session.IsIdle(s.cfg.IdleTimeout, now) {
		log.Info().Str("userID", userID).Str("sessionID", session.ID).Msg("[SessionService.ValidateActiveSession] Removing expired or idle session")
		if err := s.sessionRepo.DeleteSession(ctx, session.ID); err != nil {
			log.Warn().Err(err).Str("sessionID", session.ID).Msg("[SessionService.ValidateActiveSession] Failed to delete expired or idle session")
		}
		return nil, ErrSessionInvalid
	}

	if err := s.sessionRepo.TouchSession(ctx, session.ID, now); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionTerminated
		}
		return nil, fmt.Errorf("failed to record session activity: %w", err)
	}
	if now.After(session.LastActivity) {
		session.LastActivity = now
	}
	return session, nil
}
