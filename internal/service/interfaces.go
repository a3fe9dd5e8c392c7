package service

import (
	"context"
	"errors"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

var (
	// ErrStaleLoginTime is returned when a client supplied loginTime is outside the allowed skew.
	ErrStaleLoginTime = errors.New("login time is outside the allowed window")
	// ErrCannotTerminateCurrentSession is returned when a client tries to terminate its own session.
	ErrCannotTerminateCurrentSession = errors.New("cannot terminate the current session")
	// ErrNoActiveSession means the user has no session records at all.
	ErrNoActiveSession = errors.New("no active sessions found")
	// ErrSessionTerminated means the presented session id no longer exists.
	ErrSessionTerminated = errors.New("session has been terminated")
	// ErrSessionInvalid means the session exists but is idle or past its absolute expiry.
	ErrSessionInvalid = errors.New("session is no longer valid")
	// ErrInvalidRefreshToken is returned for unknown, used or expired refresh tokens.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidClientProof is returned when SRP verification of M1 fails.
	ErrInvalidClientProof = errors.New("client proof M1 verification failed")
	// ErrInvalidResetToken is returned for unknown, used, expired or foreign password reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired password reset token")
	// ErrInvalidResetRequest is returned when the new SRP credentials are missing or malformed.
	ErrInvalidResetRequest = errors.New("invalid password reset request")
)

// JWTGenerator mints and validates access tokens.
type JWTGenerator interface {
	GenerateToken(userID string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*models.AccessClaims, error)
}

// TokenIssuer issues access/refresh token pairs.
type TokenIssuer interface {
	IssueTokens(ctx context.Context, userID string) (*models.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	// Revoke consumes refreshToken and removes every other refresh token of its owner.
	Revoke(ctx context.Context, refreshToken string) error
}

type SRPAuthGenerator interface {
	// Register handles user registration
	Register(ctx context.Context, req models.SRPRegisterRequest) (userID string, err error)
	// ComputeB handles SRP step 1 (Server -> Client: salt, B)
	ComputeB(ctx context.Context, req models.AuthStep1Request) (*models.AuthStep1Response, error)
	// VerifyClientProof handles SRP step 2 (Client -> Server: A, M1) and returns Step 3 info (Server -> Client: M2, tokens)
	VerifyClientProof(ctx context.Context, req models.AuthStep2Request) (*models.AuthStep3Response, error)
}

// PasswordResetGenerator runs the unauthenticated password reset flow.
type PasswordResetGenerator interface {
	// InitiatePasswordReset issues and delivers a reset token. Unknown accounts succeed silently.
	InitiatePasswordReset(ctx context.Context, req models.InitiatePasswordResetRequest) error
	// CompletePasswordReset redeems the token, replaces the SRP credentials and ends every session of the user.
	CompletePasswordReset(ctx context.Context, req models.CompletePasswordResetRequest) error
}

// ResetTokenSender delivers a password reset token to the account owner.
type ResetTokenSender interface {
	SendResetToken(ctx context.Context, user *models.UserInfo, token string, expiresAt time.Time) error
}

// ResetTokenSenderFunc adapts a function to ResetTokenSender.
type ResetTokenSenderFunc func(ctx context.Context, user *models.UserInfo, token string, expiresAt time.Time) error

func (f ResetTokenSenderFunc) SendResetToken(ctx context.Context, user *models.UserInfo, token string, expiresAt time.Time) error {
	return f(ctx, user, token, expiresAt)
}

// SessionGenerator is the server side session record store.
type SessionGenerator interface {
	CreateSession(ctx context.Context, userID string, in models.CreateSessionInput) (*models.Session, error)
	ListSessions(ctx context.Context, userID, currentSessionID string) (*models.GetUserSessionsResponse, error)
	TerminateSession(ctx context.Context, userID, sessionID, currentSessionID string) error
	TerminateOtherSessions(ctx context.Context, userID, currentSessionID string) (int64, error)
	// ValidateActiveSession enforces the active-session policy and records activity.
	// The returned session is nil when no session id was presented.
	ValidateActiveSession(ctx context.Context, userID, presentedSessionID string) (*models.Session, error)
}
