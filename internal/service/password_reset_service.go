package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

var _ PasswordResetGenerator = (*PasswordResetService)(nil)

// LogResetTokenSender writes reset tokens to the log. There is no mail transport.
type LogResetTokenSender struct{}

func (LogResetTokenSender) SendResetToken(ctx context.Context, user *models.UserInfo, token string, expiresAt time.Time) error {
	log.Info().
		Str("authID", user.AuthID).
		Str("token", token).
		Time("expiresAt", expiresAt).
		Msg("[LogResetTokenSender.SendResetToken] Password reset token issued")
	return nil
}

// PasswordResetService lets a user who cannot sign in replace their SRP credentials.
type PasswordResetService struct {
	userRepo    repository.UserRepository
	resetRepo   repository.PasswordResetTokenRepository
	refreshRepo repository.RefreshTokenRepository
	sessionRepo repository.SessionRepository
	sender      ResetTokenSender
	ttl         time.Duration
	now         func() time.Time
}

// NewPasswordResetService creates a PasswordResetService
func NewPasswordResetService(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetTokenRepository,
	refreshRepo repository.RefreshTokenRepository,
	sessionRepo repository.SessionRepository,
	sender ResetTokenSender,
	ttl time.Duration,
) *PasswordResetService {
	return &PasswordResetService{
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		refreshRepo: refreshRepo,
		sessionRepo: sessionRepo,
		sender:      sender,
		ttl:         ttl,
		now:         time.Now,
	}
}

func newResetToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "pr_" + hex.EncodeToString(buf), nil
}

// InitiatePasswordReset starts the password reset flow.
func (s *PasswordResetService) InitiatePasswordReset(ctx context.Context, req models.InitiatePasswordResetRequest) error {
	if req.AuthID == "" {
		return fmt.Errorf("%w: authID cannot be empty", ErrInvalidResetRequest)
	}

	user, err := s.userRepo.GetUserInfoByAuthID(ctx, req.AuthID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same answer as for a known account so callers cannot enumerate users.
			log.Info().Str("authID", req.AuthID).Msg("[PasswordResetService.InitiatePasswordReset] Unknown account, nothing sent")
			return nil
		}
		return fmt.Errorf("failed to get user info: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	expiresAt := s.now().UTC().Add(s.ttl)
	if err := s.resetRepo.StoreResetToken(ctx, req.AuthID, token, expiresAt); err != nil {
		log.Error().Err(err).Str("authID", req.AuthID).Msg("[PasswordResetService.InitiatePasswordReset] Failed to store reset token")
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	if err := s.sender.SendResetToken(ctx, user, token, expiresAt); err != nil {
		log.Error().Err(err).Str("authID", req.AuthID).Msg("[PasswordResetService.InitiatePasswordReset] Failed to deliver reset token")
		return fmt.Errorf("failed to deliver reset token: %w", err)
	}

	log.Info().Str("authID", req.AuthID).Msg("[PasswordResetService.InitiatePasswordReset] Reset token issued")
	return nil
}

// CompletePasswordReset completes the password reset flow.
func (s *PasswordResetService) CompletePasswordReset(ctx context.Context, req models.CompletePasswordResetRequest) error {
	if req.AuthID == "" || req.Token == "" {
		return fmt.Errorf("%w: authID and token cannot be empty", ErrInvalidResetRequest)
	}
	if _, err := decodeNonEmptyHex(req.NewSalt); err != nil {
		return fmt.Errorf("%w: invalid salt: %v", ErrInvalidResetRequest, err)
	}
	if _, err := decodeNonEmptyHex(req.NewVerifier); err != nil {
		return fmt.Errorf("%w: invalid verifier: %v", ErrInvalidResetRequest, err)
	}

	authID, err := s.resetRepo.ConsumeResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrPasswordResetTokenNotFound) {
			log.Warn().Str("authID", req.AuthID).Msg("[PasswordResetService.CompletePasswordReset] Unknown or expired reset token")
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if authID != req.AuthID {
		log.Warn().Str("authID", req.AuthID).Msg("[PasswordResetService.CompletePasswordReset] Reset token was issued for another account")
		return ErrInvalidResetToken
	}

	if err := s.userRepo.UpdateUserSRPAuth(ctx, authID, req.NewSalt, req.NewVerifier); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		log.Error().Err(err).Str("authID", authID).Msg("[PasswordResetService.CompletePasswordReset] Failed to update SRP credentials")
		return fmt.Errorf("failed to reset password: %w", err)
	}

	// The password changed, so every device signed in with the old one is signed out.
	user, err := s.userRepo.GetUserInfoByAuthID(ctx, authID)
	if err != nil {
		log.Warn().Err(err).Str("authID", authID).Msg("[PasswordResetService.CompletePasswordReset] Could not load user to end sessions")
		return nil
	}
	if revoked, err := s.refreshRepo.RevokeUserTokens(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("userID", user.ID).Msg("[PasswordResetService.CompletePasswordReset] Failed to revoke refresh tokens")
	} else {
		log.Debug().Int64("revoked", revoked).Str("userID", user.ID).Msg("[PasswordResetService.CompletePasswordReset] Revoked refresh tokens")
	}
	if deleted, err := s.sessionRepo.DeleteUserSessions(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("userID", user.ID).Msg("[PasswordResetService.CompletePasswordReset] Failed to delete sessions")
	} else {
		log.Debug().Int64("deleted", deleted).Str("userID", user.ID).Msg("[PasswordResetService.CompletePasswordReset] Deleted sessions")
	}

	log.Info().Str("authID", authID).Msg("[PasswordResetService.CompletePasswordReset] Password reset")
	return nil
}
