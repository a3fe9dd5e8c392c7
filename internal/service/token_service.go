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

var _ TokenIssuer = (*TokenService)(nil)

// TokenService issues access tokens together with single use refresh tokens.
type TokenService struct {
	jwt         JWTGenerator
	refreshRepo repository.RefreshTokenRepository
	refreshTTL  time.Duration
	tokenPrefix string
}

// NewTokenService creates a TokenService
func NewTokenService(jwt JWTGenerator, refreshRepo repository.RefreshTokenRepository, refreshTTL time.Duration) *TokenService {
	return &TokenService{jwt: jwt, refreshRepo: refreshRepo, refreshTTL: refreshTTL, tokenPrefix: "rt_"}
}

func (s *TokenService) newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return s.tokenPrefix + hex.EncodeToString(buf), nil
}

// IssueTokens mints an access token and stores a fresh refresh token for userID.
func (s *TokenService) IssueTokens(ctx context.Context, userID string) (*models.TokenResponse, error) {
	accessToken, expiresAt, err := s.jwt.GenerateToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.newRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.refreshRepo.StoreRefreshToken(ctx, userID, refreshToken, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		UserID:       userID,
	}, nil
}

// Refresh rotates refreshToken into a new token pair.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	userID, err := s.refreshRepo.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			log.Warn().Msg("[TokenService.Refresh] Refresh token unknown, used or expired")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	log.Debug().Str("userID", userID).Msg("[TokenService.Refresh] Rotating refresh token")
	return s.IssueTokens(ctx, userID)
}

// Revoke signs the owner of refreshToken out of every device.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	userID, err := s.refreshRepo.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// Already gone; sign-out is idempotent.
			return nil
		}
		return fmt.Errorf("failed to consume refresh token: %w", err)
	}

	revoked, err := s.refreshRepo.RevokeUserTokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	log.Info().Str("userID", userID).Int64("revoked", revoked+1).Msg("[TokenService.Revoke] Refresh tokens revoked")
	return nil
}
