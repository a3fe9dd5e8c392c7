package repository

import (
	"context"
	"fmt"
	"time"
)

// ErrRefreshTokenNotFound is returned when a token is not found, is expired, or has been used.
var ErrRefreshTokenNotFound = fmt.Errorf("refresh token not found or invalid")

// RefreshTokenRepository manages opaque refresh tokens. Tokens are single use.
type RefreshTokenRepository interface {
	// StoreRefreshToken saves a token for userID until expiry.
	StoreRefreshToken(ctx context.Context, userID string, token string, expiry time.Time) error
	// ConsumeRefreshToken returns the owning userID and deletes the token to prevent reuse.
	// It should return ErrRefreshTokenNotFound if the token is invalid or not found.
	ConsumeRefreshToken(ctx context.Context, token string) (userID string, err error)
	// RevokeUserTokens deletes every refresh token of userID. It returns how many were removed.
	RevokeUserTokens(ctx context.Context, userID string) (int64, error)
}
