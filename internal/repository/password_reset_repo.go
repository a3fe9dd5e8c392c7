package repository

import (
	"context"
	"fmt"
	"time"
)

// ErrPasswordResetTokenNotFound is returned when a token is not found, is expired, or has been used.
var ErrPasswordResetTokenNotFound = fmt.Errorf("password reset token not found or invalid")

// PasswordResetTokenRepository keeps the single use tokens of the password reset flow.
type PasswordResetTokenRepository interface {
	// StoreResetToken saves token for authID until expiry.
	StoreResetToken(ctx context.Context, authID string, token string, expiry time.Time) error
	// ConsumeResetToken returns the authID the token was issued for and deletes the token.
	// It should return ErrPasswordResetTokenNotFound if the token is invalid or not found.
	ConsumeResetToken(ctx context.Context, token string) (authID string, err error)
}
