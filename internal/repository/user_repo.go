package repository

import (
	"context"
	"fmt"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

// UserRepository defines operations for storing/retrieving user credentials
type UserRepository interface {
	// CreateUser stores the user and its SRP credentials.
	// It should return ErrUserExists if the auth ID is already taken.
	CreateUser(ctx context.Context, user *models.UserInfo) error

	// GetUserInfoByAuthID retrieves the user by login name.
	// It should return ErrUserNotFound if the user does not exist.
	GetUserInfoByAuthID(ctx context.Context, authID string) (*models.UserInfo, error)

	// GetUserInfoByID retrieves the user by its stable id.
	GetUserInfoByID(ctx context.Context, userID string) (*models.UserInfo, error)

	// UpdateUserSRPAuth replaces the salt and verifier of an SRP user.
	// It should return ErrUserNotFound if the user does not exist.
	UpdateUserSRPAuth(ctx context.Context, authID string, newSaltHex string, newVerifierHex string) error
}

// Common errors
var ErrUserNotFound = fmt.Errorf("user not found")
var ErrUserExists = fmt.Errorf("user already exists")
