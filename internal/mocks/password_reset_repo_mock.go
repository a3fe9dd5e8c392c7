package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockPasswordResetTokenRepository struct {
	mock.Mock
}

func (m *MockPasswordResetTokenRepository) StoreResetToken(ctx context.Context, authID string, token string, expiry time.Time) error {
	args := m.Called(ctx, authID, token, expiry)
	return args.Error(0)
}

func (m *MockPasswordResetTokenRepository) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}
