package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueTokens(ctx context.Context, userID string) (*models.TokenResponse, error) {
	args := m.Called(ctx, userID)
	resp, _ := args.Get(0).(*models.TokenResponse)
	return resp, args.Error(1)
}

func (m *MockTokenIssuer) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	resp, _ := args.Get(0).(*models.TokenResponse)
	return resp, args.Error(1)
}

func (m *MockTokenIssuer) Revoke(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}
