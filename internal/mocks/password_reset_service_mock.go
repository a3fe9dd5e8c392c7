package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockPasswordResetService struct {
	mock.Mock
}

func (m *MockPasswordResetService) InitiatePasswordReset(ctx context.Context, req models.InitiatePasswordResetRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockPasswordResetService) CompletePasswordReset(ctx context.Context, req models.CompletePasswordResetRequest) error {
	args := m.Called(req)
	return args.Error(0)
}
