package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) SaveHandshake(ctx context.Context, state models.AuthSessionState) error {
	args := m.Called(state)
	return args.Error(0)
}

func (m *MockStateRepository) TakeHandshake(ctx context.Context, authID string) (*models.AuthSessionState, error) {
	args := m.Called(authID)
	state, _ := args.Get(0).(*models.AuthSessionState)
	return state, args.Error(1)
}

func (m *MockStateRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(now)
	return args.Int(0), args.Error(1)
}
