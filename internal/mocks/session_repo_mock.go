package mocks

import (
	"context"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a mock implementation of the SessionRepository interface.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) StoreSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *MockSessionRepository) GetSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	args := m.Called(ctx, userID)
	sessions, _ := args.Get(0).([]*models.Session)
	return sessions, args.Error(1)
}

func (m *MockSessionRepository) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	args := m.Called(ctx, sessionID, at)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// DeleteUserSessions records the exclusions as one []string argument so tests can match them exactly.
func (m *MockSessionRepository) DeleteUserSessions(ctx context.Context, userID string, excludeSessionIDs ...string) (int64, error) {
	args := m.Called(ctx, userID, excludeSessionIDs)
	return args.Get(0).(int64), args.Error(1)
}
