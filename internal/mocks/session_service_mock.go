package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockSessionGenerator struct {
	mock.Mock
}

func (m *MockSessionGenerator) CreateSession(ctx context.Context, userID string, in models.CreateSessionInput) (*models.Session, error) {
	args := m.Called(ctx, userID, in)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *MockSessionGenerator) ListSessions(ctx context.Context, userID, currentSessionID string) (*models.GetUserSessionsResponse, error) {
	args := m.Called(ctx, userID, currentSessionID)
	resp, _ := args.Get(0).(*models.GetUserSessionsResponse)
	return resp, args.Error(1)
}

func (m *MockSessionGenerator) TerminateSession(ctx context.Context, userID, sessionID, currentSessionID string) error {
	args := m.Called(ctx, userID, sessionID, currentSessionID)
	return args.Error(0)
}

func (m *MockSessionGenerator) TerminateOtherSessions(ctx context.Context, userID, currentSessionID string) (int64, error) {
	args := m.Called(ctx, userID, currentSessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionGenerator) ValidateActiveSession(ctx context.Context, userID, presentedSessionID string) (*models.Session, error) {
	args := m.Called(ctx, userID, presentedSessionID)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}
