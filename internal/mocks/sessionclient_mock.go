package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/sessionclient"
)

type MockIdentityProvider struct {
	mock.Mock
}

var _ sessionclient.IdentityProvider = (*MockIdentityProvider)(nil)

func (m *MockIdentityProvider) FetchToken(ctx context.Context, forceRefresh bool) (string, error) {
	args := m.Called(forceRefresh)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n sessionclient.Notification) {
	m.Called(n)
}

type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) ResetToRoot(ctx context.Context) {
	m.Called()
}

func (m *MockNavigator) ShowLogin(ctx context.Context) {
	m.Called()
}

type MockSessionCreator struct {
	mock.Mock
}

var _ sessionclient.SessionCreator = (*MockSessionCreator)(nil)

func (m *MockSessionCreator) Create(ctx context.Context, userID string, req models.CreateSessionRequest, opts ...sessionclient.RequestOption) (*models.SessionResponse, error) {
	args := m.Called(userID, req)
	resp, _ := args.Get(0).(*models.SessionResponse)
	return resp, args.Error(1)
}

func (m *MockSessionCreator) Bootstrap(ctx context.Context, userID string, req models.CreateSessionRequest, opts ...sessionclient.RequestOption) (*models.SessionResponse, error) {
	args := m.Called(userID, req)
	resp, _ := args.Get(0).(*models.SessionResponse)
	return resp, args.Error(1)
}
