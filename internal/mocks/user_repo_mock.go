package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.UserInfo) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserInfoByAuthID(ctx context.Context, authID string) (*models.UserInfo, error) {
	args := m.Called(ctx, authID)
	info, _ := args.Get(0).(*models.UserInfo)
	return info, args.Error(1)
}

func (m *MockUserRepository) GetUserInfoByID(ctx context.Context, userID string) (*models.UserInfo, error) {
	args := m.Called(ctx, userID)
	info, _ := args.Get(0).(*models.UserInfo)
	return info, args.Error(1)
}

func (m *MockUserRepository) UpdateUserSRPAuth(ctx context.Context, authID string, newSaltHex string, newVerifierHex string) error {
	args := m.Called(ctx, authID, newSaltHex, newVerifierHex)
	return args.Error(0)
}
