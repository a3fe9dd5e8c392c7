package mocks

import (
	"context"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockSRPAuthService struct {
	mock.Mock
}

func (m *MockSRPAuthService) Register(ctx context.Context, req models.SRPRegisterRequest) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *MockSRPAuthService) ComputeB(ctx context.Context, req models.AuthStep1Request) (*models.AuthStep1Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*models.AuthStep1Response)
	return resp, args.Error(1)
}

func (m *MockSRPAuthService) VerifyClientProof(ctx context.Context, req models.AuthStep2Request) (*models.AuthStep3Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*models.AuthStep3Response)
	return resp, args.Error(1)
}
