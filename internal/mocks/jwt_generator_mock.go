package mocks

import (
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockJWTGenerator struct {
	mock.Mock
}

func (m *MockJWTGenerator) GenerateToken(userID string) (string, time.Time, error) {
	args := m.Called(userID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockJWTGenerator) ValidateToken(tokenString string) (*models.AccessClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*models.AccessClaims)
	return claims, args.Error(1)
}
