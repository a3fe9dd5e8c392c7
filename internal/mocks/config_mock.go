package mocks

import (
	"crypto"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/config"
)

func CreateTestConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-jwt-secret-for-session-tests",
		SRP: config.SRPConfig{
			Group:            "rfc5054.1024",
			AuthStateExpiry:  5 * time.Minute,
			HashingAlgorithm: crypto.SHA256,
			ResetTokenExpiry: 15 * time.Minute,
		},
		Token: config.TokenConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
			MinVersion:           1,
			CurrentVersion:       1,
			Issuer:               "timesheet-session-test",
		},
		Session: config.SessionConfig{
			Lifetime:        24 * time.Hour,
			IdleTimeout:     time.Hour,
			LoginTimeSkew:   5 * time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}
