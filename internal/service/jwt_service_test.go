package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestNewJWTService(t *testing.T) {
	service := NewJWTService(testSecret, "issuer", time.Hour, 2)
	require.NotNil(t, service, "NewJWTService should not return nil")
	assert.Equal(t, []byte(testSecret), service.Secret(), "jwtSecret was not initialized correctly")
}

func TestJWTService_GenerateToken(t *testing.T) {
	service := NewJWTService(testSecret, "timesheet-session", 15*time.Minute, 2)
	userID := "5b7d3c1e-6a4f-4e1d-9a51-9f0e6c1d2b3a"

	tokenString, expiry, err := service.GenerateToken(userID)
	require.NoError(t, err, "GenerateToken should not return an error")
	require.NotEmpty(t, tokenString, "Generated token string should not be empty")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiry, 5*time.Second)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testSecret), nil
	})
	require.NoError(t, err, "Failed to parse generated token")
	assert.True(t, token.Valid, "Generated token should be valid")

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, userID, claims["sub"], "Subject claim (sub) is incorrect")
	assert.Equal(t, "timesheet-session", claims["iss"], "Issuer claim (iss) is incorrect")
	assert.EqualValues(t, 2, claims["ver"], "Version claim (ver) is incorrect")
	assert.Equal(t, models.TokenUseAccess, claims["token_use"])
	assert.NotEmpty(t, claims["jti"])

	expClaim, ok := claims["exp"].(float64)
	require.True(t, ok, "Expiration claim (exp) should be a number")
	assert.EqualValues(t, expiry.Unix(), int64(expClaim), "Expiration claim (exp) does not match returned expiry")
}

func TestJWTService_ValidateToken(t *testing.T) {
	service := NewJWTService(testSecret, "timesheet-session", time.Hour, 1)

	t.Run("Success", func(t *testing.T) {
		tokenString, _, err := service.GenerateToken("user-1")
		require.NoError(t, err)

		claims, err := service.ValidateToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, 1, claims.Version)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewJWTService("other-secret", "timesheet-session", time.Hour, 1)
		tokenString, _, err := other.GenerateToken("user-1")
		require.NoError(t, err)

		_, err = service.ValidateToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewJWTService(testSecret, "timesheet-session", -time.Minute, 1)
		tokenString, _, err := expired.GenerateToken("user-1")
		require.NoError(t, err)

		_, err = service.ValidateToken(tokenString)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("UnexpectedSigningMethod", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "user-1"})
		tokenString, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateToken(tokenString)
		assert.Error(t, err)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"ver": 1})
		tokenString, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateToken(tokenString)
		assert.ErrorContains(t, err, "invalid token claims")
	})
}
