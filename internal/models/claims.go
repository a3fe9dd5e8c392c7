package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenUseAccess marks access tokens.
const TokenUseAccess = "access"

// AccessClaims are the claims carried by access tokens.
type AccessClaims struct {
	// Version of the token format; bumped to force clients through a fresh sign-in.
	Version  int    `json:"ver"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// CreateSessionInput describes the client creating a session.
type CreateSessionInput struct {
	IPAddress string
	UserAgent string
	LoginTime *time.Time
}
