package models

import (
	"time"

	"github.com/tadglines/go-pkgs/crypto/srp"
)

// SRPRegisterRequest is the input for user registration
type SRPRegisterRequest struct {
	AuthID      string `json:"authId"`
	DisplayName string `json:"displayName"`
	Salt        string `json:"salt"`     // Hex encoded salt 's'
	Verifier    string `json:"verifier"` // Hex encoded verifier 'v'
}

type AuthStep1Request struct {
	AuthID string `json:"authId"`
}

type AuthStep1Response struct {
	Salt    string `json:"s"` // Hex encoded salt
	ServerB string `json:"B"` // Hex encoded server ephemeral public value B
}

// AuthStep2Request is the client's response (proof) in step 2
type AuthStep2Request struct {
	AuthID        string `json:"authId"`
	ClientA       string `json:"A"`  // Hex encoded client public value A
	ClientProofM1 string `json:"M1"` // Hex encoded client proof M1
}

// AuthStep3Response is the server's final response: its proof and the issued tokens.
type AuthStep3Response struct {
	ServerProofM2 string        `json:"M2"`
	Tokens        TokenResponse `json:"tokens"`
}

// InitiatePasswordResetRequest asks for a reset token to be delivered to the account owner.
type InitiatePasswordResetRequest struct {
	AuthID string `json:"authId"`
}

// CompletePasswordResetRequest redeems a reset token for new SRP credentials.
type CompletePasswordResetRequest struct {
	AuthID      string `json:"authId"`
	Token       string `json:"token"`
	NewSalt     string `json:"newSalt"`     // Hex encoded salt 's'
	NewVerifier string `json:"newVerifier"` // Hex encoded verifier 'v'
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse carries an access token and the refresh token that replaces the previous one.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       string    `json:"userId"`
}

// AuthSessionState holds temporary server-side state during SRP flow
type AuthSessionState struct {
	AuthID string
	B      []byte
	Salt   []byte
	Server *srp.ServerSession
	Expiry time.Time
}
