package sessionclient

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tadglines/go-pkgs/crypto/srp"
	"golang.org/x/oauth2"

	"github.com/SimpnicServerTeam/timesheet-session/internal/config"
	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

var errNotSignedIn = errors.New("not signed in")

// SRPIdentityProvider signs in against the SRP-6a endpoints and keeps the resulting
// token pair in memory. The password is never stored.
type SRPIdentityProvider struct {
	public *PublicGateway
	cfg    config.SRPConfig

	mu     sync.Mutex
	token  *oauth2.Token
	userID string
}

var (
	_ IdentityProvider = (*SRPIdentityProvider)(nil)
	_ CredentialCache  = (*SRPIdentityProvider)(nil)
)

func NewSRPIdentityProvider(public *PublicGateway, cfg config.SRPConfig) *SRPIdentityProvider {
	return &SRPIdentityProvider{public: public, cfg: cfg}
}

// computeCredentials derives a fresh hex salt and verifier for password.
func (p *SRPIdentityProvider) computeCredentials(password string) (saltHex, verifierHex string, err error) {
	srpInstance, err := srp.NewSRP(p.cfg.Group, p.cfg.HashingAlgorithm.New, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create SRP instance: %w", err)
	}
	salt, verifier, err := srpInstance.ComputeVerifier([]byte(password))
	if err != nil {
		return "", "", fmt.Errorf("failed to compute verifier: %w", err)
	}
	return hex.EncodeToString(salt), hex.EncodeToString(verifier), nil
}

// Register creates an account by sending a freshly computed salt and verifier.
func (p *SRPIdentityProvider) Register(ctx context.Context, authID, displayName, password string) (string, error) {
	salt, verifier, err := p.computeCredentials(password)
	if err != nil {
		return "", err
	}

	var resp struct {
		UserID string `json:"userId"`
	}
	err = p.public.Do(ctx, http.MethodPost, "/api/auth/srp/sign-up", models.SRPRegisterRequest{
		AuthID:      authID,
		DisplayName: displayName,
		Salt:        salt,
		Verifier:    verifier,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// RequestPasswordReset asks the server to deliver a reset token for authID.
// The server answers the same way for unknown accounts.
func (p *SRPIdentityProvider) RequestPasswordReset(ctx context.Context, authID string) error {
	return p.public.Do(ctx, http.MethodPost, "/api/auth/password/request", models.InitiatePasswordResetRequest{AuthID: authID}, nil)
}

// ResetPassword redeems a reset token for credentials derived from newPassword.
// The server signs the account out everywhere, this client's tokens included.
func (p *SRPIdentityProvider) ResetPassword(ctx context.Context, authID, token, newPassword string) error {
	salt, verifier, err := p.computeCredentials(newPassword)
	if err != nil {
		return err
	}
	err = p.public.Do(ctx, http.MethodPost, "/api/auth/password/reset", models.CompletePasswordResetRequest{
		AuthID:      authID,
		Token:       token,
		NewSalt:     salt,
		NewVerifier: verifier,
	}, nil)
	if err != nil {
		return err
	}
	log.Info().Str("authID", authID).Msg("[SRPIdentityProvider.ResetPassword] Password reset")
	return nil
}

// Login runs the SRP handshake and keeps the issued tokens.
func (p *SRPIdentityProvider) Login(ctx context.Context, authID, password string) error {
	step1 := new(models.AuthStep1Response)
	if err := p.public.Do(ctx, http.MethodPost, "/api/auth/srp/login/email", models.AuthStep1Request{AuthID: authID}, step1); err != nil {
		return err
	}
	salt, err := hex.DecodeString(step1.Salt)
	if err != nil {
		return fmt.Errorf("invalid salt from server: %w", err)
	}
	serverB, err := hex.DecodeString(step1.ServerB)
	if err != nil {
		return fmt.Errorf("invalid B from server: %w", err)
	}

	srpInstance, err := srp.NewSRP(p.cfg.Group, p.cfg.HashingAlgorithm.New, nil)
	if err != nil {
		return fmt.Errorf("failed to create SRP instance: %w", err)
	}
	client := srpInstance.NewClientSession([]byte(authID), []byte(password))
	if _, err := client.ComputeKey(salt, serverB); err != nil {
		return fmt.Errorf("failed to compute session key: %w", err)
	}

	step3 := new(models.AuthStep3Response)
	err = p.public.Do(ctx, http.MethodPost, "/api/auth/srp/login/proof", models.AuthStep2Request{
		AuthID:        authID,
		ClientA:       hex.EncodeToString(client.GetA()),
		ClientProofM1: hex.EncodeToString(client.ComputeAuthenticator()),
	}, step3)
	if err != nil {
		return err
	}

	serverM2, err := hex.DecodeString(step3.ServerProofM2)
	if err != nil || !client.VerifyServerAuthenticator(serverM2) {
		return ErrServerProofMismatch
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.setTokensLocked(step3.Tokens)
	log.Info().Str("userID", p.userID).Msg("[SRPIdentityProvider.Login] Signed in")
	return nil
}

func (p *SRPIdentityProvider) FetchToken(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	held := p.token
	p.mu.Unlock()

	if held == nil {
		return "", errNotSignedIn
	}
	if !forceRefresh && held.Valid() {
		return held.AccessToken, nil
	}
	if held.RefreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token is held")
	}

	// The lock is not held across the round trip so Forget and SignOut stay immediate.
	resp := new(models.TokenResponse)
	err := p.public.Do(ctx, http.MethodPost, "/api/auth/token/refresh", models.RefreshTokenRequest{RefreshToken: held.RefreshToken}, resp)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != held {
		return "", fmt.Errorf("credentials changed during refresh: %w", errNotSignedIn)
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			// The refresh token is spent or revoked; signing in again is the only way forward.
			p.token = nil
		}
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	p.setTokensLocked(*resp)
	log.Debug().Str("userID", p.userID).Msg("[SRPIdentityProvider.FetchToken] Token refreshed")
	return p.token.AccessToken, nil
}

// SignOut revokes the refresh token on the server, signing the user out of every device.
// Local tokens are dropped whether or not the server call succeeds.
func (p *SRPIdentityProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	token := p.token
	p.token = nil
	p.userID = ""
	p.mu.Unlock()

	if token == nil || token.RefreshToken == "" {
		return nil
	}
	return p.public.Do(ctx, http.MethodPost, "/api/auth/token/revoke", models.RefreshTokenRequest{RefreshToken: token.RefreshToken}, nil)
}

func (p *SRPIdentityProvider) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = nil
	p.userID = ""
}

// UserID returns the id of the signed-in user, if any.
func (p *SRPIdentityProvider) UserID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID
}

func (p *SRPIdentityProvider) setTokensLocked(t models.TokenResponse) {
	p.token = &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
	p.userID = t.UserID
}
