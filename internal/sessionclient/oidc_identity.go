package sessionclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// OIDCConfig configures an OIDCIdentityProvider.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// RefreshToken obtained from an earlier interactive sign-in.
	RefreshToken string
	HTTPClient   *http.Client
}

// OIDCIdentityProvider uses a refresh token against an OpenID Connect provider. The
// verified ID token is the bearer presented to the backend.
type OIDCIdentityProvider struct {
	oauthCfg      oauth2.Config
	verifier      *oidc.IDTokenVerifier
	revocationURL string
	httpClient    *http.Client

	mu           sync.Mutex
	refreshToken string
	idToken      string
	expiry       time.Time
}

var (
	_ IdentityProvider = (*OIDCIdentityProvider)(nil)
	_ CredentialCache  = (*OIDCIdentityProvider)(nil)
)

// NewOIDCIdentityProvider discovers the provider configuration at cfg.IssuerURL.
func NewOIDCIdentityProvider(ctx context.Context, cfg OIDCConfig) (*OIDCIdentityProvider, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ctx = oidc.ClientContext(ctx, httpClient)

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	var extra struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := provider.Claims(&extra); err != nil {
		log.Warn().Err(err).Msg("[OIDCIdentityProvider] Failed to read provider metadata")
	}

	scopes := append([]string{oidc.ScopeOpenID}, cfg.Scopes...)
	return &OIDCIdentityProvider{
		oauthCfg: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier:      provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		revocationURL: extra.RevocationEndpoint,
		httpClient:    httpClient,
		refreshToken:  cfg.RefreshToken,
	}, nil
}

func (p *OIDCIdentityProvider) FetchToken(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	if !forceRefresh && p.idToken != "" && time.Now().Before(p.expiry) {
		defer p.mu.Unlock()
		return p.idToken, nil
	}
	refreshToken := p.refreshToken
	p.mu.Unlock()

	if refreshToken == "" {
		return "", errNotSignedIn
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	// An expired token holding only the refresh token makes the source refresh.
	tok, err := p.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh OIDC token: %w", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", fmt.Errorf("token response carries no id_token")
	}

	idToken, err := p.verifier.Verify(oidc.ClientContext(ctx, p.httpClient), rawIDToken)
	if err != nil {
		return "", fmt.Errorf("failed to verify id_token: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refreshToken != refreshToken {
		return "", fmt.Errorf("credentials changed during refresh: %w", errNotSignedIn)
	}
	if tok.RefreshToken != "" {
		p.refreshToken = tok.RefreshToken
	}
	p.idToken = rawIDToken
	p.expiry = idToken.Expiry
	log.Debug().Str("sub", idToken.Subject).Time("expiry", idToken.Expiry).Msg("[OIDCIdentityProvider.FetchToken] ID token refreshed")
	return rawIDToken, nil
}

// SignOut drops local tokens and revokes the refresh token when the provider
// advertises a revocation endpoint.
func (p *OIDCIdentityProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	refreshToken := p.refreshToken
	p.refreshToken, p.idToken, p.expiry = "", "", time.Time{}
	p.mu.Unlock()

	if refreshToken == "" || p.revocationURL == "" {
		return nil
	}

	form := url.Values{"token": {refreshToken}, "token_type_hint": {"refresh_token"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(p.oauthCfg.ClientID), url.QueryEscape(p.oauthCfg.ClientSecret))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("failed to revoke refresh token: status %d", resp.StatusCode)
	}
	return nil
}

func (p *OIDCIdentityProvider) Forget() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshToken, p.idToken, p.expiry = "", "", time.Time{}
}
