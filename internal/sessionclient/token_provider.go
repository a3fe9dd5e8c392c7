package sessionclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// IdentityProvider issues bearer tokens and ends the user's identity-level sign-in.
type IdentityProvider interface {
	// FetchToken returns a raw bearer token, refreshing it when stale or when forceRefresh is set.
	FetchToken(ctx context.Context, forceRefresh bool) (string, error)
	SignOut(ctx context.Context) error
}

// CredentialCache is implemented by anything holding credentials that must be dropped
// without contacting a server.
type CredentialCache interface {
	Forget()
}

// Token is a bearer credential with its locally decoded claims.
type Token struct {
	Raw       string
	Subject   string
	ExpiresAt time.Time
}

// Valid reports whether t can still be presented at now, keeping leeway in reserve.
func (t Token) Valid(now time.Time, leeway time.Duration) bool {
	if t.Raw == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.Add(leeway).Before(t.ExpiresAt)
}

// TokenProvider caches the current bearer token in memory and asks the identity
// provider for a new one when it goes stale. Fetches are serialized by fetchMu; mu only
// guards the cache, so Forget never waits for a network round trip.
type TokenProvider struct {
	identity IdentityProvider
	leeway   time.Duration
	now      func() time.Time

	fetchMu sync.Mutex

	mu         sync.Mutex
	cached     *Token
	generation uint64
}

var _ CredentialCache = (*TokenProvider)(nil)

func NewTokenProvider(identity IdentityProvider) *TokenProvider {
	return &TokenProvider{
		identity: identity,
		leeway:   10 * time.Second,
		now:      time.Now,
	}
}

// GetToken returns the cached token while valid and otherwise performs a non-forced fetch.
func (p *TokenProvider) GetToken(ctx context.Context) (Token, error) {
	if token, ok := p.cachedToken(); ok {
		return token, nil
	}

	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	// Another caller may have fetched while this one waited.
	if token, ok := p.cachedToken(); ok {
		return token, nil
	}
	return p.fetch(ctx, false)
}

// RefreshToken forces the identity provider to issue a new token.
func (p *TokenProvider) RefreshToken(ctx context.Context) (Token, error) {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	return p.fetch(ctx, true)
}

// Subject returns the user id carried by the current token.
func (p *TokenProvider) Subject(ctx context.Context) (string, error) {
	token, err := p.GetToken(ctx)
	if err != nil {
		return "", err
	}
	return token.Subject, nil
}

// Forget drops the cached token and any credentials held by the identity provider. A
// fetch still in flight is discarded when it returns.
func (p *TokenProvider) Forget() {
	p.mu.Lock()
	p.cached = nil
	p.generation++
	p.mu.Unlock()

	if cache, ok := p.identity.(CredentialCache); ok {
		cache.Forget()
	}
}

func (p *TokenProvider) cachedToken() (Token, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil && p.cached.Valid(p.now(), p.leeway) {
		return *p.cached, true
	}
	return Token{}, false
}

func (p *TokenProvider) fetch(ctx context.Context, force bool) (Token, error) {
	p.mu.Lock()
	generation := p.generation
	p.mu.Unlock()

	raw, err := p.identity.FetchToken(ctx, force)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != generation {
		log.Debug().Bool("force", force).Msg("[TokenProvider] Credentials forgotten during fetch, discarding token")
		return Token{}, fmt.Errorf("%w: credentials were forgotten during fetch", ErrNoTokenAvailable)
	}
	if err != nil {
		p.cached = nil
		log.Debug().Err(err).Bool("force", force).Msg("[TokenProvider] Identity provider returned no token")
		return Token{}, fmt.Errorf("%w: %w", ErrNoTokenAvailable, err)
	}
	if raw == "" {
		p.cached = nil
		return Token{}, ErrNoTokenAvailable
	}

	token, err := DecodeToken(raw)
	if err != nil {
		p.cached = nil
		return Token{}, fmt.Errorf("%w: %w", ErrNoTokenAvailable, err)
	}
	p.cached = &token
	return token, nil
}

// DecodeToken reads the subject and expiry claims without verifying the signature.
func DecodeToken(raw string) (Token, error) {
	claims := new(jwt.RegisteredClaims)
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Token{}, fmt.Errorf("failed to decode token: %w", err)
	}
	if claims.Subject == "" {
		return Token{}, fmt.Errorf("token has no subject claim")
	}

	token := Token{Raw: raw, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		token.ExpiresAt = claims.ExpiresAt.Time
	}
	return token, nil
}
