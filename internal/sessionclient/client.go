package sessionclient

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Options configures New.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Identity   IdentityProvider
	// Store defaults to an in-memory store.
	Store LocalStore
	// Classifier defaults to HeuristicClassifier.
	Classifier     Classifier
	Notifier       Notifier
	Navigator      Navigator
	NotifyDuration time.Duration
	UserAgent      string
}

// Client wires the session core together. It is the composition root: exactly one
// guard exists per Client and every authenticated call goes through Gateway.
type Client struct {
	Tokens       *TokenProvider
	Store        LocalStore
	Guard        *SessionGuard
	Gateway      *Gateway
	Sessions     *SessionsAPI
	Bootstrapper *SessionBootstrapper
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if opts.Identity == nil {
		return nil, errors.New("identity provider is required")
	}
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}

	tokens := NewTokenProvider(opts.Identity)
	guard := NewSessionGuard(GuardDeps{
		Store:          store,
		Identity:       opts.Identity,
		Credentials:    tokens,
		Notifier:       opts.Notifier,
		Navigator:      opts.Navigator,
		NotifyDuration: opts.NotifyDuration,
	})
	gateway := NewGateway(opts.BaseURL, opts.HTTPClient, tokens, store, opts.Classifier, guard)
	sessions := NewSessionsAPI(gateway)

	return &Client{
		Tokens:       tokens,
		Store:        store,
		Guard:        guard,
		Gateway:      gateway,
		Sessions:     sessions,
		Bootstrapper: NewSessionBootstrapper(sessions, tokens, store, opts.UserAgent),
	}, nil
}

// Start bootstraps the session of the signed-in user.
func (c *Client) Start(ctx context.Context) BootstrapResult {
	return c.Bootstrapper.Bootstrap(ctx, "")
}

// UserID returns the subject of the current token.
func (c *Client) UserID(ctx context.Context) (string, error) {
	return c.Tokens.Subject(ctx)
}
