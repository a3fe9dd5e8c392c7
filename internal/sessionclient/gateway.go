package sessionclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

// TokenSource is the part of TokenProvider the gateway needs.
type TokenSource interface {
	GetToken(ctx context.Context) (Token, error)
}

// LogoutDispatcher receives failures that force logout. Epoch lets the dispatcher
// ignore failures of requests that started before the last logout.
type LogoutDispatcher interface {
	Epoch() uint64
	DispatchSince(ctx context.Context, epoch uint64, classified ClassifiedError) bool
}

type requestOptions struct {
	skipGuard bool
}

// RequestOption adjusts a single gateway call.
type RequestOption func(*requestOptions)

// WithoutSessionGuard classifies failures but never hands them to the guard.
func WithoutSessionGuard() RequestOption {
	return func(o *requestOptions) {
		o.skipGuard = true
	}
}

type transport struct {
	baseURL    string
	httpClient *http.Client
}

func newTransport(baseURL string, httpClient *http.Client) transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// do sends one JSON request. HTTP failures, transport failures and success bodies that
// cannot be decoded into out all come back as *APIError.
func (t transport) do(ctx context.Context, method, path string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: err.Error(), Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var errBody models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
			log.Debug().Err(err).Int("status", resp.StatusCode).Str("path", path).Msg("Error response without JSON body")
		}
		return newHTTPError(method, path, resp.StatusCode, errBody)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			Status:  resp.StatusCode,
			Message: "failed to decode response: " + err.Error(),
			Method:  method,
			Path:    path,
			Err:     err,
		}
	}
	return nil
}

// Gateway is the single path for authenticated backend calls. It attaches the bearer
// token and session id, classifies failures and hands forcing ones to the guard.
type Gateway struct {
	transport  transport
	tokens     TokenSource
	store      LocalStore
	classifier Classifier
	guard      LogoutDispatcher
}

func NewGateway(baseURL string, httpClient *http.Client, tokens TokenSource, store LocalStore, classifier Classifier, guard LogoutDispatcher) *Gateway {
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}
	return &Gateway{
		transport:  newTransport(baseURL, httpClient),
		tokens:     tokens,
		store:      store,
		classifier: classifier,
		guard:      guard,
	}
}

// Do performs an authenticated call and decodes a successful JSON response into out.
// Every failure is returned to the caller; logout is a side effect.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	var epoch uint64
	if g.guard != nil {
		epoch = g.guard.Epoch()
	}

	token, err := g.tokens.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrAuthenticationRequired, method, path, err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token.Raw)
	if state, err := g.store.Load(); err != nil {
		log.Warn().Err(err).Msg("[Gateway.Do] Failed to load local session state")
	} else if state.SessionID != "" {
		header.Set(models.SessionIDHeader, state.SessionID)
	}

	err = g.transport.do(ctx, method, path, header, body, out)
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	apiErr.Classification = g.classifier.Classify(apiErr)

	c := apiErr.Classification
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", c.Status).
		Str("kind", c.Kind.String()).
		Str("reason", c.Reason).
		Bool("forcesLogout", c.ForcesLogout).
		Msg("[Gateway.Do] Request failed")

	if c.ForcesLogout && !o.skipGuard && g.guard != nil {
		g.guard.DispatchSince(ctx, epoch, c)
	}
	return apiErr
}

// PublicGateway is for endpoints called before sign-in. It never attaches credentials
// and never triggers logout.
type PublicGateway struct {
	transport transport
}

func NewPublicGateway(baseURL string, httpClient *http.Client) *PublicGateway {
	return &PublicGateway{transport: newTransport(baseURL, httpClient)}
}

func (g *PublicGateway) Do(ctx context.Context, method, path string, body, out any) error {
	return g.transport.do(ctx, method, path, nil, body, out)
}
