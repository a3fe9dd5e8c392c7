package sessionclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

// SessionsAPI is the client side of the session record store.
type SessionsAPI struct {
	gateway *Gateway
}

func NewSessionsAPI(gateway *Gateway) *SessionsAPI {
	return &SessionsAPI{gateway: gateway}
}

func sessionsPath(userID string) string {
	return "/api/users/" + url.PathEscape(userID) + "/sessions"
}

// Create records a login through the regular, session-protected route.
func (a *SessionsAPI) Create(ctx context.Context, userID string, req models.CreateSessionRequest, opts ...RequestOption) (*models.SessionResponse, error) {
	resp := new(models.SessionResponse)
	if err := a.gateway.Do(ctx, http.MethodPost, sessionsPath(userID), req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

// Bootstrap records the first login through the route that does not require a session.
func (a *SessionsAPI) Bootstrap(ctx context.Context, userID string, req models.CreateSessionRequest, opts ...RequestOption) (*models.SessionResponse, error) {
	resp := new(models.SessionResponse)
	if err := a.gateway.Do(ctx, http.MethodPost, sessionsPath(userID)+"/bootstrap", req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *SessionsAPI) List(ctx context.Context, userID string) (*models.GetUserSessionsResponse, error) {
	resp := new(models.GetUserSessionsResponse)
	if err := a.gateway.Do(ctx, http.MethodGet, sessionsPath(userID), nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Terminate ends another session of the user. Refusals to end the caller's own
// session match ErrCannotTerminateCurrentSession.
func (a *SessionsAPI) Terminate(ctx context.Context, userID, sessionID string) error {
	return a.gateway.Do(ctx, http.MethodDelete, sessionsPath(userID)+"/"+url.PathEscape(sessionID), nil, nil)
}

// TerminateOthers ends every session of the user except the caller's.
func (a *SessionsAPI) TerminateOthers(ctx context.Context, userID string) (int64, error) {
	resp := new(models.TerminateSessionsResponse)
	if err := a.gateway.Do(ctx, http.MethodDelete, sessionsPath(userID), nil, resp); err != nil {
		return 0, err
	}
	return resp.Terminated, nil
}

// CurrentSession returns the entry marked as the caller's own, if any.
func CurrentSession(resp *models.GetUserSessionsResponse) (models.SessionResponse, bool) {
	if resp == nil {
		return models.SessionResponse{}, false
	}
	for _, s := range resp.Sessions {
		if s.IsCurrent {
			return s, true
		}
	}
	return models.SessionResponse{}, false
}
