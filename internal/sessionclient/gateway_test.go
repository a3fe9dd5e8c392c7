package sessionclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SimpnicServerTeam/timesheet-session/internal/mocks"
	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/sessionclient"
)

type gatewayTestDeps struct {
	identity  *mocks.MockIdentityProvider
	notifier  *mocks.MockNotifier
	navigator *mocks.MockNavigator
	client    *sessionclient.Client
	server    *httptest.Server
}

func setupGatewayTest(t *testing.T, handler http.HandlerFunc) gatewayTestDeps {
	t.Helper()
	deps := gatewayTestDeps{
		identity:  new(mocks.MockIdentityProvider),
		notifier:  new(mocks.MockNotifier),
		navigator: new(mocks.MockNavigator),
		server:    httptest.NewServer(handler),
	}
	t.Cleanup(deps.server.Close)

	client, err := sessionclient.New(sessionclient.Options{
		BaseURL:   deps.server.URL,
		Identity:  deps.identity,
		Notifier:  deps.notifier,
		Navigator: deps.navigator,
	})
	require.NoError(t, err)
	deps.client = client
	return deps
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestGateway_AttachesCredentials(t *testing.T) {
	headers := make(chan http.Header, 1)
	deps := setupGatewayTest(t, func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		writeJSON(w, http.StatusOK, models.GetUserSessionsResponse{Sessions: []models.SessionResponse{{ID: "sess-1", IsCurrent: true}}})
	})
	raw := signTestToken(t, testUserID, time.Hour)
	deps.identity.On("FetchToken", false).Return(raw, nil)
	require.NoError(t, deps.client.Store.Save(sessionclient.LocalState{SessionID: "sess-1"}))

	resp, err := deps.client.Sessions.List(context.Background(), testUserID)

	require.NoError(t, err)
	got := <-headers
	assert.Equal(t, "Bearer "+raw, got.Get("Authorization"))
	assert.Equal(t, "sess-1", got.Get(models.SessionIDHeader))
	current, ok := sessionclient.CurrentSession(resp)
	assert.True(t, ok)
	assert.Equal(t, "sess-1", current.ID)
}

func TestGateway_NoTokenFailsWithoutRequest(t *testing.T) {
	var called atomic.Bool
	deps := setupGatewayTest(t, func(w http.ResponseWriter, r *http.Request) { called.Store(true) })
	deps.identity.On("FetchToken", false).Return("", errors.New("not signed in"))

	err := deps.client.Gateway.Do(context.Background(), http.MethodGet, "/anything", nil, nil)

	assert.ErrorIs(t, err, sessionclient.ErrAuthenticationRequired)
	assert.ErrorIs(t, err, sessionclient.ErrNoTokenAvailable)
	assert.False(t, called.Load())
	deps.identity.AssertNotCalled(t, "SignOut")
}

func TestGateway_DecodeFailureIsPropagated(t *testing.T) {
	deps := setupGatewayTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessions": [`))
	})
	deps.identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil)

	resp, err := deps.client.Sessions.List(context.Background(), testUserID)

	assert.Nil(t, resp)
	var apiErr *sessionclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, http.MethodGet, apiErr.Method)
	assert.Equal(t, "/api/users/"+testUserID+"/sessions", apiErr.Path)
	assert.NotNil(t, errors.Unwrap(apiErr))
	assert.Equal(t, sessionclient.KindUnknown, apiErr.Classification.Kind)
	assert.Equal(t, sessionclient.ReasonMalformedBody, apiErr.Classification.Reason)
	assert.False(t, apiErr.Classification.ForcesLogout)
	deps.client.Guard.Wait()
	deps.identity.AssertNotCalled(t, "SignOut")
}

func TestPublicGateway_DecodeFailureIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	var out models.TokenResponse
	err := sessionclient.NewPublicGateway(server.URL, server.Client()).Do(context.Background(), http.MethodPost, "/api/auth/token/refresh", nil, &out)

	var apiErr *sessionclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "/api/auth/token/refresh", apiErr.Path)
}

func TestGateway_PermissionDeniedDoesNotLogOut(t *testing.T) {
	deps := setupGatewayTest(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Message: "You can only access your own profile"})
	})
	deps.identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil)
	require.NoError(t, deps.client.Store.Save(sessionclient.LocalState{SessionID: "sess-1"}))

	_, err := deps.client.Sessions.List(context.Background(), "someone-else")
	deps.client.Guard.Wait()

	require.Error(t, err)
	assert.True(t, sessionclient.IsPermissionDenied(err))
	var apiErr *sessionclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.False(t, apiErr.Classification.ForcesLogout)

	state, _ := deps.client.Store.Load()
	assert.Equal(t, "sess-1", state.SessionID)
	deps.identity.AssertNotCalled(t, "SignOut")
	deps.navigator.AssertNotCalled(t, "ResetToRoot")
}

func TestGateway_ForcingFailureIsReturnedAndDispatched(t *testing.T) {
	deps := setupGatewayTest(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Message: "Session has been terminated", Code: models.CodeSessionTerminated})
	})
	deps.identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil)
	deps.identity.On("SignOut").Return(nil).Once()
	deps.notifier.On("Notify", mock.Anything).Return().Once()
	deps.navigator.On("ResetToRoot").Return().Once()
	require.NoError(t, deps.client.Store.Save(sessionclient.LocalState{SessionID: "sess-1"}))

	_, err := deps.client.Sessions.List(context.Background(), testUserID)
	deps.client.Guard.Wait()

	var apiErr *sessionclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, sessionclient.KindSessionTerminated, apiErr.Classification.Kind)
	assert.Equal(t, models.CodeSessionTerminated, apiErr.Code)
	state, _ := deps.client.Store.Load()
	assert.True(t, state.IsZero())
	deps.identity.AssertExpectations(t)
	deps.navigator.AssertExpectations(t)
}

func TestGateway_WithoutSessionGuard(t *testing.T) {
	deps := setupGatewayTest(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or expired token"})
	})
	deps.identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil)

	err := deps.client.Gateway.Do(context.Background(), http.MethodGet, "/x", nil, nil, sessionclient.WithoutSessionGuard())
	deps.client.Guard.Wait()

	var apiErr *sessionclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Classification.ForcesLogout)
	deps.identity.AssertNotCalled(t, "SignOut")
}

func TestGateway_ConcurrentUnauthorizedLogsOutOnce(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(2)
	deps := setupGatewayTest(t, func(w http.ResponseWriter, r *http.Request) {
		arrived.Done()
		arrived.Wait()
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or expired token", Code: models.CodeInvalidToken})
	})
	deps.identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil)
	deps.identity.On("SignOut").Return(nil)
	deps.notifier.On("Notify", mock.Anything).Return()
	deps.navigator.On("ResetToRoot").Return()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = deps.client.Sessions.List(context.Background(), testUserID)
		}(i)
	}
	wg.Wait()
	deps.client.Guard.Wait()

	for _, err := range errs {
		var apiErr *sessionclient.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	}
	deps.identity.AssertNumberOfCalls(t, "SignOut", 1)
	deps.notifier.AssertNumberOfCalls(t, "Notify", 1)
	deps.navigator.AssertNumberOfCalls(t, "ResetToRoot", 1)
}

func TestGateway_TerminateCurrentSession(t *testing.T) {
	deps := setupGatewayTest(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Message: "Cannot terminate the current session, sign out instead",
			Code:    models.CodeCannotTerminateCurrentSession,
		})
	})
	deps.identity.On("FetchToken", false).Return(signTestToken(t, testUserID, time.Hour), nil)

	err := deps.client.Sessions.Terminate(context.Background(), testUserID, "sess-1")

	assert.ErrorIs(t, err, sessionclient.ErrCannotTerminateCurrentSession)
	deps.identity.AssertNotCalled(t, "SignOut")
}

func TestPublicGateway_NeverAttachesCredentials(t *testing.T) {
	headers := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid client credentials"})
	}))
	defer server.Close()

	err := sessionclient.NewPublicGateway(server.URL, nil).Do(context.Background(), http.MethodPost, "/api/auth/srp/login/email", models.AuthStep1Request{AuthID: "a@example.com"}, nil)

	var apiErr *sessionclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid client credentials", apiErr.Message)
	assert.False(t, apiErr.Classification.ForcesLogout)
	got := <-headers
	assert.Empty(t, got.Get("Authorization"))
	assert.Empty(t, got.Get(models.SessionIDHeader))
}

func TestPublicGateway_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := sessionclient.NewPublicGateway(url, nil).Do(context.Background(), http.MethodGet, "/health", nil, nil)

	var apiErr *sessionclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.Status)
	assert.Error(t, apiErr.Err)
}
