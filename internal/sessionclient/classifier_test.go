package sessionclient_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/sessionclient"
)

func httpErr(status int, message, code string) *sessionclient.APIError {
	return &sessionclient.APIError{Status: status, Message: message, Code: code, Method: http.MethodGet, Path: "/api/users/u1/sessions"}
}

func transportErr(message string) *sessionclient.APIError {
	err := errors.New(message)
	return &sessionclient.APIError{Message: message, Method: http.MethodGet, Path: "/api/users/u1/sessions", Err: err}
}

func TestHeuristicClassifier_Classify(t *testing.T) {
	classifier := sessionclient.HeuristicClassifier{}

	testCases := []struct {
		name         string
		err          error
		expectedKind sessionclient.Kind
		forcesLogout bool
		reason       string
	}{
		{"MigrationCode", httpErr(http.StatusForbidden, "Token format is no longer supported", models.CodeMigrationRequired), sessionclient.KindMigrationRequired, true, sessionclient.ReasonMigrationCode},
		{"Status401", httpErr(http.StatusUnauthorized, "Invalid or expired token", models.CodeInvalidToken), sessionclient.KindAuthenticationExpired, true, sessionclient.ReasonUnauthorized},
		{"TokenMessageWithoutStatus", transportErr("jwt expired"), sessionclient.KindAuthenticationExpired, true, sessionclient.ReasonTokenMessage},
		{"NoActiveSessions", httpErr(http.StatusForbidden, "No active sessions found", ""), sessionclient.KindSessionTerminated, true, sessionclient.ReasonSessionMessage},
		{"SessionTerminated", httpErr(http.StatusForbidden, "Session has been terminated", ""), sessionclient.KindSessionTerminated, true, sessionclient.ReasonSessionMessage},
		{"SessionInvalidCode", httpErr(http.StatusForbidden, "", models.CodeSessionInvalid), sessionclient.KindSessionTerminated, true, sessionclient.ReasonSessionMessage},
		{"ExplicitDeny", httpErr(http.StatusForbidden, "User is not authorized to access this resource with an explicit deny", ""), sessionclient.KindSessionTerminated, true, sessionclient.ReasonSessionMessage},
		{"Ownership", httpErr(http.StatusForbidden, "You can only access your own profile", ""), sessionclient.KindPermissionDenied, false, sessionclient.ReasonOwnershipMessage},
		{"UnauthorizedAccess", httpErr(http.StatusForbidden, "Unauthorized invoice access", ""), sessionclient.KindPermissionDenied, false, sessionclient.ReasonOwnershipMessage},
		{"OwnershipCode", httpErr(http.StatusForbidden, "", models.CodeForbiddenOwnership), sessionclient.KindPermissionDenied, false, sessionclient.ReasonOwnershipMessage},
		{"NetworkHeuristic", transportErr("TypeError: Failed to fetch"), sessionclient.KindSessionTerminated, true, sessionclient.ReasonNetworkHeuristic},
		{"ConnectionRefused", transportErr("dial tcp 127.0.0.1:8080: connect: connection refused"), sessionclient.KindSessionTerminated, true, sessionclient.ReasonNetworkHeuristic},
		{"Ambiguous403", httpErr(http.StatusForbidden, "Forbidden", ""), sessionclient.KindPermissionDenied, false, sessionclient.ReasonAmbiguous403},
		{"ServerError", httpErr(http.StatusBadGateway, "Bad Gateway", ""), sessionclient.KindTransient, false, sessionclient.ReasonTransient},
		{"TooManyRequests", httpErr(http.StatusTooManyRequests, "slow down", ""), sessionclient.KindTransient, false, sessionclient.ReasonTransient},
		{"Deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), sessionclient.KindTransient, false, sessionclient.ReasonTransient},
		{"Canceled", fmt.Errorf("request: %w", context.Canceled), sessionclient.KindUnknown, false, sessionclient.ReasonCanceled},
		{"BadRequest", httpErr(http.StatusBadRequest, "Login time is too old", models.CodeStaleLoginTime), sessionclient.KindUnknown, false, sessionclient.ReasonUnmatched},
		{"PlainError", errors.New("something odd"), sessionclient.KindUnknown, false, sessionclient.ReasonUnmatched},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifier.Classify(tc.err)
			assert.Equal(t, tc.expectedKind, got.Kind)
			assert.Equal(t, tc.forcesLogout, got.ForcesLogout)
			assert.Equal(t, tc.reason, got.Reason)
		})
	}
}

func TestHeuristicClassifier_401AlwaysForcesLogout(t *testing.T) {
	classifier := sessionclient.HeuristicClassifier{DisableNetworkHeuristic: true}
	messages := []string{
		"",
		"Invalid or expired token",
		"You can only access your own sessions",
		"Failed to fetch",
		"everything is fine",
	}
	for _, msg := range messages {
		got := classifier.Classify(httpErr(http.StatusUnauthorized, msg, ""))
		assert.True(t, got.ForcesLogout, "message %q", msg)
		assert.Equal(t, sessionclient.KindAuthenticationExpired, got.Kind)
	}
}

func TestHeuristicClassifier_OwnershipBeatsNetworkHeuristic(t *testing.T) {
	classifier := sessionclient.HeuristicClassifier{}
	messages := []string{
		"You can only access your own sessions (network error)",
		"Unauthorized access: failed to fetch",
		"CORS: you can only access your own profile",
	}
	for _, msg := range messages {
		for _, err := range []error{httpErr(http.StatusForbidden, msg, ""), transportErr(msg)} {
			got := classifier.Classify(err)
			assert.False(t, got.ForcesLogout, "message %q", msg)
			assert.Equal(t, sessionclient.KindPermissionDenied, got.Kind)
		}
	}
}

func TestHeuristicClassifier_DisableNetworkHeuristic(t *testing.T) {
	got := sessionclient.HeuristicClassifier{DisableNetworkHeuristic: true}.Classify(transportErr("Failed to fetch"))

	assert.False(t, got.ForcesLogout)
	assert.Equal(t, sessionclient.KindUnknown, got.Kind)
}

func TestLogoutMessage(t *testing.T) {
	elsewhere := sessionclient.LogoutMessage(sessionclient.ClassifiedError{Kind: sessionclient.KindSessionTerminated, Code: models.CodeSessionTerminated})
	invalid := sessionclient.LogoutMessage(sessionclient.ClassifiedError{Kind: sessionclient.KindSessionTerminated, Message: "Session is no longer valid"})
	expired := sessionclient.LogoutMessage(sessionclient.ClassifiedError{Kind: sessionclient.KindAuthenticationExpired})

	assert.NotEqual(t, elsewhere, invalid)
	assert.NotEqual(t, elsewhere, expired)
	assert.NotEqual(t, invalid, expired)
	assert.Contains(t, elsewhere, "another device")
}
