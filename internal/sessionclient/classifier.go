package sessionclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

// Kind is the outcome category of a failed backend call.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthenticationExpired
	KindSessionTerminated
	KindPermissionDenied
	KindMigrationRequired
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationExpired:
		return "AuthenticationExpired"
	case KindSessionTerminated:
		return "SessionTerminated"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindMigrationRequired:
		return "MigrationRequired"
	case KindTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// ClassifiedError describes whether a failure must end the local authenticated state.
type ClassifiedError struct {
	Kind         Kind
	ForcesLogout bool
	Status       int
	Code         string
	Message      string
	// Reason names the rule that matched.
	Reason string
}

// Classifier maps a failure to a ClassifiedError. Implementations must be pure.
type Classifier interface {
	Classify(err error) ClassifiedError
}

// Rule names reported in ClassifiedError.Reason.
const (
	ReasonMigrationCode    = "migration_code"
	ReasonUnauthorized     = "status_401"
	ReasonTokenMessage     = "token_message"
	ReasonSessionMessage   = "session_message"
	ReasonOwnershipMessage = "ownership_message"
	ReasonNetworkHeuristic = "network_heuristic"
	ReasonAmbiguous403     = "ambiguous_403"
	ReasonTransient        = "transient"
	ReasonCanceled         = "canceled"
	ReasonUnmatched        = "unmatched"
	ReasonManual           = "manual"
	ReasonMalformedBody    = "malformed_body"
)

var (
	tokenPhrases = []string{
		"invalid or expired token",
		"token expired",
		"token is expired",
		"token has expired",
		"jwt expired",
		"invalid token",
	}
	sessionPhrases = []string{
		"no active sessions",
		"session has been terminated",
		"session is no longer valid",
		"explicit deny",
	}
	networkPhrases = []string{
		"failed to fetch",
		"network error",
		"networkerror",
		"network request failed",
		"load failed",
		"cors",
		"cross-origin",
		"connection refused",
		"connection reset",
		"no such host",
		"unexpected eof",
	}
	unauthorizedAccess = regexp.MustCompile(`unauthorized\b.*\baccess`)
)

// HeuristicClassifier applies status codes, error codes and message phrases in a fixed
// priority order. Transports that hide status codes make the message heuristics necessary.
type HeuristicClassifier struct {
	// DisableNetworkHeuristic stops status-less network failures from forcing logout.
	DisableNetworkHeuristic bool
}

var _ Classifier = HeuristicClassifier{}

func (h HeuristicClassifier) Classify(err error) ClassifiedError {
	if err == nil {
		return ClassifiedError{Kind: KindUnknown, Reason: ReasonUnmatched}
	}

	status, code, message := describe(err)
	lower := strings.ToLower(message)
	out := func(kind Kind, forces bool, reason string) ClassifiedError {
		return ClassifiedError{Kind: kind, ForcesLogout: forces, Status: status, Code: code, Message: message, Reason: reason}
	}
	forbiddenOrUnknown := status == http.StatusForbidden || status == 0

	// The server accepted the request; only its body was unreadable.
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return out(KindUnknown, false, ReasonMalformedBody)
	}

	switch {
	case code == models.CodeMigrationRequired:
		return out(KindMigrationRequired, true, ReasonMigrationCode)
	case status == http.StatusUnauthorized:
		return out(KindAuthenticationExpired, true, ReasonUnauthorized)
	case code == models.CodeInvalidToken || containsAny(lower, tokenPhrases):
		return out(KindAuthenticationExpired, true, ReasonTokenMessage)
	case forbiddenOrUnknown && (isSessionCode(code) || containsAny(lower, sessionPhrases)):
		return out(KindSessionTerminated, true, ReasonSessionMessage)
	case forbiddenOrUnknown && (code == models.CodeForbiddenOwnership || isOwnershipMessage(lower)):
		return out(KindPermissionDenied, false, ReasonOwnershipMessage)
	}

	if status == 0 {
		if errors.Is(err, context.Canceled) {
			return out(KindUnknown, false, ReasonCanceled)
		}
		if isTimeout(err) {
			return out(KindTransient, false, ReasonTransient)
		}
		if !h.DisableNetworkHeuristic && containsAny(lower, networkPhrases) {
			return out(KindSessionTerminated, true, ReasonNetworkHeuristic)
		}
		return out(KindUnknown, false, ReasonUnmatched)
	}

	switch {
	case status == http.StatusForbidden:
		return out(KindPermissionDenied, false, ReasonAmbiguous403)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return out(KindTransient, false, ReasonTransient)
	default:
		return out(KindUnknown, false, ReasonUnmatched)
	}
}

func describe(err error) (status int, code, message string) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Message
		if apiErr.Err != nil && message == "" {
			message = apiErr.Err.Error()
		}
		return apiErr.Status, apiErr.Code, message
	}
	return 0, "", err.Error()
}

func isSessionCode(code string) bool {
	switch code {
	case models.CodeNoActiveSession, models.CodeSessionTerminated, models.CodeSessionInvalid:
		return true
	}
	return false
}

func isOwnershipMessage(lower string) bool {
	return strings.Contains(lower, "you can only access your own") || unauthorizedAccess.MatchString(lower)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
