package sessionclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

var (
	// ErrNoTokenAvailable is returned when the identity provider cannot produce a token.
	ErrNoTokenAvailable = errors.New("no token available")
	// ErrAuthenticationRequired fails a gateway call made without an obtainable token.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrBootstrapUnresolved means the user is authenticated but no session record could be created.
	ErrBootstrapUnresolved = errors.New("session bootstrap unresolved")
	// ErrCannotTerminateCurrentSession matches the server's refusal to terminate the caller's own session.
	ErrCannotTerminateCurrentSession = errors.New("cannot terminate the current session")
	// ErrServerProofMismatch is returned when the server's SRP proof M2 does not verify.
	ErrServerProofMismatch = errors.New("server proof M2 verification failed")
)

// APIError is the normalized failure of a backend call. Status is zero when the
// request never produced an HTTP response.
type APIError struct {
	Status  int
	Code    string
	Message string
	Method  string
	Path    string
	// Classification is filled in by the authenticated gateway.
	Classification ClassifiedError
	// Err is the transport error, if any.
	Err error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s (%s)", e.Method, e.Path, e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets callers match well-known server refusals with errors.Is.
func (e *APIError) Is(target error) bool {
	return target == ErrCannotTerminateCurrentSession && e.Code == models.CodeCannotTerminateCurrentSession
}

// IsPermissionDenied reports whether err is an ordinary permission failure the caller
// should render inline rather than as a logout.
func IsPermissionDenied(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Classification.Kind == KindPermissionDenied
}

func newHTTPError(method, path string, status int, body models.ErrorResponse) *APIError {
	message := body.Message
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{
		Status:  status,
		Code:    body.Code,
		Message: message,
		Method:  method,
		Path:    path,
	}
}
