package models

// SessionIDHeader carries the client's own session id on authenticated requests.
const SessionIDHeader = "X-Session-ID"

// Error codes carried in ErrorResponse.Code. Clients match on these instead of messages
// whenever the transport preserves the body.
const (
	CodeInvalidToken                  = "INVALID_TOKEN"
	CodeMigrationRequired             = "MIGRATION_REQUIRED"
	CodeForbiddenOwnership            = "FORBIDDEN_OWNERSHIP"
	CodeNoActiveSession               = "NO_ACTIVE_SESSION"
	CodeSessionTerminated             = "SESSION_TERMINATED"
	CodeSessionInvalid                = "SESSION_INVALID"
	CodeCannotTerminateCurrentSession = "CANNOT_TERMINATE_CURRENT_SESSION"
	CodeSessionNotFound               = "SESSION_NOT_FOUND"
	CodeStaleLoginTime                = "STALE_LOGIN_TIME"
	CodeInvalidResetToken             = "INVALID_RESET_TOKEN"
	CodeBadRequest                    = "BAD_REQUEST"
	CodeInternal                      = "INTERNAL"
)

// ErrorResponse standard error format
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
