package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/service"
)

// RequireSelf rejects requests whose path parameter names a user other than the token subject.
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject, err := SubjectFromContext(c)
			if err != nil {
				return err
			}
			if c.Param(param) != subject {
				log.Warn().Str("sub", subject).Str("target", c.Param(param)).Msg("Rejected cross-user session access")
				return NewError(http.StatusForbidden, MsgForbiddenOwnership, models.CodeForbiddenOwnership)
			}
			return next(c)
		}
	}
}

// RequireActiveSession enforces that the subject still holds a live session and
// records activity on the one named by X-Session-ID.
func RequireActiveSession(sessions service.SessionGenerator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject, err := SubjectFromContext(c)
			if err != nil {
				return err
			}

			session, err := sessions.ValidateActiveSession(c.Request().Context(), subject, c.Request().Header.Get(SessionIDHeader))
			switch {
			case err == nil:
			case errors.Is(err, service.ErrNoActiveSession):
				return NewError(http.StatusForbidden, MsgNoActiveSession, models.CodeNoActiveSession)
			case errors.Is(err, service.ErrSessionTerminated):
				return NewError(http.StatusForbidden, MsgSessionTerminated, models.CodeSessionTerminated)
			case errors.Is(err, service.ErrSessionInvalid):
				return NewError(http.StatusForbidden, MsgSessionInvalid, models.CodeSessionInvalid)
			default:
				log.Error().Err(err).Str("sub", subject).Msg("Failed to validate active session")
				return NewError(http.StatusInternalServerError, "Failed to validate session", models.CodeInternal)
			}

			if session != nil {
				c.Set(SessionContextKey, session)
			}
			return next(c)
		}
	}
}
