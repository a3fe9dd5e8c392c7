package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
)

const (
	// UserContextKey is where echo-jwt stores the parsed *jwt.Token.
	UserContextKey = "user"
	// SessionContextKey holds the validated *models.Session, if the client presented one.
	SessionContextKey = "session"
	// SessionIDHeader carries the client's own session id.
	SessionIDHeader = models.SessionIDHeader

	MsgInvalidToken       = "Invalid or expired token"
	MsgMigrationRequired  = "Token format is no longer supported, please sign in again"
	MsgForbiddenOwnership = "You can only access your own sessions"
	MsgNoActiveSession    = "No active sessions found"
	MsgSessionTerminated  = "Session has been terminated"
	MsgSessionInvalid     = "Session is no longer valid"
)

// NewError builds the JSON error body used by every endpoint.
func NewError(status int, message, code string) *echo.HTTPError {
	return echo.NewHTTPError(status, models.ErrorResponse{Message: message, Code: code})
}

// JWT validates HS256 access tokens and stores them under UserContextKey.
func JWT(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: secret,
		ContextKey: UserContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.AccessClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Rejected bearer token")
			return NewError(http.StatusUnauthorized, MsgInvalidToken, models.CodeInvalidToken)
		},
	})
}

// TokenVersion rejects access tokens minted before minVersion. Such clients must drop
// all local state and sign in again, which the MIGRATION_REQUIRED code tells them.
func TokenVersion(minVersion int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ClaimsFromContext(c)
			if err != nil {
				return err
			}
			if claims.TokenUse != models.TokenUseAccess {
				return NewError(http.StatusUnauthorized, MsgInvalidToken, models.CodeInvalidToken)
			}
			if claims.Version < minVersion {
				log.Info().Str("sub", claims.Subject).Int("ver", claims.Version).Int("min", minVersion).Msg("Rejected outdated token version")
				return NewError(http.StatusForbidden, MsgMigrationRequired, models.CodeMigrationRequired)
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the access claims placed by JWT.
func ClaimsFromContext(c echo.Context) (*models.AccessClaims, error) {
	userContext := c.Get(UserContextKey)
	if userContext == nil {
		log.Error().Msg("'user' not found in context. This indicates a middleware issue or misconfiguration.")
		return nil, NewError(http.StatusUnauthorized, MsgInvalidToken, models.CodeInvalidToken)
	}

	token, ok := userContext.(*jwt.Token)
	if !ok {
		log.Error().Interface("actualType", userContext).Msg("'user' in context is not of type *jwt.Token")
		return nil, NewError(http.StatusInternalServerError, "Internal server error", models.CodeInternal)
	}
	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || claims.Subject == "" {
		return nil, NewError(http.StatusUnauthorized, MsgInvalidToken, models.CodeInvalidToken)
	}
	return claims, nil
}

// SubjectFromContext returns the authenticated user id.
func SubjectFromContext(c echo.Context) (string, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
