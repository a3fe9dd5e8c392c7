package router

import (
	"github.com/labstack/echo/v4"

	"github.com/SimpnicServerTeam/timesheet-session/internal/handlers"
	"github.com/SimpnicServerTeam/timesheet-session/internal/middleware"
	"github.com/SimpnicServerTeam/timesheet-session/internal/service"
)

// SessionRouteConfig carries what the session routes need beyond the handler.
type SessionRouteConfig struct {
	JWTSecret      []byte
	MinVersion     int
	SessionService service.SessionGenerator
}

func SetupSessionRoutes(e *echo.Echo, sessionHandler *handlers.SessionHandler, cfg SessionRouteConfig) {
	api := e.Group("/api/users/:userId/sessions",
		middleware.JWT(cfg.JWTSecret),
		middleware.TokenVersion(cfg.MinVersion),
		middleware.RequireSelf("userId"),
	)
	active := middleware.RequireActiveSession(cfg.SessionService)

	api.POST("/bootstrap", sessionHandler.BootstrapSession)            // First session for a token holder, no active session required
	api.POST("", sessionHandler.CreateSession, active)                 // Record a new login
	api.GET("", sessionHandler.ListSessions, active)                   // List sessions, isCurrent relative to X-Session-ID
	api.DELETE("/:sessionId", sessionHandler.TerminateSession, active) // Terminate another session
	api.DELETE("", sessionHandler.TerminateOtherSessions, active)      // Terminate all but the current session
}

func SetupSRPRoutes(e *echo.Echo, authHandler *handlers.SRPAuthHandler) {
	api := e.Group("/api/auth/srp")

	api.POST("/sign-up", authHandler.Register)      // User registration
	api.POST("/login/email", authHandler.AuthStep1) // SRP Step 1 (Client sends email)
	api.POST("/login/proof", authHandler.AuthStep2) // SRP Step 2 (Client sends proof)
}

func SetupPasswordResetRoutes(e *echo.Echo, resetHandler *handlers.PasswordResetHandler) {
	api := e.Group("/api/auth/password")

	api.POST("/request", resetHandler.InitiatePasswordReset) // Deliver a reset token
	api.POST("/reset", resetHandler.CompletePasswordReset)   // Redeem the token for new SRP credentials
}

func SetupTokenRoutes(e *echo.Echo, tokenHandler *handlers.TokenHandler) {
	api := e.Group("/api/auth/token")

	api.POST("/refresh", tokenHandler.Refresh) // Rotate refresh token
	api.POST("/revoke", tokenHandler.Revoke)   // Global sign-out
}
