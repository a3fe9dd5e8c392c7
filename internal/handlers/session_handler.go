package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/middleware"
	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
	"github.com/SimpnicServerTeam/timesheet-session/internal/service"
)

// SessionHandler serves /api/users/:userId/sessions. Ownership and the active-session
// policy are enforced by middleware before any of these run.
type SessionHandler struct {
	SessionService service.SessionGenerator
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionService service.SessionGenerator) *SessionHandler {
	return &SessionHandler{SessionService: sessionService}
}

// CreateSession records a new login for the user.
func (h *SessionHandler) CreateSession(c echo.Context) error {
	return h.create(c, "[SessionHandler.CreateSession]")
}

// BootstrapSession creates the first session for a user who holds a valid token but
// no session record yet. It is routed without the active-session requirement.
func (h *SessionHandler) BootstrapSession(c echo.Context) error {
	return h.create(c, "[SessionHandler.BootstrapSession]")
}

func (h *SessionHandler) create(c echo.Context, logPrefix string) error {
	userID := c.Param("userId")

	req := new(models.CreateSessionRequest)
	if err := c.Bind(req); err != nil {
		return middleware.NewError(http.StatusBadRequest, "Invalid request body", models.CodeBadRequest)
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Request().UserAgent()
	}

	session, err := h.SessionService.CreateSession(c.Request().Context(), userID, models.CreateSessionInput{
		IPAddress: c.RealIP(),
		UserAgent: userAgent,
		LoginTime: req.LoginTime,
	})
	if err != nil {
		if errors.Is(err, service.ErrStaleLoginTime) {
			return middleware.NewError(http.StatusBadRequest, "Login time is too old or too far in the future", models.CodeStaleLoginTime)
		}
		log.Error().Err(err).Str("userID", userID).Msg(logPrefix + " Failed to create session")
		return middleware.NewError(http.StatusInternalServerError, "Failed to create session", models.CodeInternal)
	}

	return c.JSON(http.StatusCreated, models.NewSessionResponse(session, session.ID))
}

// ListSessions returns every session of the user, marking the requester's own.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	userID := c.Param("userId")
	currentSessionID := c.Request().Header.Get(middleware.SessionIDHeader)

	resp, err := h.SessionService.ListSessions(c.Request().Context(), userID, currentSessionID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("[SessionHandler.ListSessions] Failed to list sessions")
		return middleware.NewError(http.StatusInternalServerError, "Failed to retrieve sessions", models.CodeInternal)
	}
	return c.JSON(http.StatusOK, resp)
}

// TerminateSession deletes one of the user's other sessions.
func (h *SessionHandler) TerminateSession(c echo.Context) error {
	userID := c.Param("userId")
	sessionID := c.Param("sessionId")
	currentSessionID := c.Request().Header.Get(middleware.SessionIDHeader)

	err := h.SessionService.TerminateSession(c.Request().Context(), userID, sessionID, currentSessionID)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, service.ErrCannotTerminateCurrentSession):
		return middleware.NewError(http.StatusBadRequest, "Cannot terminate the current session, sign out instead", models.CodeCannotTerminateCurrentSession)
	case errors.Is(err, repository.ErrSessionNotFound):
		return middleware.NewError(http.StatusNotFound, "Session not found", models.CodeSessionNotFound)
	default:
		log.Error().Err(err).Str("userID", userID).Str("sessionID", sessionID).Msg("[SessionHandler.TerminateSession] Failed to terminate session")
		return middleware.NewError(http.StatusInternalServerError, "Failed to terminate session", models.CodeInternal)
	}
}

// TerminateOtherSessions deletes every session of the user except the requester's.
func (h *SessionHandler) TerminateOtherSessions(c echo.Context) error {
	userID := c.Param("userId")
	currentSessionID := c.Request().Header.Get(middleware.SessionIDHeader)

	count, err := h.SessionService.TerminateOtherSessions(c.Request().Context(), userID, currentSessionID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("[SessionHandler.TerminateOtherSessions] Failed to terminate sessions")
		return middleware.NewError(http.StatusInternalServerError, "Failed to terminate sessions", models.CodeInternal)
	}
	return c.JSON(http.StatusOK, models.TerminateSessionsResponse{
		Message:    "Other sessions terminated",
		Terminated: count,
	})
}
