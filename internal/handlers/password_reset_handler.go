package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/middleware"
	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/service"
)

// PasswordResetHandler serves the password reset endpoints. Both are public.
type PasswordResetHandler struct {
	PasswordResetService service.PasswordResetGenerator
}

func NewPasswordResetHandler(resetService service.PasswordResetGenerator) *PasswordResetHandler {
	return &PasswordResetHandler{PasswordResetService: resetService}
}

// InitiatePasswordReset answers 202 whether or not the account exists.
func (h *PasswordResetHandler) InitiatePasswordReset(c echo.Context) error {
	req := new(models.InitiatePasswordResetRequest)
	if err := c.Bind(req); err != nil || req.AuthID == "" {
		return middleware.NewError(http.StatusBadRequest, "authId is required", models.CodeBadRequest)
	}

	if err := h.PasswordResetService.InitiatePasswordReset(c.Request().Context(), *req); err != nil {
		log.Error().Err(err).Str("authId", req.AuthID).Msg("[PasswordResetHandler.InitiatePasswordReset] Password reset initiation failed")
		return middleware.NewError(http.StatusInternalServerError, "Password reset initiation failed", models.CodeInternal)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "If the account exists, a password reset token has been sent."})
}

// CompletePasswordReset redeems a reset token for new SRP credentials.
func (h *PasswordResetHandler) CompletePasswordReset(c echo.Context) error {
	req := new(models.CompletePasswordResetRequest)
	if err := c.Bind(req); err != nil {
		return middleware.NewError(http.StatusBadRequest, "Invalid request body", models.CodeBadRequest)
	}
	if req.AuthID == "" || req.Token == "" || req.NewSalt == "" || req.NewVerifier == "" {
		return middleware.NewError(http.StatusBadRequest, "authId, token, newSalt and newVerifier are required", models.CodeBadRequest)
	}

	err := h.PasswordResetService.CompletePasswordReset(c.Request().Context(), *req)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset."})
	case errors.Is(err, service.ErrInvalidResetToken):
		return middleware.NewError(http.StatusBadRequest, "Invalid or expired password reset token", models.CodeInvalidResetToken)
	case errors.Is(err, service.ErrInvalidResetRequest):
		return middleware.NewError(http.StatusBadRequest, err.Error(), models.CodeBadRequest)
	default:
		log.Error().Err(err).Str("authId", req.AuthID).Msg("[PasswordResetHandler.CompletePasswordReset] Password reset failed")
		return middleware.NewError(http.StatusInternalServerError, "Password reset failed", models.CodeInternal)
	}
}
