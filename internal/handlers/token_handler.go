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

type TokenHandler struct {
	TokenService service.TokenIssuer
}

func NewTokenHandler(tokenService service.TokenIssuer) *TokenHandler {
	return &TokenHandler{TokenService: tokenService}
}

// Refresh rotates a refresh token into a new token pair.
func (h *TokenHandler) Refresh(c echo.Context) error {
	req := new(models.RefreshTokenRequest)
	if err := c.Bind(req); err != nil || req.RefreshToken == "" {
		return middleware.NewError(http.StatusBadRequest, "refreshToken is required", models.CodeBadRequest)
	}

	resp, err := h.TokenService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			return middleware.NewError(http.StatusUnauthorized, middleware.MsgInvalidToken, models.CodeInvalidToken)
		}
		log.Error().Err(err).Msg("[TokenHandler.Refresh] Failed to refresh token")
		return middleware.NewError(http.StatusInternalServerError, "Failed to refresh token", models.CodeInternal)
	}
	return c.JSON(http.StatusOK, resp)
}

// Revoke signs the owner of the refresh token out everywhere. Unknown tokens are accepted.
func (h *TokenHandler) Revoke(c echo.Context) error {
	req := new(models.RefreshTokenRequest)
	if err := c.Bind(req); err != nil || req.RefreshToken == "" {
		return middleware.NewError(http.StatusBadRequest, "refreshToken is required", models.CodeBadRequest)
	}

	if err := h.TokenService.Revoke(c.Request().Context(), req.RefreshToken); err != nil {
		log.Error().Err(err).Msg("[TokenHandler.Revoke] Failed to revoke token")
		return middleware.NewError(http.StatusInternalServerError, "Failed to revoke token", models.CodeInternal)
	}
	return c.NoContent(http.StatusNoContent)
}
