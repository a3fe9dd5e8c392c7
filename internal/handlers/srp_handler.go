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

// SRPAuthHandler handles authentication-related HTTP requests
type SRPAuthHandler struct {
	SRPAuthService service.SRPAuthGenerator
}

// NewSRPAuthHandler creates a new SRPAuthHandler
func NewSRPAuthHandler(authService service.SRPAuthGenerator) *SRPAuthHandler {
	return &SRPAuthHandler{SRPAuthService: authService}
}

// Register handles user registration requests
func (h *SRPAuthHandler) Register(c echo.Context) error {
	req := new(models.SRPRegisterRequest)
	if err := c.Bind(req); err != nil {
		return middleware.NewError(http.StatusBadRequest, "Invalid request body", models.CodeBadRequest)
	}
	if req.AuthID == "" || req.Salt == "" || req.Verifier == "" {
		return middleware.NewError(http.StatusBadRequest, "authId, salt and verifier are required", models.CodeBadRequest)
	}

	userID, err := h.SRPAuthService.Register(c.Request().Context(), *req)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return middleware.NewError(http.StatusConflict, "Username already exists", "")
		}
		log.Error().Err(err).Str("authId", req.AuthID).Msg("Registration failed")
		return middleware.NewError(http.StatusInternalServerError, "Registration failed", models.CodeInternal)
	}
	return c.JSON(http.StatusCreated, echo.Map{"userId": userID})
}

// AuthStep1 handles the first step of the SRP authentication flow (user sends authID, server sends back salt and B)
func (h *SRPAuthHandler) AuthStep1(c echo.Context) error {
	req := new(models.AuthStep1Request)
	if err := c.Bind(req); err != nil {
		return middleware.NewError(http.StatusBadRequest, "Invalid request body", models.CodeBadRequest)
	}

	resp, err := h.SRPAuthService.ComputeB(c.Request().Context(), *req)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return middleware.NewError(http.StatusUnauthorized, "Invalid client credentials", "")
		}
		log.Error().Err(err).Str("authId", req.AuthID).Msg("Authentication initiation failed")
		return middleware.NewError(http.StatusInternalServerError, "Authentication initiation failed", models.CodeInternal)
	}

	return c.JSON(http.StatusOK, resp)
}

// AuthStep2 handles the verification of the client's proof M1
func (h *SRPAuthHandler) AuthStep2(c echo.Context) error {
	req := new(models.AuthStep2Request)
	if err := c.Bind(req); err != nil {
		return middleware.NewError(http.StatusBadRequest, "Invalid request body", models.CodeBadRequest)
	}

	resp, err := h.SRPAuthService.VerifyClientProof(c.Request().Context(), *req)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			return middleware.NewError(http.StatusUnauthorized, "Authentication session expired or invalid", "")
		}
		if errors.Is(err, service.ErrInvalidClientProof) {
			return middleware.NewError(http.StatusUnauthorized, "Invalid client credentials", "")
		}
		log.Error().Err(err).Str("authId", req.AuthID).Msg("Authentication verification failed")
		return middleware.NewError(http.StatusInternalServerError, "Authentication verification failed", models.CodeInternal)
	}

	// Authentication successful! Return M2 and tokens
	return c.JSON(http.StatusOK, resp)
}
