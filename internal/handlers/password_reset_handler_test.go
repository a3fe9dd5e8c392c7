package handlers_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/SimpnicServerTeam/timesheet-session/internal/handlers"
	"github.com/SimpnicServerTeam/timesheet-session/internal/mocks"
	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/service"
)

func setupPasswordResetTestApp(mockResetService *mocks.MockPasswordResetService) *echo.Echo {
	e := echo.New()
	h := handlers.NewPasswordResetHandler(mockResetService)
	e.POST("/api/auth/password/request", h.InitiatePasswordReset)
	e.POST("/api/auth/password/reset", h.CompletePasswordReset)
	return e
}

func TestPasswordResetHandler_InitiatePasswordReset(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		mockResetService := new(mocks.MockPasswordResetService)
		app := setupPasswordResetTestApp(mockResetService)
		req := models.InitiatePasswordResetRequest{AuthID: "alice@example.com"}
		mockResetService.On("InitiatePasswordReset", req).Return(nil).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/password/request", req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		mockResetService.AssertExpectations(t)
	})

	t.Run("MissingAuthID", func(t *testing.T) {
		mockResetService := new(mocks.MockPasswordResetService)
		app := setupPasswordResetTestApp(mockResetService)

		rec := performRequest(app, http.MethodPost, "/api/auth/password/request", models.InitiatePasswordResetRequest{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockResetService.AssertNotCalled(t, "InitiatePasswordReset", mock.Anything)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockResetService := new(mocks.MockPasswordResetService)
		app := setupPasswordResetTestApp(mockResetService)
		mockResetService.On("InitiatePasswordReset", mock.Anything).Return(errors.New("redis down")).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/password/request", models.InitiatePasswordResetRequest{AuthID: "alice@example.com"})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, models.CodeInternal, decodeErrorResponse(t, rec).Code)
	})
}

func TestPasswordResetHandler_CompletePasswordReset(t *testing.T) {
	valid := models.CompletePasswordResetRequest{
		AuthID:      "alice@example.com",
		Token:       "pr_abc",
		NewSalt:     "0a0b",
		NewVerifier: "0c0d",
	}

	t.Run("Success", func(t *testing.T) {
		mockResetService := new(mocks.MockPasswordResetService)
		app := setupPasswordResetTestApp(mockResetService)
		mockResetService.On("CompletePasswordReset", valid).Return(nil).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/password/reset", valid)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockResetService.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		mockResetService := new(mocks.MockPasswordResetService)
		app := setupPasswordResetTestApp(mockResetService)
		req := valid
		req.Token = ""

		rec := performRequest(app, http.MethodPost, "/api/auth/password/reset", req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockResetService.AssertNotCalled(t, "CompletePasswordReset", mock.Anything)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		mockResetService := new(mocks.MockPasswordResetService)
		app := setupPasswordResetTestApp(mockResetService)
		mockResetService.On("CompletePasswordReset", valid).Return(service.ErrInvalidResetToken).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/password/reset", valid)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, models.CodeInvalidResetToken, decodeErrorResponse(t, rec).Code)
	})

	t.Run("MalformedCredentials", func(t *testing.T) {
		mockResetService := new(mocks.MockPasswordResetService)
		app := setupPasswordResetTestApp(mockResetService)
		mockResetService.On("CompletePasswordReset", valid).Return(fmt.Errorf("%w: invalid salt", service.ErrInvalidResetRequest)).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/password/reset", valid)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, models.CodeBadRequest, decodeErrorResponse(t, rec).Code)
	})
}
