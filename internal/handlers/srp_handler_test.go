package handlers_test

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SimpnicServerTeam/timesheet-session/internal/handlers"
	"github.com/SimpnicServerTeam/timesheet-session/internal/mocks"
	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
	"github.com/SimpnicServerTeam/timesheet-session/internal/service"
)

func setupSRPTestApp(mockAuthService *mocks.MockSRPAuthService) *echo.Echo {
	e := echo.New()
	authHandler := handlers.NewSRPAuthHandler(mockAuthService)
	api := e.Group("/api/auth/srp")
	api.POST("/sign-up", authHandler.Register)
	api.POST("/login/email", authHandler.AuthStep1)
	api.POST("/login/proof", authHandler.AuthStep2)
	return e
}

func performRequest(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		jsonData, _ := json.Marshal(body)
		buf.Write(jsonData)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_Register(t *testing.T) {
	registerReq := models.SRPRegisterRequest{
		AuthID:      "auth1@example.com",
		DisplayName: "newuser",
		Salt:        "0a1b2c",
		Verifier:    "3d4e5f",
	}

	t.Run("Success", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		mockAuthService.On("Register", registerReq).Return(testUserID, nil).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/srp/sign-up", registerReq)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, testUserID, resp["userId"])
		mockAuthService.AssertExpectations(t)
	})

	t.Run("BadRequestInvalidJSON", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/srp/sign-up", bytes.NewBufferString("{invalid json"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockAuthService.AssertNotCalled(t, "Register", mock.Anything)
	})

	t.Run("BadRequestMissingVerifier", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		rec := performRequest(app, http.MethodPost, "/api/auth/srp/sign-up", models.SRPRegisterRequest{AuthID: "a@example.com", Salt: "00"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockAuthService.AssertNotCalled(t, "Register", mock.Anything)
	})

	t.Run("ConflictUserExists", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		serviceErr := fmt.Errorf("service layer message: %w", repository.ErrUserExists)
		mockAuthService.On("Register", registerReq).Return("", serviceErr).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/srp/sign-up", registerReq)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Username already exists", decodeErrorResponse(t, rec).Message)
		mockAuthService.AssertExpectations(t)
	})

	t.Run("InternalServerError", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		mockAuthService.On("Register", registerReq).Return("", errors.New("some internal service error")).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/srp/sign-up", registerReq)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Registration failed", decodeErrorResponse(t, rec).Message)
		mockAuthService.AssertExpectations(t)
	})
}

func TestAuthHandler_AuthStep1(t *testing.T) {
	step1Req := models.AuthStep1Request{AuthID: "auth1@example.com"}

	t.Run("Success", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		expectedResp := &models.AuthStep1Response{Salt: "abcd", ServerB: "ef01"}
		mockAuthService.On("ComputeB", step1Req).Return(expectedResp, nil).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/srp/login/email", step1Req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var actualResp models.AuthStep1Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &actualResp))
		assert.Equal(t, *expectedResp, actualResp)
		mockAuthService.AssertExpectations(t)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		mockAuthService.On("ComputeB", step1Req).Return(nil, repository.ErrUserNotFound).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/srp/login/email", step1Req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid client credentials", decodeErrorResponse(t, rec).Message)
	})

	t.Run("InternalServerError", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		mockAuthService.On("ComputeB", step1Req).Return(nil, errors.New("boom")).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/srp/login/email", step1Req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAuthHandler_AuthStep2(t *testing.T) {
	step2Req := models.AuthStep2Request{AuthID: "auth1@example.com", ClientA: "aa", ClientProofM1: "bb"}

	t.Run("Success", func(t *testing.T) {
		mockAuthService := new(mocks.MockSRPAuthService)
		app := setupSRPTestApp(mockAuthService)

		expectedResp := &models.AuthStep3Response{
			ServerProofM2: "cc",
			Tokens:        models.TokenResponse{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", UserID: testUserID},
		}
		mockAuthService.On("VerifyClientProof", step2Req).Return(expectedResp, nil).Once()

		rec := performRequest(app, http.MethodPost, "/api/auth/srp/login/proof", step2Req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var actualResp models.AuthStep3Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &actualResp))
		assert.Equal(t, "cc", actualResp.ServerProofM2)
		assert.Equal(t, "at", actualResp.Tokens.AccessToken)
		mockAuthService.AssertExpectations(t)
	})

	testCases := []struct {
		name           string
		serviceErr     error
		expectedStatus int
		expectedMsg    string
	}{
		{"StateExpired", repository.ErrStateNotFound, http.StatusUnauthorized, "Authentication session expired or invalid"},
		{"InvalidProof", service.ErrInvalidClientProof, http.StatusUnauthorized, "Invalid client credentials"},
		{"InternalServerError", errors.New("boom"), http.StatusInternalServerError, "Authentication verification failed"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockAuthService := new(mocks.MockSRPAuthService)
			app := setupSRPTestApp(mockAuthService)
			mockAuthService.On("VerifyClientProof", step2Req).Return(nil, tc.serviceErr).Once()

			rec := performRequest(app, http.MethodPost, "/api/auth/srp/login/proof", step2Req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, tc.expectedMsg, decodeErrorResponse(t, rec).Message)
			mockAuthService.AssertExpectations(t)
		})
	}
}
