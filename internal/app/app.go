// Package app assembles repositories, services and routes into an echo server.
package app

import (
	"github.com/labstack/echo/v4"

	"github.com/SimpnicServerTeam/timesheet-session/internal/config"
	"github.com/SimpnicServerTeam/timesheet-session/internal/handlers"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
	"github.com/SimpnicServerTeam/timesheet-session/internal/router"
	"github.com/SimpnicServerTeam/timesheet-session/internal/server"
	"github.com/SimpnicServerTeam/timesheet-session/internal/service"
)

type Repositories struct {
	Sessions       repository.SessionRepository
	Users          repository.UserRepository
	States         repository.StateRepository
	RefreshTokens  repository.RefreshTokenRepository
	PasswordResets repository.PasswordResetTokenRepository
	// ResetSender delivers password reset tokens. Nil writes them to the log.
	ResetSender service.ResetTokenSender
}

// Services are exposed so callers can reach them outside HTTP, e.g. in tests.
type Services struct {
	JWT           *service.JWTService
	Tokens        *service.TokenService
	Sessions      *service.SessionService
	SRPAuth       *service.SRPAuthService
	PasswordReset *service.PasswordResetService
}

func NewServices(cfg *config.Config, repos Repositories) Services {
	jwtService := service.NewJWTService(cfg.JWTSecret, cfg.Token.Issuer, cfg.Token.AccessTokenDuration, cfg.Token.CurrentVersion)
	tokenService := service.NewTokenService(jwtService, repos.RefreshTokens, cfg.Token.RefreshTokenDuration)
	var sender service.ResetTokenSender = service.LogResetTokenSender{}
	if repos.ResetSender != nil {
		sender = repos.ResetSender
	}
	resetService := service.NewPasswordResetService(repos.Users, repos.PasswordResets, repos.RefreshTokens,
		repos.Sessions, sender, cfg.SRP.ResetTokenExpiry)
	return Services{
		JWT:           jwtService,
		Tokens:        tokenService,
		Sessions:      service.NewSessionService(repos.Sessions, cfg.Session),
		SRPAuth:       service.NewSRPAuthService(repos.Users, repos.States, tokenService, cfg.SRP),
		PasswordReset: resetService,
	}
}

// New returns the configured echo instance with every route registered.
func New(cfg *config.Config, repos Repositories) (*echo.Echo, Services) {
	services := NewServices(cfg, repos)

	e := server.New()
	router.SetupSRPRoutes(e, handlers.NewSRPAuthHandler(services.SRPAuth))
	router.SetupTokenRoutes(e, handlers.NewTokenHandler(services.Tokens))
	router.SetupPasswordResetRoutes(e, handlers.NewPasswordResetHandler(services.PasswordReset))
	router.SetupSessionRoutes(e, handlers.NewSessionHandler(services.Sessions), router.SessionRouteConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		MinVersion:     cfg.Token.MinVersion,
		SessionService: services.Sessions,
	})
	return e, services
}
