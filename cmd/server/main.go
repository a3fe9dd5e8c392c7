package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/timesheet-session/internal/app"
	"github.com/SimpnicServerTeam/timesheet-session/internal/config"
	"github.com/SimpnicServerTeam/timesheet-session/internal/logger"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository/memory"
	redis_repo "github.com/SimpnicServerTeam/timesheet-session/internal/repository/redis"
	sqlite_repo "github.com/SimpnicServerTeam/timesheet-session/internal/repository/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv)

	repos := app.Repositories{
		States: memory.NewMemoryStateRepository(),
	}

	switch cfg.SessionStore {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisSettings.Address,
			Password: cfg.RedisSettings.Password,
			DB:       cfg.RedisSettings.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("address", cfg.RedisSettings.Address).Msg("Failed to connect to redis")
		}
		repos.Sessions = redis_repo.NewRedisSessionRepository(redisClient)
		repos.RefreshTokens = redis_repo.NewRedisRefreshTokenRepository(redisClient)
		repos.PasswordResets = redis_repo.NewRedisPasswordResetTokenRepository(redisClient)
	default:
		sessions := memory.NewMemorySessionRepository(cfg.Session.CleanupInterval)
		defer sessions.StopCleanup()
		repos.Sessions = sessions
		repos.RefreshTokens = memory.NewMemoryRefreshTokenRepository()
		repos.PasswordResets = memory.NewMemoryPasswordResetTokenRepository()
	}

	var db *sql.DB
	switch cfg.DatabaseDriver {
	case "sqlite3":
		db, err = sqlite_repo.Open(context.Background(), cfg.DatabaseSettings)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open user database")
		}
		defer db.Close()
		repos.Users = sqlite_repo.NewSQLiteUserRepository(db)
	default:
		repos.Users = memory.NewMemoryUserRepository()
	}

	e, _ := app.New(cfg, repos)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("sessionStore", cfg.SessionStore).
			Str("databaseDriver", cfg.DatabaseDriver).
			Msg("Server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server stopped gracefully.")
}
