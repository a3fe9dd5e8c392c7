// Command sessionctl is an interactive client for the session API. It signs in over
// SRP, bootstraps a session and reacts to server-side invalidation the same way the
// desktop and mobile clients do.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/SimpnicServerTeam/timesheet-session/internal/config"
	"github.com/SimpnicServerTeam/timesheet-session/internal/logger"
	"github.com/SimpnicServerTeam/timesheet-session/internal/sessionclient"
)

func main() {
	fs := pflag.NewFlagSet("sessionctl", pflag.ExitOnError)
	fs.String("api-base-url", "", "base URL of the session API")
	fs.String("state-file", "", "file holding the cached session id and login time")
	fs.Bool("strict-status-codes", false, "never treat status-less failures as a terminated session")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Duration("request-timeout", 0, "timeout of a single command")
	_ = fs.Parse(os.Args[1:])

	v := config.New()
	for key, flag := range map[string]string{
		"API_BASE_URL":        "api-base-url",
		"STATE_FILE":          "state-file",
		"STRICT_STATUS_CODES": "strict-status-codes",
		"LOG_LEVEL":           "log-level",
		"REQUEST_TIMEOUT":     "request-timeout",
	} {
		f := fs.Lookup(flag)
		if !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			log.Fatal().Err(err).Str("flag", flag).Msg("Failed to bind flag")
		}
	}

	cfg, err := config.LoadClient(v)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.InitWithWriter(cfg.LogLevel, cfg.AppEnv, os.Stderr)

	sh, err := newShell(cfg, &http.Client{Timeout: cfg.RequestTimeout}, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start client")
	}
	if err := sh.run(os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStore(cfg *config.ClientConfig) sessionclient.LocalStore {
	if cfg.StateFile == "" {
		return sessionclient.NewMemoryStore()
	}
	return sessionclient.NewFileStore(cfg.StateFile)
}
