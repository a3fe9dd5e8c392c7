package config

import (
	"crypto"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/tadglines/go-pkgs/crypto/srp"
)

const defaultSRPGroup = "rfc5054.4096"

type SRPConfig struct {
	// The set of supported groups are the rfc5054.* and stanford.* groups of
	// 1024 to 8192 bits. Default to rfc5054.4096
	Group string
	// Lifetime of the server state between the two SRP steps
	AuthStateExpiry  time.Duration
	HashingAlgorithm crypto.Hash
	// Lifetime of a password reset token
	ResetTokenExpiry time.Duration
}

type TokenConfig struct {
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	// Access tokens minted below this version are rejected with MIGRATION_REQUIRED.
	MinVersion     int
	CurrentVersion int
	Issuer         string
}

type SessionConfig struct {
	// Absolute lifetime of a session record.
	Lifetime    time.Duration
	IdleTimeout time.Duration
	// Allowed distance between a client supplied loginTime and server time.
	LoginTimeSkew   time.Duration
	SingleSession   bool
	CleanupInterval time.Duration
}

type RedisSettings struct {
	Address  string
	Password string
	DB       int
}

type Config struct {
	// Server port
	Port     string
	AppEnv   string
	LogLevel string

	JWTSecret string
	SRP       SRPConfig
	Token     TokenConfig
	Session   SessionConfig

	// "memory" or "redis"
	SessionStore string
	// "memory" or "sqlite3"
	DatabaseDriver   string
	DatabaseSettings string
	RedisSettings    RedisSettings
}

// ClientConfig configures the session client used by sessionctl.
type ClientConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	StateFile      string
	LogLevel       string
	AppEnv         string
	// Disables the "no status means the session is gone" heuristic.
	StrictStatusCodes bool
	NotifyDuration    time.Duration
	SRP               SRPConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "a_very_secret_key_change_me")
	v.SetDefault("SRP_GROUP_BITS", defaultSRPGroup)
	v.SetDefault("SRP_AUTH_STATE_EXPIRY_SECONDS", 300)
	v.SetDefault("HASHING_ALGORITHM", "SHA512")
	v.SetDefault("PASSWORD_RESET_TOKEN_EXPIRY", "15m")
	v.SetDefault("ACCESS_TOKEN_DURATION", "15m")
	v.SetDefault("REFRESH_TOKEN_DURATION", "720h")
	v.SetDefault("TOKEN_MIN_VERSION", 1)
	v.SetDefault("TOKEN_CURRENT_VERSION", 1)
	v.SetDefault("TOKEN_ISSUER", "timesheet-session")
	v.SetDefault("SESSION_LIFETIME", "24h")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "8h")
	v.SetDefault("SESSION_LOGIN_TIME_SKEW", "5m")
	v.SetDefault("SESSION_SINGLE_SESSION", false)
	v.SetDefault("SESSION_CLEANUP_INTERVAL", "1m")
	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("DATABASE_DRIVER", "memory")
	v.SetDefault("DATABASE_SETTINGS", "file:timesheet.db?_fk=1")

	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("STATE_FILE", ".sessionctl.json")
	v.SetDefault("STRICT_STATUS_CODES", false)
	v.SetDefault("NOTIFY_DURATION", "5s")
}

// New returns a viper instance reading .env files and the environment.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug().Msg("Config file not found, using defaults and environment variables")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	return Load(New())
}

// Load builds the server config from v.
func Load(v *viper.Viper) (*Config, error) {
	if err := readConfig(v); err != nil {
		return nil, err
	}

	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "a_very_secret_key_change_me" {
		log.Warn().Msg("Using default JWT secret. Set JWT_SECRET environment variable or in config file.")
	}

	token := TokenConfig{
		AccessTokenDuration:  v.GetDuration("ACCESS_TOKEN_DURATION"),
		RefreshTokenDuration: v.GetDuration("REFRESH_TOKEN_DURATION"),
		MinVersion:           v.GetInt("TOKEN_MIN_VERSION"),
		CurrentVersion:       v.GetInt("TOKEN_CURRENT_VERSION"),
		Issuer:               v.GetString("TOKEN_ISSUER"),
	}
	if token.CurrentVersion < token.MinVersion {
		return nil, fmt.Errorf("TOKEN_CURRENT_VERSION (%d) must not be below TOKEN_MIN_VERSION (%d)", token.CurrentVersion, token.MinVersion)
	}

	session := SessionConfig{
		Lifetime:        v.GetDuration("SESSION_LIFETIME"),
		IdleTimeout:     v.GetDuration("SESSION_IDLE_TIMEOUT"),
		LoginTimeSkew:   v.GetDuration("SESSION_LOGIN_TIME_SKEW"),
		SingleSession:   v.GetBool("SESSION_SINGLE_SESSION"),
		CleanupInterval: v.GetDuration("SESSION_CLEANUP_INTERVAL"),
	}
	if session.Lifetime <= 0 {
		return nil, fmt.Errorf("SESSION_LIFETIME must be positive")
	}

	return &Config{
		Port:             v.GetString("APP_PORT"),
		AppEnv:           v.GetString("APP_ENV"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		JWTSecret:        jwtSecret,
		SRP:              loadSRP(v),
		Token:            token,
		Session:          session,
		SessionStore:     v.GetString("SESSION_STORE"),
		DatabaseDriver:   v.GetString("DATABASE_DRIVER"),
		DatabaseSettings: v.GetString("DATABASE_SETTINGS"),
		RedisSettings: RedisSettings{
			Address:  v.GetString("REDIS_ADDRESS"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}, nil
}

// LoadClient builds the client config from v. Flags bound into v win over the environment.
func LoadClient(v *viper.Viper) (*ClientConfig, error) {
	if err := readConfig(v); err != nil {
		return nil, err
	}
	baseURL := v.GetString("API_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must be set")
	}
	return &ClientConfig{
		BaseURL:           baseURL,
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
		StateFile:         v.GetString("STATE_FILE"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		AppEnv:            v.GetString("APP_ENV"),
		StrictStatusCodes: v.GetBool("STRICT_STATUS_CODES"),
		NotifyDuration:    v.GetDuration("NOTIFY_DURATION"),
		SRP:               loadSRP(v),
	}, nil
}

func loadSRP(v *viper.Viper) SRPConfig {
	srpGroup := v.GetString("SRP_GROUP_BITS")
	if _, err := srp.GetGroup(srpGroup); err != nil {
		log.Warn().Str("group", srpGroup).Msgf("Invalid SRP group, defaulting to '%s'", defaultSRPGroup)
		srpGroup = defaultSRPGroup
	}

	expirySeconds := v.GetInt("SRP_AUTH_STATE_EXPIRY_SECONDS")
	if expirySeconds <= 0 {
		expirySeconds = 300
	}

	hashingAlgorithmStr := v.GetString("HASHING_ALGORITHM")
	var hashingAlgorithm crypto.Hash
	switch hashingAlgorithmStr {
	case "SHA1":
		hashingAlgorithm = crypto.SHA1
	case "SHA256":
		hashingAlgorithm = crypto.SHA256
	case "SHA512":
		hashingAlgorithm = crypto.SHA512
	default:
		hashingAlgorithm = crypto.SHA512
		log.Warn().Str("algorithm", hashingAlgorithmStr).Msg("Invalid hashing algorithm, defaulting to SHA512")
	}

	resetExpiry := v.GetDuration("PASSWORD_RESET_TOKEN_EXPIRY")
	if resetExpiry <= 0 {
		resetExpiry = 15 * time.Minute
	}

	return SRPConfig{
		Group:            srpGroup,
		AuthStateExpiry:  time.Duration(expirySeconds) * time.Second,
		HashingAlgorithm: hashingAlgorithm,
		ResetTokenExpiry: resetExpiry,
	}
}
