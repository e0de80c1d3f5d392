// Package config loads service and client settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable names.
const (
	EnvBaseURL         = "MEDDETECT_URL"
	EnvAPIKey          = "MEDDETECT_API_KEY"
	EnvHTTPAddr        = "MEDDETECT_HTTP_ADDR"
	EnvGRPCAddr        = "MEDDETECT_GRPC_ADDR"
	EnvDatabaseDSN     = "DATABASE_DSN"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvLogLevel        = "MEDDETECT_LOG_LEVEL"
	EnvShutdownTimeout = "MEDDETECT_SHUTDOWN_TIMEOUT"
	EnvContactReset    = "MEDDETECT_CONTACT_RESET"
)

var (
	ErrMissingBaseURL = errors.New("base service URL is not configured")
	ErrMissingAPIKey  = errors.New("access credential is not configured")
)

// Config is the root configuration.
type Config struct {
	Client ClientConfig
	Server ServerConfig
	Log    LogConfig
}

// ClientConfig holds what the upload and contact clients need to reach the service.
type ClientConfig struct {
	BaseURL      string
	APIKey       string
	ContactReset time.Duration
}

// ServerConfig holds the serving side settings.
type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	DatabaseDSN     string
	RedisAddr       string
	ShutdownTimeout time.Duration
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(NewViper())
}

// NewViper returns a viper instance bound to the environment with defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvBaseURL, "http://localhost:8080")
	v.SetDefault(EnvAPIKey, "")
	v.SetDefault(EnvHTTPAddr, ":8080")
	v.SetDefault(EnvGRPCAddr, ":9090")
	v.SetDefault(EnvDatabaseDSN, "host=localhost user=postgres password=postgres dbname=meddetect port=5432 sslmode=disable")
	v.SetDefault(EnvRedisAddr, "")
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvShutdownTimeout, "15s")
	v.SetDefault(EnvContactReset, "5s")

	return v
}

// FromViper builds a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	shutdown, err := parseDuration(v, EnvShutdownTimeout)
	if err != nil {
		return nil, err
	}
	reset, err := parseDuration(v, EnvContactReset)
	if err != nil {
		return nil, err
	}

	return &Config{
		Client: ClientConfig{
			BaseURL:      strings.TrimRight(strings.TrimSpace(v.GetString(EnvBaseURL)), "/"),
			APIKey:       strings.TrimSpace(v.GetString(EnvAPIKey)),
			ContactReset: reset,
		},
		Server: ServerConfig{
			HTTPAddr:        v.GetString(EnvHTTPAddr),
			GRPCAddr:        v.GetString(EnvGRPCAddr),
			DatabaseDSN:     v.GetString(EnvDatabaseDSN),
			RedisAddr:       strings.TrimSpace(v.GetString(EnvRedisAddr)),
			ShutdownTimeout: shutdown,
		},
		Log: LogConfig{Level: v.GetString(EnvLogLevel)},
	}, nil
}

// Validate reports whether the client settings can build requests.
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: invalid base URL %q", EnvBaseURL, c.BaseURL)
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", key, raw)
	}
	return d, nil
}
