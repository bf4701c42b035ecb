package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/iudanet/possync/internal/logging"
)

// ServerEnvPrefix префикс переменных окружения сервера
const ServerEnvPrefix = "POSSYNC_SERVER"

// ServerConfig is the configuration of the reference record store
type ServerConfig struct {
	Addr      string        `envconfig:"ADDR" default:":8080"`
	DBPath    string        `envconfig:"DB_PATH" default:"possync-server.db"`
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	LogLevel  string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string        `envconfig:"LOG_FORMAT" default:"text"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
	RateLimit float64       `envconfig:"RATE_LIMIT" default:"20"`
	RateBurst int           `envconfig:"RATE_BURST" default:"40"`
}

// LoadServer reads envFile (".env" when empty, optional) and POSSYNC_SERVER_* variables
func LoadServer(envFile string) (*ServerConfig, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	var cfg ServerConfig
	if err := envconfig.Process(ServerEnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 bytes")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive")
	}
	if cfg.RateLimit <= 0 || cfg.RateBurst <= 0 {
		return nil, fmt.Errorf("rate limit and burst must be positive")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return &cfg, nil
}
