// Package config loads client and server configuration.
//
// The client reads a TOML file, then an optional .env file, then POSSYNC_*
// environment variables; later sources override earlier ones. The server is
// configured from POSSYNC_SERVER_* variables only.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/iudanet/possync/internal/logging"
)

const (
	// EnvPrefix префикс переменных окружения клиента
	EnvPrefix = "POSSYNC"
	// DefaultConfigFile путь к файлу конфигурации по умолчанию
	DefaultConfigFile = "possync.toml"
)

// ClientConfig is the configuration of the client binary and daemon
type ClientConfig struct {
	ServerURL            string              `toml:"server_url" envconfig:"SERVER_URL"`
	DBPath               string              `toml:"db_path" envconfig:"DB_PATH"`
	AccessToken          string              `toml:"access_token" envconfig:"ACCESS_TOKEN"`
	LogLevel             string              `toml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat            string              `toml:"log_format" envconfig:"LOG_FORMAT"`
	EncryptionPassphrase string              `toml:"encryption_passphrase" envconfig:"ENCRYPTION_PASSPHRASE"`
	Observability        ObservabilityConfig `toml:"observability" envconfig:"OBSERVABILITY"`
	Sync                 SyncConfig          `toml:"sync" envconfig:"SYNC"`
	Checkout             CheckoutConfig      `toml:"checkout" envconfig:"CHECKOUT"`
	Connection           ConnectionConfig    `toml:"connection" envconfig:"CONNECTION"`
	Idempotency          IdempotencyConfig   `toml:"idempotency" envconfig:"IDEMPOTENCY"`
}

// SyncConfig настройки фоновой выгрузки очереди
type SyncConfig struct {
	Interval    Duration `toml:"interval" envconfig:"INTERVAL"`
	BaseDelay   Duration `toml:"base_delay" envconfig:"BASE_DELAY"`
	MaxDelay    Duration `toml:"max_delay" envconfig:"MAX_DELAY"`
	MaxAttempts int      `toml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	MaxRetries  int      `toml:"max_retries" envconfig:"MAX_RETRIES"`
}

// CheckoutConfig настройки повторов интерактивных операций
type CheckoutConfig struct {
	BaseDelay  Duration `toml:"base_delay" envconfig:"BASE_DELAY"`
	MaxRetries int      `toml:"max_retries" envconfig:"MAX_RETRIES"`
}

// ConnectionConfig настройки проверки доступности сервера
type ConnectionConfig struct {
	ProbeInterval Duration `toml:"probe_interval" envconfig:"PROBE_INTERVAL"`
	ProbeTimeout  Duration `toml:"probe_timeout" envconfig:"PROBE_TIMEOUT"`
}

// ObservabilityConfig настройки журнала и диагностического HTTP
type ObservabilityConfig struct {
	ListenAddr  string `toml:"listen_addr" envconfig:"LISTEN_ADDR"`
	LogCapacity int    `toml:"log_capacity" envconfig:"LOG_CAPACITY"`
}

// IdempotencyConfig настройки хранения отметок о транзакциях
type IdempotencyConfig struct {
	Retention Duration `toml:"retention" envconfig:"RETENTION"`
}

// DefaultClient returns the built-in client defaults
func DefaultClient() *ClientConfig {
	return &ClientConfig{
		ServerURL: "http://localhost:8080",
		DBPath:    "possync.db",
		LogLevel:  "info",
		LogFormat: "text",
		Sync: SyncConfig{
			Interval:    Duration(30 * time.Second),
			MaxAttempts: 5,
			MaxRetries:  1,
			BaseDelay:   Duration(500 * time.Millisecond),
			MaxDelay:    Duration(10 * time.Second),
		},
		Checkout: CheckoutConfig{
			MaxRetries: 2,
			BaseDelay:  Duration(time.Second),
		},
		Connection: ConnectionConfig{
			ProbeInterval: Duration(30 * time.Second),
			ProbeTimeout:  Duration(5 * time.Second),
		},
		Observability: ObservabilityConfig{
			LogCapacity: 100,
			ListenAddr:  "127.0.0.1:9464",
		},
		Idempotency: IdempotencyConfig{
			Retention: Duration(24 * time.Hour),
		},
	}
}

// LoadClient reads path (missing file means defaults), then envFile, then the environment.
// Empty envFile means ".env" in the working directory.
func LoadClient(path, envFile string) (*ClientConfig, error) {
	cfg := DefaultClient()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// файла нет, остаются значения по умолчанию
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url must be an absolute http(s) URL, got %q", c.ServerURL)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Sync.MaxAttempts < 0 || c.Sync.MaxRetries < 0 || c.Checkout.MaxRetries < 0 {
		return errors.New("retry counts must not be negative")
	}
	if c.Sync.Interval.Std() <= 0 || c.Connection.ProbeInterval.Std() <= 0 {
		return errors.New("sync.interval and connection.probe_interval must be positive")
	}
	if c.Observability.LogCapacity <= 0 {
		return errors.New("observability.log_capacity must be positive")
	}
	return nil
}

// Save writes the configuration as TOML
func (c *ClientConfig) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// в файле может быть токен и парольная фраза
	return os.WriteFile(path, data, 0o600)
}

func loadEnvFile(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return nil
}
