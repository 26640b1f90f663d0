package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Storage backends understood by [StorageConfig.Backend].
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Password schemes understood by [AuthConfig.PasswordScheme].
const (
	SchemeBcrypt = "bcrypt"
	SchemeSHA256 = "sha256"
)

// Config represents the application configuration loaded from a TOML file.
//
// Values from the file can be overridden with YTLISTS_* environment variables, see [Config.ApplyEnv].
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Session SessionConfig `toml:"session"`
	Auth    AuthConfig    `toml:"auth"`
	Storage StorageConfig `toml:"storage"`
	YouTube YouTubeConfig `toml:"youtube"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `toml:"host" env:"YTLISTS_HOST"`
	Port            int           `toml:"port" env:"YTLISTS_PORT"`
	StaticDir       string        `toml:"static_dir" env:"YTLISTS_STATIC_DIR"`
	AllowedOrigins  []string      `toml:"allowed_origins" env:"YTLISTS_ALLOWED_ORIGINS"`
	Metrics         bool          `toml:"metrics" env:"YTLISTS_METRICS"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"YTLISTS_SHUTDOWN_TIMEOUT"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SessionConfig contains session cookie settings.
type SessionConfig struct {
	CookieName string `toml:"cookie_name" env:"YTLISTS_COOKIE_NAME"`
	Secure     bool   `toml:"secure" env:"YTLISTS_COOKIE_SECURE"`
}

// AuthConfig selects how passwords are hashed.
type AuthConfig struct {
	PasswordScheme string `toml:"password_scheme" env:"YTLISTS_PASSWORD_SCHEME"`
	BcryptCost     int    `toml:"bcrypt_cost" env:"YTLISTS_BCRYPT_COST"`
}

// StorageConfig selects where the user and playlist documents live.
type StorageConfig struct {
	Backend     string `toml:"backend" env:"YTLISTS_STORAGE_BACKEND"`
	DataDir     string `toml:"data_dir" env:"YTLISTS_DATA_DIR"`
	SQLitePath  string `toml:"sqlite_path" env:"YTLISTS_SQLITE_PATH"`
	StrictReads bool   `toml:"strict_reads" env:"YTLISTS_STRICT_READS"`
}

// YouTubeConfig contains settings for the upstream video search API.
type YouTubeConfig struct {
	APIKey            string        `toml:"api_key" env:"YTLISTS_YOUTUBE_API_KEY"`
	BaseURL           string        `toml:"base_url" env:"YTLISTS_YOUTUBE_BASE_URL"`
	RequestsPerSecond float64       `toml:"requests_per_second" env:"YTLISTS_YOUTUBE_RPS"`
	DefaultMaxResults int           `toml:"default_max_results" env:"YTLISTS_YOUTUBE_MAX_RESULTS"`
	Timeout           time.Duration `toml:"timeout" env:"YTLISTS_YOUTUBE_TIMEOUT"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"YTLISTS_LOG_LEVEL"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values with any YTLISTS_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports the first setting that would prevent the server from starting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("%w: storage data_dir is required for the file backend", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: storage sqlite_path is required for the sqlite backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	switch c.Auth.PasswordScheme {
	case SchemeBcrypt, SchemeSHA256:
	default:
		return fmt.Errorf("%w: unknown password scheme %q", ErrInvalidConfig, c.Auth.PasswordScheme)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("%w: session cookie_name is required", ErrInvalidConfig)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
