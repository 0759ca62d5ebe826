package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvClientID     = "TIDALX_CLIENT_ID"
	EnvClientSecret = "TIDALX_CLIENT_SECRET"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Tidal   TidalConfig   `toml:"tidal"`
	Auth    AuthConfig    `toml:"auth"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// TidalConfig contains API credentials and catalog preferences.
type TidalConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	CountryCode  string  `toml:"country_code"`
	Quality      string  `toml:"quality"`
	APIURL       string  `toml:"api_url"`
	AuthURL      string  `toml:"auth_url"`
	PageSize     int     `toml:"page_size"`
	RateLimit    float64 `toml:"rate_limit"` // requests per second
}

// AuthConfig tunes device authorization polling.
type AuthConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxAttempts         int `toml:"max_attempts"`
}

// PollInterval returns the configured polling interval as a [time.Duration].
func (a AuthConfig) PollInterval() time.Duration {
	return time.Duration(a.PollIntervalSeconds) * time.Second
}

// StorageConfig selects the key-value backend holding the session record.
type StorageConfig struct {
	Driver    string `toml:"driver"` // sqlite or bolt
	Path      string `toml:"path"`
	Namespace string `toml:"namespace"`
}

// LoggingConfig contains log level and optional log file.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
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

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides client credentials with [EnvClientID] and [EnvClientSecret] when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvClientID); v != "" {
		c.Tidal.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		c.Tidal.ClientSecret = v
	}
}

// Validate checks the fields the device flow and storage layer cannot work without.
func (c *Config) Validate() error {
	if c.Tidal.ClientID == "" {
		return fmt.Errorf("%w: tidal.client_id", ErrMissingCredentials)
	}

	switch c.Tidal.Quality {
	case "LOW", "HIGH", "LOSSLESS":
	default:
		return fmt.Errorf("%w: tidal.quality %q", ErrInvalidConfig, c.Tidal.Quality)
	}

	switch c.Storage.Driver {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("%w: storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Auth.PollIntervalSeconds <= 0 || c.Auth.MaxAttempts <= 0 {
		return fmt.Errorf("%w: auth polling must be positive", ErrInvalidConfig)
	}
	return nil
}
