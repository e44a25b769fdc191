package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Store     StoreConfig     `mapstructure:"store"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RemoteConfig selects and configures the remote catalog source
type RemoteConfig struct {
	Type    string        `mapstructure:"type"` // "rest" or "postgres"
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Table   string        `mapstructure:"table"`
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects the local snapshot store
type StoreConfig struct {
	Type string `mapstructure:"type"` // "memory", "file" or "sqlite"
	Path string `mapstructure:"path"`
	Key  string `mapstructure:"key"`
}

// SyncConfig holds catalog sync configuration
type SyncConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// SessionConfig holds cart session configuration
type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"` // requests per minute per client
	Remote int `mapstructure:"remote"` // requests per minute to the remote source
}

// MetricsConfig toggles the /metrics endpoint
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	// .env is optional; real environment variables win over its values
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment variables from .env")
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/grocerycalc/")

	// Environment variable settings
	v.SetEnvPrefix("GROCERYCALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("remote.type", "rest")
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.api_key", "")
	v.SetDefault("remote.table", "products")
	v.SetDefault("remote.dsn", "")
	v.SetDefault("remote.timeout", "15s")

	v.SetDefault("store.type", "file")
	v.SetDefault("store.path", "./data")
	v.SetDefault("store.key", "products")

	v.SetDefault("sync.fetch_timeout", "10s")

	v.SetDefault("session.idle_ttl", "12h")
	v.SetDefault("session.sweep_interval", "10m")

	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.remote", 300)

	v.SetDefault("metrics.enabled", true)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Remote.Type {
	case "rest":
		if config.Remote.BaseURL == "" {
			return fmt.Errorf("remote base URL is required (set GROCERYCALC_REMOTE_BASE_URL)")
		}
		if config.Remote.APIKey == "" {
			return fmt.Errorf("remote API key is required (set GROCERYCALC_REMOTE_API_KEY)")
		}
	case "postgres":
		if config.Remote.DSN == "" {
			return fmt.Errorf("remote DSN is required when remote type is 'postgres'")
		}
	default:
		return fmt.Errorf("remote type must be 'rest' or 'postgres', got: %s", config.Remote.Type)
	}

	switch config.Store.Type {
	case "memory":
	case "file", "sqlite":
		if config.Store.Path == "" {
			return fmt.Errorf("store path is required when store type is '%s'", config.Store.Type)
		}
	default:
		return fmt.Errorf("store type must be 'memory', 'file' or 'sqlite', got: %s", config.Store.Type)
	}

	if config.Sync.FetchTimeout <= 0 {
		return fmt.Errorf("sync fetch timeout must be positive, got: %s", config.Sync.FetchTimeout)
	}

	return nil
}
