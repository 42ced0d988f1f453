package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store types
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRemote = "remote"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig selects where contacts live
type StoreConfig struct {
	Type       string `mapstructure:"type"` // "memory", "sqlite" or "remote"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// BackendConfig holds the contacts REST backend configuration (store.type=remote)
type BackendConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIToken          string        `mapstructure:"api_token"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// MatchingConfig holds duplicate detection settings
type MatchingConfig struct {
	Threshold float64       `mapstructure:"threshold"`
	Workers   int           `mapstructure:"workers"`
	Weights   WeightsConfig `mapstructure:"weights"`
	Debug     bool          `mapstructure:"debug"`
}

// WeightsConfig is the per-signal weight table
type WeightsConfig struct {
	Email   float64 `mapstructure:"email"`
	Phone   float64 `mapstructure:"phone"`
	Name    float64 `mapstructure:"name"`
	Company float64 `mapstructure:"company"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/contactmerge/")

	// CONTACTMERGE_MATCHING_THRESHOLD -> matching.threshold
	v.SetEnvPrefix("CONTACTMERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
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

// loadEnvFile loads .env from the working directory; a missing file is not an error.
// Variables already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Store defaults
	v.SetDefault("store.type", StoreMemory)
	v.SetDefault("store.sqlite_path", "")

	// Backend defaults
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.api_token", "")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.requests_per_second", 5)

	// Matching defaults
	v.SetDefault("matching.threshold", 0.7)
	v.SetDefault("matching.workers", 0)
	v.SetDefault("matching.weights.email", 0.4)
	v.SetDefault("matching.weights.phone", 0.3)
	v.SetDefault("matching.weights.name", 0.2)
	v.SetDefault("matching.weights.company", 0.1)
	v.SetDefault("matching.debug", false)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)

	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Store.Type {
	case StoreMemory:
	case StoreSQLite:
		if config.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required when store type is 'sqlite' (set CONTACTMERGE_STORE_SQLITE_PATH)")
		}
	case StoreRemote:
		if config.Backend.BaseURL == "" {
			return fmt.Errorf("backend base URL is required when store type is 'remote' (set CONTACTMERGE_BACKEND_BASE_URL)")
		}
	default:
		return fmt.Errorf("store type must be 'memory', 'sqlite' or 'remote', got: %s", config.Store.Type)
	}

	t := config.Matching.Threshold
	if math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("matching threshold must be within [0,1], got: %v", t)
	}

	if config.Matching.Workers < 0 {
		return fmt.Errorf("matching workers must not be negative, got: %d", config.Matching.Workers)
	}

	w := config.Matching.Weights
	if w.Email < 0 || w.Phone < 0 || w.Name < 0 || w.Company < 0 {
		return fmt.Errorf("matching weights must not be negative")
	}
	if w.Email+w.Phone+w.Name+w.Company == 0 {
		return fmt.Errorf("at least one matching weight must be positive")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got: %s", config.Log.Level)
	}

	return nil
}
