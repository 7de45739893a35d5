// Package config provides application configuration with multi-source
// priority.
//
// Sources, highest to lowest:
//  1. Environment variables (GEMINI_API_KEY, DATABASE_URL, CASEGEN_DATA_FILE)
//  2. Config file (~/.casegen/config.yaml or ./config.yaml)
//  3. Defaults
//
// Sentinel errors support errors.Is() checks; wrap with
// fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the model API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTopK indicates top_k is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidDataFile indicates the data file path is empty.
	ErrInvalidDataFile = errors.New("invalid data file path")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates an unsupported SSL mode.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

const (
	// DefaultModelName is the generation model used when none is set.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel outputs 3072 dimensions by default but supports
	// truncation to 768; the documents schema uses vector(768).
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultDataFile is the test-case store location.
	DefaultDataFile = "test_cases.json"

	// DefaultTopK is the retrieval result count.
	DefaultTopK = 5
)

// Config stores application configuration.
type Config struct {
	// Model configuration
	ModelName     string `mapstructure:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model"`

	// Retrieval configuration
	TopK int `mapstructure:"top_k"`

	// Test-case store
	DataFile string `mapstructure:"data_file"`

	// PostgreSQL (vector index)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration from file, environment and defaults, validates
// it and fails fast on any problem.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".casegen")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("data_file", DefaultDataFile)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "casegen")
	v.SetDefault("postgres_password", "casegen_dev_password")
	v.SetDefault("postgres_db_name", "casegen")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds the few explicit environment overrides.
func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("data_file", "CASEGEN_DATA_FILE")
	_ = v.BindEnv("model_name", "CASEGEN_MODEL")
	_ = v.BindEnv("log_level", "CASEGEN_LOG_LEVEL")
}

// APIKey returns the Gemini API key from the environment. The key is
// intentionally not part of the config file.
func (c *Config) APIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}
