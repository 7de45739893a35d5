package config

import (
	"fmt"
	"strings"
)

// validSSLModes are the libpq sslmode values we accept.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model_name is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder_model is empty", ErrInvalidEmbedderModel)
	}
	if c.TopK < 1 || c.TopK > 10 {
		return fmt.Errorf("%w: %d not in [1, 10]", ErrInvalidTopK, c.TopK)
	}
	if strings.TrimSpace(c.DataFile) == "" {
		return fmt.Errorf("%w: data_file is empty", ErrInvalidDataFile)
	}
	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: postgres_host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d not in [1, 65535]", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: postgres_db_name is empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}
	return nil
}
