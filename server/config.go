package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls how the HTTP server binds and behaves.
type Config struct {
	Host                string     `json:"host" yaml:"host"`
	Port                int        `json:"port" yaml:"port"`
	ReadTimeoutSeconds  int        `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int        `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	CORS                CORSConfig `json:"cors" yaml:"cors"`
}

// CORSConfig controls cross-origin access to the query endpoints.
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	AllowedHeaders []string `json:"allowed_headers,omitempty" yaml:"allowed_headers,omitempty"`
	MaxAge         int      `json:"max_age,omitempty" yaml:"max_age,omitempty"`
}

// DefaultConfig serves on localhost:8080 and allows any origin.
func DefaultConfig() Config {
	return Config{
		Host:                "127.0.0.1",
		Port:                8080,
		ReadTimeoutSeconds:  15,
		WriteTimeoutSeconds: 15,
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		},
	}
}

// LoadConfig reads a YAML config file. Unset fields keep their DefaultConfig
// values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration. Unset fields keep their
// DefaultConfig values.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d is out of range", cfg.Port)
	}
	return cfg, nil
}

// Addr returns the host:port the server binds to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) readTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c Config) writeTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}
