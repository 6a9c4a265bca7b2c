package config

import (
	"fmt"
	"time"

	"stroke-risk-api/internal/encoder"
)

// Config is the service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	Encoder EncoderConfig `mapstructure:"encoder"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	// AllowedOrigins narrows CORS; empty allows every origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the listen address for the configured port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type ModelConfig struct {
	Path string `mapstructure:"path"`
}

type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

type EncoderConfig struct {
	UnknownPolicy encoder.UnknownPolicy `mapstructure:"unknown_policy"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
