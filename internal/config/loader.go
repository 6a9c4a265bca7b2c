package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"stroke-risk-api/internal/encoder"
)

var defaults = map[string]any{
	"server.port":            5000,
	"server.read_timeout":    "15s",
	"server.write_timeout":   "15s",
	"server.max_body_bytes":  1 << 20,
	"server.allowed_origins": []string{},
	"model.path":             "decision_tree_model.json",
	"dataset.path":           "brain_stroke.csv",
	"encoder.unknown_policy": string(encoder.PolicyZero),
	"log.level":              "info",
	"log.format":             "text",
}

// Load reads .env, an optional config.yaml from . or ./configs, and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	return load(viper.New(), []string{".env"}, ".", "./configs")
}

func load(v *viper.Viper, envFiles []string, configPaths ...string) (*Config, error) {
	loadEnvFiles(envFiles)

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Debug("loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.AllowedOrigins = cleanList(cfg.Server.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFiles(paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logrus.WithError(err).WithField("file", path).Warn("load env file")
			continue
		}
		logrus.WithField("file", path).Debug("loaded env file")
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate checks ranges and required values, normalizing the unknown
// category policy.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	if strings.TrimSpace(c.Model.Path) == "" {
		return errors.New("model.path is required")
	}
	if strings.TrimSpace(c.Dataset.Path) == "" {
		return errors.New("dataset.path is required")
	}
	policy, err := encoder.ParsePolicy(string(c.Encoder.UnknownPolicy))
	if err != nil {
		return err
	}
	c.Encoder.UnknownPolicy = policy
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}
