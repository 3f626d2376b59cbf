// Package config loads service settings from a YAML file, an optional .env
// file and the environment, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"domain-parser/internal/parser"
)

// Config holds the service settings.
type Config struct {
	Port           string         `yaml:"port"`
	DBPath         string         `yaml:"db_path"`
	LogLevel       string         `yaml:"log_level"`
	LogFormat      string         `yaml:"log_format"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	RecordLookups  bool           `yaml:"record_lookups"`
	Metrics        bool           `yaml:"metrics"`
	Defaults       parser.Options `yaml:"defaults"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:          "2000",
		DBPath:        "data/domain-parser.db",
		LogLevel:      "info",
		LogFormat:     "text",
		RecordLookups: true,
		Metrics:       true,
		Defaults:      parser.DefaultOptions(),
	}
}

// Load reads the YAML file at path (skipped when path is empty), then the
// .env file at envPath if it exists, then applies environment overrides.
func Load(path, envPath string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(b, &cfg); err != nil {
			return Config{}, err
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML settings on top of cfg.
func Parse(b []byte, cfg *Config) error {
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("DOMAIN_PARSER_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("DOMAIN_PARSER_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("DOMAIN_PARSER_LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv("DOMAIN_PARSER_ALLOWED_ORIGINS")); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.AllowedOrigins = origins
	}
	if v := strings.TrimSpace(os.Getenv("DOMAIN_PARSER_RECORD_LOOKUPS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DOMAIN_PARSER_RECORD_LOOKUPS=%q: %w", v, err)
		}
		cfg.RecordLookups = b
	}
	if v := strings.TrimSpace(os.Getenv("DOMAIN_PARSER_METRICS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DOMAIN_PARSER_METRICS=%q: %w", v, err)
		}
		cfg.Metrics = b
	}
	return nil
}

// Validate checks the settings for obvious mistakes.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path must not be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q, must be text or json", c.LogFormat)
	}
	return nil
}

// ConfigureLogging applies the log level and format to the standard logrus logger.
func (c Config) ConfigureLogging() {
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
