package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT",
		"DOMAIN_PARSER_DB_PATH",
		"DOMAIN_PARSER_LOG_LEVEL",
		"DOMAIN_PARSER_LOG_FORMAT",
		"DOMAIN_PARSER_ALLOWED_ORIGINS",
		"DOMAIN_PARSER_RECORD_LOOKUPS",
		"DOMAIN_PARSER_METRICS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Defaults.AllowPrivate)
	assert.True(t, cfg.Defaults.AllowIP)
	assert.False(t, cfg.Defaults.AllowUnknown)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8080"
log_format: json
allowed_origins:
  - http://localhost:5173
record_lookups: false
defaults:
  allow_unknown: true
  allow_private: false
  extended_suffixes: [corp, lan]
`), 0o644))

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel, "unset keys keep their default")
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.False(t, cfg.RecordLookups)
	assert.True(t, cfg.Defaults.AllowUnknown)
	assert.False(t, cfg.Defaults.AllowPrivate)
	assert.Equal(t, []string{"corp", "lan"}, cfg.Defaults.ExtendedSuffixes)
}

func TestLoadInvalidOptionType(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  allow_unknown: [1]\n"), 0o644))

	_, err := Load(path, "")
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"8080\"\n"), 0o644))

	t.Setenv("PORT", "9090")
	t.Setenv("DOMAIN_PARSER_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("DOMAIN_PARSER_METRICS", "false")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.False(t, cfg.Metrics)
}

func TestEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even empty.
	require.NoError(t, os.Unsetenv("DOMAIN_PARSER_DB_PATH"))
	t.Cleanup(func() { _ = os.Unsetenv("DOMAIN_PARSER_DB_PATH") })

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DOMAIN_PARSER_DB_PATH=/tmp/from-env.db\n"), 0o644))

	cfg, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.DBPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port not numeric", mutate: func(c *Config) { c.Port = "http" }},
		{name: "port out of range", mutate: func(c *Config) { c.Port = "70000" }},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = " " }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestEnvBoolRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOMAIN_PARSER_RECORD_LOOKUPS", "maybe")
	_, err := Load("", "")
	require.Error(t, err)
}
