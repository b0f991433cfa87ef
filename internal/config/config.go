// Package config defines service configuration and its layered loading.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address.
	Addr string `koanf:"addr"`

	// APIKey is the bearer token clients must present.
	APIKey string `koanf:"api_key"`

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `koanf:"database_url"`

	// WeatherAPIKey enables live WeatherAPI fetches; empty runs demo
	// weather.
	WeatherAPIKey string `koanf:"weather_api_key"`

	// WeatherAPIURL overrides the WeatherAPI base URL.
	WeatherAPIURL string `koanf:"weather_api_url"`

	// CacheTTLHours is the forecast result cache lifetime.
	CacheTTLHours int `koanf:"cache_ttl_hours"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Addr:          ":8000",
		CacheTTLHours: 6,
		LogLevel:      "info",
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. defaults (New)
//  2. .env file values promoted into the environment (godotenv)
//  3. file (YAML) if STORECAST_CONFIG is set
//  4. env (prefix STORECAST_)
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("STORECAST_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// STORECAST_API_KEY -> api_key, preserving underscores to match the
	// koanf tags on the struct
	envProvider := env.Provider("STORECAST_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "STORECAST_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.CacheTTLHours <= 0 {
		return nil, errors.New("cache_ttl_hours must be positive")
	}
	return &cfg, nil
}
