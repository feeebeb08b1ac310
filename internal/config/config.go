// Package config provides client configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds client configuration values loaded from file or environment
// variables.
type Config struct {
	APIBaseURL     string `mapstructure:"API_BASE_URL"`
	TokenPath      string `mapstructure:"TOKEN_PATH"`
	RequestTimeout int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	TraceExporter  string `mapstructure:"TRACE_EXPORTER"` // "off", "stdout" or "otlp"
	OTLPEndpoint   string `mapstructure:"OTLP_ENDPOINT"`
	LoginRedirect  int    `mapstructure:"LOGIN_REDIRECT_SECONDS"`
	Env            string `mapstructure:"APP_ENV"`
}

// LoadConfig loads configuration from an optional config.yml and the
// environment. Environment variables win.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; env vars and defaults are enough.
	_ = viper.ReadInConfig()

	viper.SetDefault("API_BASE_URL", "http://localhost:8375")
	viper.SetDefault("TOKEN_PATH", "")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("TRACE_EXPORTER", "off")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("LOGIN_REDIRECT_SECONDS", 1)
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.TokenPath == "" {
		path, err := defaultTokenPath()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve token path: %w", err)
		}
		config.TokenPath = path
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures required configuration values are present and coherent.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL %q is not an absolute URL", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	switch c.TraceExporter {
	case "off", "stdout", "otlp":
	default:
		return fmt.Errorf("TRACE_EXPORTER %q must be one of off, stdout, otlp", c.TraceExporter)
	}
	if c.TraceExporter == "otlp" && c.OTLPEndpoint == "" {
		return errors.New("OTLP_ENDPOINT is required when TRACE_EXPORTER is otlp")
	}
	return nil
}

// defaultTokenPath places the persisted session token under the user config
// directory, the CLI equivalent of the browser's fixed storage key.
func defaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "campus", "token"), nil
}
