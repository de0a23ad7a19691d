// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	PostgresURL     string `mapstructure:"postgres_url"`
	LogFile         string `mapstructure:"log_file"`
	DebugLogging    bool   `mapstructure:"debug_logging"`
	EventBufferSize int    `mapstructure:"event_buffer_size"`
	MetricsEnabled  bool   `mapstructure:"metrics_enabled"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

const (
	DefaultListenAddr      = ":8080"
	DefaultLogFile         = "launchpad.log"
	DefaultEventBufferSize = 1024
	DefaultShutdownTimeout = 15
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"listen_addr":       DefaultListenAddr,
		"log_file":          DefaultLogFile,
		"event_buffer_size": DefaultEventBufferSize,
		"metrics_enabled":   true,
		"shutdown_timeout":  DefaultShutdownTimeout,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return errors.New("missing listen_addr in configuration")
	}
	if cfg.PostgresURL != "" {
		if err := validatePostgresURL(cfg.PostgresURL); err != nil {
			return err
		}
	}
	if cfg.EventBufferSize <= 0 {
		return errors.New("invalid event_buffer_size")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("invalid shutdown_timeout")
	}
	return nil
}

func validatePostgresURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid postgres_url format")
	}
	if !strings.HasPrefix(parsed.Scheme, "postgres") {
		return errors.New("postgres_url must use the postgres scheme")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if env := v.GetString("POSTGRES_URL"); env != "" {
		cfg.PostgresURL = env
	}
	if env := v.GetString("LISTEN_ADDR"); env != "" {
		cfg.ListenAddr = env
	}
}
