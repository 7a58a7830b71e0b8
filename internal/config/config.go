// Package config provides configuration loading and validation for udpforge.
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags (not handled here, see cmd/udpforged/main.go)
//  2. Environment variables (UDPFORGE_* prefix)
//  3. YAML config file (if specified with --config)
//  4. Hardcoded defaults
//
// All configuration is validated during Load() to ensure correctness early.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("UDPFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.local_port", 9000)
	v.SetDefault("server.listener_thread_count", 1)
	v.SetDefault("server.tick_interval", "1s")

	// A single default group, tuned for a light echo-style workload.
	v.SetDefault("groups", []GroupConfig{
		{
			Name:               "default",
			Capacity:           1000,
			EffectiveWait:      "30s",
			MinThreads:         4,
			MaxThreads:         32,
			WorkerStallTimeout: "10s",
		},
	})

	// Logging defaults
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	// Admin API defaults — disabled and bound to localhost for safety.
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.host", "127.0.0.1")
	v.SetDefault("admin.port", 8090)
	v.SetDefault("admin.api_key", "")

	// Database defaults
	v.SetDefault("database.path", "udpforge.sqlite")
}

func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	loadServerConfig(v, cfg)
	if err := loadGroupsConfig(v, cfg); err != nil {
		return nil, err
	}
	loadLoggingConfig(v, cfg)
	loadAdminConfig(v, cfg)
	loadDatabaseConfig(v, cfg)

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadServerConfig(v *viper.Viper, cfg *Config) {
	cfg.Server.LocalPort = v.GetInt("server.local_port")
	cfg.Server.ListenerThreadCount = v.GetInt("server.listener_thread_count")
	cfg.Server.TickInterval = v.GetString("server.tick_interval")
}

func loadGroupsConfig(v *viper.Viper, cfg *Config) error {
	if err := v.UnmarshalKey("groups", &cfg.Groups); err != nil {
		return fmt.Errorf("failed to parse groups: %w", err)
	}
	return nil
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
}

func loadAdminConfig(v *viper.Viper, cfg *Config) {
	cfg.Admin.Enabled = v.GetBool("admin.enabled")
	cfg.Admin.Host = v.GetString("admin.host")
	cfg.Admin.Port = v.GetInt("admin.port")
	cfg.Admin.APIKey = v.GetString("admin.api_key")
}

func loadDatabaseConfig(v *viper.Viper, cfg *Config) {
	cfg.Database.Path = v.GetString("database.path")
}

// normalizeConfig validates and normalizes the configuration, including
// checking that each duration string parses. The strings are kept as
// strings; callers parse them again when they need a time.Duration.
func normalizeConfig(cfg *Config) error {
	if cfg.Server.LocalPort <= 0 || cfg.Server.LocalPort > 65535 {
		return errors.New("server.local_port must be 1..65535")
	}
	if cfg.Server.ListenerThreadCount <= 0 {
		cfg.Server.ListenerThreadCount = 1
	}
	if _, err := ParseDuration(cfg.Server.TickInterval); err != nil {
		return fmt.Errorf("server.tick_interval: %w", err)
	}

	if len(cfg.Groups) == 0 {
		return errors.New("at least one group must be configured")
	}
	for i, g := range cfg.Groups {
		if g.Capacity <= 0 {
			return fmt.Errorf("groups[%d]: capacity must be > 0", i)
		}
		if g.MaxThreads < g.MinThreads {
			return fmt.Errorf("groups[%d]: max_threads must be >= min_threads", i)
		}
		if _, err := ParseDuration(g.EffectiveWait); err != nil {
			return fmt.Errorf("groups[%d]: effective_wait: %w", i, err)
		}
		if g.WorkerStallTimeout != "" {
			if _, err := ParseDuration(g.WorkerStallTimeout); err != nil {
				return fmt.Errorf("groups[%d]: worker_stall_timeout: %w", i, err)
			}
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	if cfg.Admin.Host == "" {
		cfg.Admin.Host = "127.0.0.1"
	}
	if cfg.Admin.Enabled {
		if cfg.Admin.Port <= 0 || cfg.Admin.Port > 65535 {
			return errors.New("admin.port must be 1..65535")
		}
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "udpforge.sqlite"
	}

	return nil
}

// ParseDuration parses a Go duration string, treating "" and "0" as zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
