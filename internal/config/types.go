// Package config provides configuration loading for udpforge using Viper.
// Configuration is loaded from YAML files with automatic environment variable binding.
//
// Environment variables use the UDPFORGE_ prefix and underscore-separated keys:
//   - UDPFORGE_SERVER_LOCAL_PORT -> server.local_port
//   - UDPFORGE_LOGGING_LEVEL -> logging.level
//   - UDPFORGE_ADMIN_ENABLED -> admin.enabled
package config

import (
	"os"
	"strings"
)

// ServerConfig contains the MainServer's top-level settings.
type ServerConfig struct {
	LocalPort           int    `yaml:"local_port"            mapstructure:"local_port"`
	ListenerThreadCount int    `yaml:"listener_thread_count" mapstructure:"listener_thread_count"`
	TickInterval        string `yaml:"tick_interval"         mapstructure:"tick_interval"` // e.g. "1s"
}

// GroupConfig configures one request group.
type GroupConfig struct {
	Name               string `yaml:"name"                 mapstructure:"name"`
	Capacity           int    `yaml:"capacity"              mapstructure:"capacity"`
	EffectiveWait      string `yaml:"effective_wait"        mapstructure:"effective_wait"` // e.g. "30s"
	MinThreads         int    `yaml:"min_threads"           mapstructure:"min_threads"`
	MaxThreads         int    `yaml:"max_threads"           mapstructure:"max_threads"`
	WorkerStallTimeout string `yaml:"worker_stall_timeout"  mapstructure:"worker_stall_timeout"` // e.g. "10s"
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"             json:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"        json:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format" json:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"       json:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"      json:"extra_fields,omitempty"`
}

// AdminConfig contains management HTTP API settings.
//
// Note: APIKey is intentionally treated as a secret and should not be
// returned by API endpoints.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// DatabaseConfig points at the snapshot recorder's sqlite file.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"   mapstructure:"server"`
	Groups   []GroupConfig  `yaml:"groups"   mapstructure:"groups"`
	Logging  LoggingConfig  `yaml:"logging"  mapstructure:"logging"`
	Admin    AdminConfig    `yaml:"admin"    mapstructure:"admin"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// ResolveConfigPath determines the config file path from flag or environment.
func ResolveConfigPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("UDPFORGE_CONFIG")); v != "" {
		return v
	}
	return ""
}

// Load loads configuration from a YAML file with environment variable overrides.
// This is the main entry point for loading configuration.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (UDPFORGE_*)
//  2. Config file values
//  3. Default values
func Load(path string) (*Config, error) {
	return loadFromSource(path)
}
