// Package config provides configuration for the 2048 server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (TILE2048_ prefix, NGROK_ for the tunnel)
//  4. Validation
//
// Command-line flags are applied on top by the caller.
package config

import "time"

// Config holds all configuration for the server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sessions SessionsConfig `yaml:"sessions"`
	Game     GameConfig     `yaml:"game"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Ngrok    NgrokConfig    `yaml:"ngrok"`
	Debug    bool           `yaml:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`             // default: "localhost"
	Port            int           `yaml:"port"`             // default: 8080
	StaticDir       string        `yaml:"static_dir"`       // default: "static"
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 15s
	IdleTimeout     time.Duration `yaml:"idle_timeout"`     // default: 60s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// SessionsConfig holds session lifecycle settings.
type SessionsConfig struct {
	TTL             time.Duration `yaml:"ttl"`              // default: 24h
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // default: 1h
	MaxSessions     int           `yaml:"max_sessions"`     // default: 1000, 0 = unlimited
}

// GameConfig holds gameplay settings.
type GameConfig struct {
	// Seed makes tile spawning reproducible. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// NgrokConfig holds the optional public tunnel settings.
type NgrokConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AuthToken string `yaml:"auth_token"`
	Domain    string `yaml:"domain"`
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return joinHostPort(c.Server.Host, c.Server.Port)
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			StaticDir:       "static",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Sessions: SessionsConfig{
			TTL:             24 * time.Hour,
			CleanupInterval: 1 * time.Hour,
			MaxSessions:     1000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
