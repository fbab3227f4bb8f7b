package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, TILE2048_CONFIG env, ./tile2048.yaml)
//  3. Environment variable overrides
//  4. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. TILE2048_CONFIG environment variable
// 3. ./tile2048.yaml in the current directory
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("TILE2048_CONFIG"); envPath != "" {
		return envPath
	}

	if _, err := os.Stat("tile2048.yaml"); err == nil {
		return "tile2048.yaml"
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. Values that
// fail to parse are logged and skipped.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TILE2048_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TILE2048_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("Warning: ignoring TILE2048_PORT=%q: %v", v, err)
		}
	}
	if v := os.Getenv("TILE2048_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("TILE2048_SESSION_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.TTL = ttl
		} else {
			log.Printf("Warning: ignoring TILE2048_SESSION_TTL=%q: %v", v, err)
		}
	}
	if v := os.Getenv("TILE2048_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sessions.MaxSessions = n
		} else {
			log.Printf("Warning: ignoring TILE2048_MAX_SESSIONS=%q: %v", v, err)
		}
	}
	if v := os.Getenv("TILE2048_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Game.Seed = seed
		} else {
			log.Printf("Warning: ignoring TILE2048_SEED=%q: %v", v, err)
		}
	}
	if v := os.Getenv("TILE2048_METRICS"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("NGROK_ENABLED"); v != "" {
		cfg.Ngrok.Enabled = parseBool(v)
	}

	// Support both naming conventions for the ngrok token
	if v := os.Getenv("NGROK_AUTHTOKEN"); v != "" {
		cfg.Ngrok.AuthToken = v
	} else if v := os.Getenv("NGROK_AUTH_TOKEN"); v != "" {
		cfg.Ngrok.AuthToken = v
	}
	if v := os.Getenv("NGROK_DOMAIN"); v != "" {
		cfg.Ngrok.Domain = v
	}
}

// parseBool accepts "1" and "true" in any case
func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
