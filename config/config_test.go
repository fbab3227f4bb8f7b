package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("default server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("default server.host = %q, want \"localhost\"", cfg.Server.Host)
	}
	if cfg.Server.StaticDir != "static" {
		t.Errorf("default server.static_dir = %q, want \"static\"", cfg.Server.StaticDir)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("default server.shutdown_timeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Sessions.TTL != 24*time.Hour {
		t.Errorf("default sessions.ttl = %v, want 24h", cfg.Sessions.TTL)
	}
	if cfg.Sessions.MaxSessions != 1000 {
		t.Errorf("default sessions.max_sessions = %d, want 1000", cfg.Sessions.MaxSessions)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("default metrics = %+v, want enabled at /metrics", cfg.Metrics)
	}
	if cfg.Ngrok.Enabled {
		t.Error("default ngrok.enabled = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	yamlContent := `
server:
  host: 0.0.0.0
  port: 9090
  static_dir: web
  read_timeout: 30s
sessions:
  ttl: 2h
  max_sessions: 10
game:
  seed: 42
metrics:
  enabled: false
ngrok:
  enabled: true
  domain: play.example.ngrok.app
debug: true
`
	tmpFile := writeTemp(t, "tile2048-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want \"0.0.0.0\"", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.StaticDir != "web" {
		t.Errorf("server.static_dir = %q, want \"web\"", cfg.Server.StaticDir)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("server.read_timeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Sessions.TTL != 2*time.Hour {
		t.Errorf("sessions.ttl = %v, want 2h", cfg.Sessions.TTL)
	}
	if cfg.Sessions.MaxSessions != 10 {
		t.Errorf("sessions.max_sessions = %d, want 10", cfg.Sessions.MaxSessions)
	}
	if cfg.Game.Seed != 42 {
		t.Errorf("game.seed = %d, want 42", cfg.Game.Seed)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics.enabled = true, want false")
	}
	if !cfg.Ngrok.Enabled || cfg.Ngrok.Domain != "play.example.ngrok.app" {
		t.Errorf("ngrok = %+v, want enabled with domain", cfg.Ngrok)
	}
	if !cfg.Debug {
		t.Error("debug = false, want true")
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q, want \"0.0.0.0:9090\"", cfg.Addr())
	}
}

func TestYAMLDefaultsMerge(t *testing.T) {
	clearEnv(t)
	tmpFile := writeTemp(t, "tile2048-*.yaml", "server:\n  port: 7000\n")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("server.port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" || cfg.Sessions.TTL != 24*time.Hour {
		t.Errorf("fields missing from YAML should keep defaults, got host=%q ttl=%v", cfg.Server.Host, cfg.Sessions.TTL)
	}
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	tmpFile := writeTemp(t, "tile2048-*.yaml", `
server:
  port: 9090
  static_dir: web
sessions:
  max_sessions: 10
`)

	t.Setenv("TILE2048_HOST", "127.0.0.1")
	t.Setenv("TILE2048_PORT", "7070")
	t.Setenv("TILE2048_STATIC_DIR", "/srv/www")
	t.Setenv("TILE2048_SESSION_TTL", "30m")
	t.Setenv("TILE2048_MAX_SESSIONS", "3")
	t.Setenv("TILE2048_SEED", "7")
	t.Setenv("TILE2048_METRICS", "false")
	t.Setenv("NGROK_ENABLED", "1")
	t.Setenv("NGROK_AUTH_TOKEN", "underscore-token")
	t.Setenv("NGROK_DOMAIN", "env.ngrok.app")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want env override", cfg.Server.Host)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Server.StaticDir != "/srv/www" {
		t.Errorf("server.static_dir = %q, want env override", cfg.Server.StaticDir)
	}
	if cfg.Sessions.TTL != 30*time.Minute {
		t.Errorf("sessions.ttl = %v, want 30m", cfg.Sessions.TTL)
	}
	if cfg.Sessions.MaxSessions != 3 {
		t.Errorf("sessions.max_sessions = %d, want 3", cfg.Sessions.MaxSessions)
	}
	if cfg.Game.Seed != 7 {
		t.Errorf("game.seed = %d, want 7", cfg.Game.Seed)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics.enabled = true, want env override false")
	}
	if !cfg.Ngrok.Enabled {
		t.Error("ngrok.enabled = false, want env override true")
	}
	if cfg.Ngrok.AuthToken != "underscore-token" {
		t.Errorf("ngrok.auth_token = %q, want NGROK_AUTH_TOKEN value", cfg.Ngrok.AuthToken)
	}
	if cfg.Ngrok.Domain != "env.ngrok.app" {
		t.Errorf("ngrok.domain = %q, want env override", cfg.Ngrok.Domain)
	}
}

func TestEnvOverride_NgrokTokenPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("NGROK_AUTHTOKEN", "primary")
	t.Setenv("NGROK_AUTH_TOKEN", "secondary")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Ngrok.AuthToken != "primary" {
		t.Errorf("ngrok.auth_token = %q, want NGROK_AUTHTOKEN to win", cfg.Ngrok.AuthToken)
	}
}

func TestEnvOverride_BadValuesIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("TILE2048_PORT", "eighty")
	t.Setenv("TILE2048_SESSION_TTL", "forever")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want default after bad env value", cfg.Server.Port)
	}
	if cfg.Sessions.TTL != 24*time.Hour {
		t.Errorf("sessions.ttl = %v, want default after bad env value", cfg.Sessions.TTL)
	}
}

func TestFileDiscovery(t *testing.T) {
	clearEnv(t)

	explicit := writeTemp(t, "tile2048-*.yaml", "server:\n  port: 9001\n")
	cfg, err := Load(explicit)
	if err != nil {
		t.Fatalf("Load(explicit) error: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("explicit path: port = %d, want 9001", cfg.Server.Port)
	}

	envFile := writeTemp(t, "envconfig-*.yaml", "server:\n  port: 9002\n")
	t.Setenv("TILE2048_CONFIG", envFile)

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(TILE2048_CONFIG) error: %v", err)
	}
	if cfg.Server.Port != 9002 {
		t.Errorf("TILE2048_CONFIG: port = %d, want 9002", cfg.Server.Port)
	}

	t.Setenv("TILE2048_CONFIG", "")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(no file) error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("no file: port = %d, want default", cfg.Server.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load("/nonexistent/tile2048.yaml"); err == nil {
			t.Error("expected error for missing explicit file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		bad := writeTemp(t, "bad-*.yaml", "server: [unclosed\n")
		if _, err := Load(bad); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		bad := writeTemp(t, "bad-*.yaml", "server:\n  port: 0\n")
		_, err := Load(bad)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "port zero",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port must be in 1..65535",
		},
		{
			name:    "port too large",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port must be in 1..65535",
		},
		{
			name:    "zero ttl",
			modify:  func(c *Config) { c.Sessions.TTL = 0 },
			wantErr: "sessions.ttl must be > 0",
		},
		{
			name:    "zero cleanup interval",
			modify:  func(c *Config) { c.Sessions.CleanupInterval = 0 },
			wantErr: "sessions.cleanup_interval must be > 0",
		},
		{
			name:    "negative max sessions",
			modify:  func(c *Config) { c.Sessions.MaxSessions = -1 },
			wantErr: "sessions.max_sessions must be >= 0",
		},
		{
			name:    "relative metrics path",
			modify:  func(c *Config) { c.Metrics.Path = "metrics" },
			wantErr: "metrics.path must start with",
		},
		{
			name: "relative metrics path ignored when disabled",
			modify: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.Path = "metrics"
			},
		},
		{
			name:   "unlimited sessions",
			modify: func(c *Config) { c.Sessions.MaxSessions = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Error("Validate() error should wrap ErrInvalidConfig")
			}
		})
	}
}

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"TILE2048_CONFIG", "TILE2048_HOST", "TILE2048_PORT", "TILE2048_STATIC_DIR",
		"TILE2048_SESSION_TTL", "TILE2048_MAX_SESSIONS", "TILE2048_SEED", "TILE2048_METRICS",
		"NGROK_ENABLED", "NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN", "NGROK_DOMAIN",
	} {
		t.Setenv(name, "")
	}
}

// writeTemp creates a temporary file with the given content and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing temp file: %v", err)
	}
	return f.Name()
}
