package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./secondbrain.db" {
			t.Errorf("expected database path ./secondbrain.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Auth.Threshold != 3 {
			t.Errorf("expected breaker threshold 3, got %d", config.Auth.Threshold)
		}

		if config.Auth.ResetTimeout.Duration != 30*time.Second {
			t.Errorf("expected reset timeout 30s, got %v", config.Auth.ResetTimeout)
		}

		if config.Credentials.Stripe.UnitAmount != 19900 {
			t.Errorf("expected unit amount 19900, got %d", config.Credentials.Stripe.UnitAmount)
		}

		if config.Webhooks.Timeout.Duration != 5*time.Second {
			t.Errorf("expected webhook timeout 5s, got %v", config.Webhooks.Timeout)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
driver = "supabase"
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080
pwa = true

[credentials.supabase]
url = "https://abc.supabase.co"
anon_key = "anon"
service_role_key = "service"

[auth]
reset_timeout = "10s"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Driver != "supabase" {
			t.Errorf("expected supabase driver, got %s", config.Database.Driver)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if !config.Server.PWA {
			t.Error("expected pwa mode to be enabled")
		}

		if config.Auth.ResetTimeout.Duration != 10*time.Second {
			t.Errorf("expected reset timeout 10s, got %v", config.Auth.ResetTimeout)
		}

		if config.Auth.Threshold != 3 {
			t.Errorf("missing keys should keep defaults, got threshold %d", config.Auth.Threshold)
		}
	})

	t.Run("Invalid Duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[auth]\nreset_timeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error for invalid duration")
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{
			"SUPABASE_URL":             "https://env.supabase.co",
			"VOICEFLOW_WEBHOOK_SECRET": "shh",
		}
		config.applyEnv(func(k string) string { return env[k] })

		if config.Credentials.Supabase.URL != "https://env.supabase.co" {
			t.Errorf("expected env supabase url, got %s", config.Credentials.Supabase.URL)
		}
		if config.Functions.VoiceflowSecret != "shh" {
			t.Errorf("expected env voiceflow secret, got %s", config.Functions.VoiceflowSecret)
		}
		if config.Credentials.Stripe.SecretKey != DefaultConfig().Credentials.Stripe.SecretKey {
			t.Error("unset env var should not override config")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
			want   error
		}{
			{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, want: ErrInvalidConfig},
			{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, want: ErrInvalidConfig},
			{
				name: "supabase without key",
				mutate: func(c *Config) {
					c.Database.Driver = "supabase"
					c.Credentials.Supabase.ServiceRoleKey = ""
				},
				want: ErrMissingCredentials,
			},
			{name: "zero threshold", mutate: func(c *Config) { c.Auth.Threshold = 0 }, want: ErrInvalidConfig},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, tt.want) {
					t.Errorf("Validate() = %v, want %v", err, tt.want)
				}
			})
		}
	})
}
