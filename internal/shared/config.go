package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Webhooks    WebhooksConfig    `toml:"webhooks"`
	Functions   FunctionsConfig   `toml:"functions"`
	Auth        AuthConfig        `toml:"auth"`
	Redis       RedisConfig       `toml:"redis"`
	RateLimit   RateLimitConfig   `toml:"ratelimit"`
}

// CredentialsConfig contains hosted-service credentials.
type CredentialsConfig struct {
	Supabase SupabaseConfig `toml:"supabase"`
	Stripe   StripeConfig   `toml:"stripe"`
}

// SupabaseConfig contains the hosted auth and database project settings.
type SupabaseConfig struct {
	URL            string `toml:"url"`
	AnonKey        string `toml:"anon_key"`
	ServiceRoleKey string `toml:"service_role_key"`
}

// StripeConfig contains payment provider settings for the lifetime-access product.
type StripeConfig struct {
	SecretKey  string `toml:"secret_key"`
	BaseURL    string `toml:"base_url"`
	PriceName  string `toml:"price_name"`
	UnitAmount int64  `toml:"unit_amount"`
	Currency   string `toml:"currency"`
	SuccessURL string `toml:"success_url"`
	CancelURL  string `toml:"cancel_url"`
}

// DatabaseConfig contains database connection settings.
//
// Driver selects the backend: "sqlite" for the local store, "supabase" for the hosted tables.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	SessionTTL     Duration `toml:"session_ttl"`
	PWA            bool     `toml:"pwa"`
}

// WebhooksConfig contains the automation endpoints that receive form payloads.
type WebhooksConfig struct {
	ContactURL         string   `toml:"contact_url"`
	RegistrationURL    string   `toml:"registration_url"`
	TroubleshootingURL string   `toml:"troubleshooting_url"`
	Timeout            Duration `toml:"timeout"`
	Rate               float64  `toml:"rate"`
	Burst              int      `toml:"burst"`
}

// FunctionsConfig contains secrets and fixed identifiers used by the function handlers.
type FunctionsConfig struct {
	VoiceflowSecret string `toml:"voiceflow_secret"`
	EvolutionUserID string `toml:"evolution_user_id"`
}

// AuthConfig tunes the circuit breaker and session timeouts.
type AuthConfig struct {
	Threshold          int      `toml:"threshold"`
	ResetTimeout       Duration `toml:"reset_timeout"`
	AuthTimeout        Duration `toml:"auth_timeout"`
	SandboxAuthTimeout Duration `toml:"sandbox_auth_timeout"`
	LoadingBuffer      Duration `toml:"loading_buffer"`
	CacheMinTTL        Duration `toml:"cache_min_ttl"`
}

// RedisConfig contains session store settings. An empty Addr selects the in-memory store.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// RateLimitConfig limits requests per client IP on public form endpoints.
type RateLimitConfig struct {
	Requests int      `toml:"requests"`
	Window   Duration `toml:"window"`
}

// Duration wraps [time.Duration] so TOML values like "30s" decode directly.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Addr returns the host:port pair the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults, and secrets can be overridden from the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv(os.Getenv)
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	overrides := map[string]*string{
		"SUPABASE_URL":              &c.Credentials.Supabase.URL,
		"SUPABASE_ANON_KEY":         &c.Credentials.Supabase.AnonKey,
		"SUPABASE_SERVICE_ROLE_KEY": &c.Credentials.Supabase.ServiceRoleKey,
		"STRIPE_SECRET_KEY":         &c.Credentials.Stripe.SecretKey,
		"VOICEFLOW_WEBHOOK_SECRET":  &c.Functions.VoiceflowSecret,
		"REDIS_ADDR":                &c.Redis.Addr,
	}
	for key, dst := range overrides {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
}

// Validate reports configuration that would leave the server unable to reach its backends.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite driver", ErrInvalidConfig)
		}
	case "supabase":
		if c.Credentials.Supabase.URL == "" || c.Credentials.Supabase.ServiceRoleKey == "" {
			return fmt.Errorf("%w: supabase url and service_role_key", ErrMissingCredentials)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Auth.Threshold <= 0 {
		return fmt.Errorf("%w: auth.threshold must be positive", ErrInvalidConfig)
	}
	return nil
}
