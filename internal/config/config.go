package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort     = 8080
	DefaultSightingTTL  = 90 * time.Second
	DefaultPresenceTTL  = 3 * time.Minute
	DefaultMaxEntries   = 500
	DefaultResponseCap  = 100
	DefaultFeedInterval = 5 * time.Second
)

// Config holds the server configuration parsed from the `server:` section of
// config.yaml. Environment variables (HUNTWATCH_*) override file values.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket feed, and metrics
	// endpoint listen on (default 8080).
	HTTPPort int `yaml:"http_port" env:"HUNTWATCH_HTTP_PORT"`

	// Auth configures the optional shared API key on mutating requests.
	Auth AuthConfig `yaml:"auth"`

	// Sightings controls the entity sighting store.
	Sightings StoreConfig `yaml:"sightings" envPrefix:"HUNTWATCH_SIGHTINGS_"`

	// Players controls the player presence store. Its TTL is the inactivity
	// window after a player's last ping.
	Players StoreConfig `yaml:"players" envPrefix:"HUNTWATCH_PLAYERS_"`

	// Feed controls the WebSocket broadcast.
	Feed FeedConfig `yaml:"feed"`

	// Notify holds sighting notification rules and webhook targets.
	Notify NotifyConfig `yaml:"notify"`
}

// AuthConfig controls the API key check on mutating endpoints.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode" env:"HUNTWATCH_AUTH_MODE"`

	// KeyEnv names the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from. Defaults to
	// "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// StoreConfig controls one ephemeral store.
type StoreConfig struct {
	// TTL is the liveness window after an entry's last upsert.
	TTL time.Duration `yaml:"ttl" env:"TTL"`

	// MaxEntries bounds the resident entry count (0 = unbounded).
	MaxEntries int `yaml:"max_entries" env:"MAX_ENTRIES"`

	// ResponseCap is the maximum entries returned per list response. A
	// presentation limit, distinct from MaxEntries.
	ResponseCap int `yaml:"response_cap" env:"RESPONSE_CAP"`

	// Policy selects the expiry mechanism: sweep | deferred (default sweep).
	Policy string `yaml:"policy" env:"POLICY"`
}

// FeedConfig controls the WebSocket feed broadcast.
type FeedConfig struct {
	// Interval between feed broadcasts (default 5s).
	Interval time.Duration `yaml:"interval" env:"HUNTWATCH_FEED_INTERVAL"`
}

// NotifyConfig holds notification rules and webhook delivery targets.
type NotifyConfig struct {
	Rules    []NotifyRule    `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// NotifyRule defines one condition evaluated against every accepted sighting.
type NotifyRule struct {
	// Name is the human-readable rule identifier, used as the dedup key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "count > 10", "per_second >= 2",
	// "name == behemoth", "world == srv1".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for the same rule and identity.
	// Defaults to 10 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | discord | http.
	Type string `yaml:"type"`

	// URLEnv names the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads the config file at path, overlays HUNTWATCH_* environment
// variables, and validates the result. Missing fields are filled with
// defaults first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: apply environment: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Sightings: StoreConfig{
				TTL:         DefaultSightingTTL,
				MaxEntries:  DefaultMaxEntries,
				ResponseCap: DefaultResponseCap,
			},
			Players: StoreConfig{
				TTL:         DefaultPresenceTTL,
				MaxEntries:  DefaultMaxEntries,
				ResponseCap: DefaultResponseCap,
			},
			Feed: FeedConfig{
				Interval: DefaultFeedInterval,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if err := validateStore("server.sightings", cfg.Server.Sightings); err != nil {
		return err
	}
	if err := validateStore("server.players", cfg.Server.Players); err != nil {
		return err
	}
	if cfg.Server.Feed.Interval <= 0 {
		return fmt.Errorf("server.feed.interval must be positive")
	}
	for _, r := range cfg.Server.Notify.Rules {
		if r.Name == "" {
			return fmt.Errorf("server.notify.rules: rule without a name")
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("server.notify.rules[%s].severity %q unknown: want critical|warning|info", r.Name, r.Severity)
		}
	}
	return nil
}

func validateStore(section string, sc StoreConfig) error {
	if sc.TTL <= 0 {
		return fmt.Errorf("%s.ttl must be positive", section)
	}
	if sc.MaxEntries < 0 {
		return fmt.Errorf("%s.max_entries must not be negative", section)
	}
	if sc.ResponseCap <= 0 {
		return fmt.Errorf("%s.response_cap must be positive", section)
	}
	switch sc.Policy {
	case "sweep", "deferred", "":
	default:
		return fmt.Errorf("%s.policy %q unknown: want sweep|deferred", section, sc.Policy)
	}
	return nil
}
