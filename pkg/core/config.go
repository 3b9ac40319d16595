package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Server holds server-specific configuration.
	Server ServerConfig `yaml:"server"`
	// Webhook configures the GitHub webhook endpoint.
	Webhook WebhookConfig `yaml:"webhook"`
	// Endpoint is the public base URL of this service.
	Endpoint string `yaml:"endpoint"`
	// Storage holds configuration for the link, error log, and workspace tables.
	Storage StorageConfig `yaml:"storage"`
	// Cache holds configuration for the optional link lookup cache.
	Cache CacheConfig `yaml:"cache"`
	// Slack holds chat dispatch and install configuration.
	Slack SlackConfig `yaml:"slack"`
	// Diagnostics controls error persistence and crash reporting.
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	// Links seeds the in-memory link store when storage is disabled.
	Links []LinkSeed `yaml:"links"`
}

// LinkSeed maps one GitHub login to a Slack user in a workspace.
type LinkSeed struct {
	Workspace string `yaml:"workspace"`
	GitHub    string `yaml:"github"`
	Slack     string `yaml:"slack"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	ReadTimeoutMS      int64    `yaml:"read_timeout_ms"`
	WriteTimeoutMS     int64    `yaml:"write_timeout_ms"`
	IdleTimeoutMS      int64    `yaml:"idle_timeout_ms"`
	ReadHeaderMS       int64    `yaml:"read_header_timeout_ms"`
	MaxBodyBytes       int64    `yaml:"max_body_bytes"`
	DebugEvents        bool     `yaml:"debug_events"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// WebhookConfig configures the inbound webhook route.
type WebhookConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds configuration for SQL-backed storage.
type StorageConfig struct {
	Driver            string `yaml:"driver"`
	DSN               string `yaml:"dsn"`
	Dialect           string `yaml:"dialect"`
	AutoMigrate       bool   `yaml:"auto_migrate"`
	MaxOpenConns      int    `yaml:"max_open_conns"`
	MaxIdleConns      int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMS int64  `yaml:"conn_max_lifetime_ms"`
	ConnMaxIdleTimeMS int64  `yaml:"conn_max_idle_time_ms"`
}

// Enabled reports whether a SQL backend is configured.
func (c StorageConfig) Enabled() bool {
	return strings.TrimSpace(c.Driver) != "" && strings.TrimSpace(c.DSN) != ""
}

// CacheConfig holds configuration for the Redis link cache.
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures a Redis connection.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// SlackConfig configures the Slack API client and install flow.
type SlackConfig struct {
	APIURL   string           `yaml:"api_url"`
	BotToken string           `yaml:"bot_token"`
	OAuth    SlackOAuthConfig `yaml:"oauth"`
}

// SlackOAuthConfig holds the Slack app credentials used by the install flow.
type SlackOAuthConfig struct {
	ClientID        string   `yaml:"client_id"`
	ClientSecret    string   `yaml:"client_secret"`
	Scopes          []string `yaml:"scopes"`
	AuthorizeURL    string   `yaml:"authorize_url"`
	TokenURL        string   `yaml:"token_url"`
	RedirectBaseURL string   `yaml:"redirect_base_url"`
}

// Enabled reports whether the install flow can run.
func (c SlackOAuthConfig) Enabled() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// DiagnosticsConfig controls what happens when a webhook fails.
type DiagnosticsConfig struct {
	LogRequestOnError bool   `yaml:"log_request_on_error"`
	DecodePayload     *bool  `yaml:"decode_payload"`
	SentryDSN         string `yaml:"sentry_dsn"`
	Environment       string `yaml:"environment"`
}

// DecodePayloadEnabled reports whether failed requests get their form payload re-parsed for logging.
func (c DiagnosticsConfig) DecodePayloadEnabled() bool {
	return c.DecodePayload == nil || *c.DecodePayload
}

// LoadConfig loads the application configuration from a YAML file.
// Environment references such as ${SLACK_CLIENT_SECRET} are expanded before parsing.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg, err = ParseConfig(data)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses YAML config bytes and applies defaults.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutMS == 0 {
		cfg.Server.ReadTimeoutMS = 5000
	}
	if cfg.Server.WriteTimeoutMS == 0 {
		cfg.Server.WriteTimeoutMS = 10000
	}
	if cfg.Server.IdleTimeoutMS == 0 {
		cfg.Server.IdleTimeoutMS = 60000
	}
	if cfg.Server.ReadHeaderMS == 0 {
		cfg.Server.ReadHeaderMS = 5000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if strings.TrimSpace(cfg.Webhook.Path) == "" {
		cfg.Webhook.Path = "/webhooks/github"
	}
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Cache.Redis.TTLSeconds == 0 {
		cfg.Cache.Redis.TTLSeconds = 300
	}
	if cfg.Slack.APIURL == "" {
		cfg.Slack.APIURL = "https://slack.com/api/"
	}
	if !strings.HasSuffix(cfg.Slack.APIURL, "/") {
		cfg.Slack.APIURL += "/"
	}
	oauth := &cfg.Slack.OAuth
	if len(oauth.Scopes) == 0 {
		oauth.Scopes = []string{"chat:write", "im:write", "users:read"}
	}
	if oauth.AuthorizeURL == "" {
		oauth.AuthorizeURL = "https://slack.com/oauth/v2/authorize"
	}
	if oauth.TokenURL == "" {
		oauth.TokenURL = "https://slack.com/api/oauth.v2.access"
	}
	if oauth.RedirectBaseURL == "" {
		oauth.RedirectBaseURL = cfg.Endpoint
	}
	if cfg.Diagnostics.Environment == "" {
		cfg.Diagnostics.Environment = "development"
	}
}
