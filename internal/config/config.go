// Package config loads the card bot configuration from .env, YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	coreconfig "github.com/m3rciful/cardbot/core/config"
	"github.com/m3rciful/cardbot/core/database"
	"github.com/m3rciful/cardbot/core/telegram/sender"
	"github.com/m3rciful/cardbot/core/telegram/state"
	"github.com/m3rciful/cardbot/internal/membership"
)

// ChannelConfig names the channel users must join.
type ChannelConfig struct {
	ID      string `yaml:"id" envconfig:"CHANNEL_ID"`
	JoinURL string `yaml:"join_url" envconfig:"CHANNEL_JOIN_URL"`
	Title   string `yaml:"title" envconfig:"CHANNEL_TITLE"`
}

// LookupConfig points at the card lookup service.
type LookupConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"LOOKUP_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"LOOKUP_TIMEOUT"`
}

// MembershipConfig bounds channel membership queries.
type MembershipConfig struct {
	Timeout time.Duration `yaml:"timeout" envconfig:"MEMBERSHIP_TIMEOUT"`
}

// HTTPConfig configures the landing page and admin API server.
type HTTPConfig struct {
	Listen         string   `yaml:"listen" envconfig:"HTTP_LISTEN"`
	Port           int      `yaml:"port" envconfig:"PORT"`
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"HTTP_ALLOWED_ORIGINS"`
}

// AdminConfig guards the record dump endpoint.
type AdminConfig struct {
	Token string `yaml:"token" envconfig:"ADMIN_API_TOKEN"`
}

// KeepAliveConfig controls the self-ping job.
type KeepAliveConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"KEEPALIVE_ENABLED"`
	Schedule string `yaml:"schedule" envconfig:"KEEPALIVE_SCHEDULE"`
}

// DialogConfig tunes the conversation pacing.
type DialogConfig struct {
	StartPromptDelay time.Duration `yaml:"start_prompt_delay" envconfig:"START_PROMPT_DELAY"`
}

// SenderConfig sizes the outbound Telegram queue.
type SenderConfig struct {
	Workers    int `yaml:"workers" envconfig:"SENDER_WORKERS"`
	QueueSize  int `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	MaxRetries int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
}

// Options converts the config to dispatcher options.
func (s SenderConfig) Options() sender.Options {
	return sender.Options{Workers: s.Workers, QueueSize: s.QueueSize, MaxRetries: s.MaxRetries}
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	// PublicURL is where Telegram and the self-ping reach this service.
	PublicURL string `yaml:"public_url" envconfig:"URL"`

	Database   database.Config  `yaml:"database"`
	Channel    ChannelConfig    `yaml:"channel"`
	Lookup     LookupConfig     `yaml:"lookup"`
	Membership MembershipConfig `yaml:"membership"`
	HTTP       HTTPConfig       `yaml:"http"`
	Admin      AdminConfig      `yaml:"admin"`
	KeepAlive  KeepAliveConfig  `yaml:"keepalive"`
	Sessions   state.Options    `yaml:"sessions"`
	Dialog     DialogConfig     `yaml:"dialog"`
	Sender     SenderConfig     `yaml:"sender"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads .env (if present), then the YAML file at path (if present), then
// the environment, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	var cfg Config
	if err := coreconfig.ReadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults, derives URLs and validates cfg.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}

	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/")
	if cfg.PublicURL != "" {
		if u, err := url.Parse(cfg.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid public_url %q", cfg.PublicURL)
		}
	}
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == coreconfig.RunModeWebhook && strings.TrimSpace(cfg.Webhook.URL) == "" && cfg.PublicURL != "" {
		cfg.Webhook.URL = cfg.PublicURL + "/webhook"
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Channel.ID) == "" {
		return errors.New("channel.id is required")
	}
	ch, err := membership.ParseChannel(cfg.Channel.ID)
	if err != nil {
		return fmt.Errorf("invalid channel.id: %w", err)
	}
	cfg.Channel.ID = string(ch)
	if cfg.Channel.JoinURL == "" {
		if !strings.HasPrefix(cfg.Channel.ID, "@") {
			return errors.New("channel.join_url is required when channel.id is numeric")
		}
		cfg.Channel.JoinURL = "https://t.me/" + strings.TrimPrefix(cfg.Channel.ID, "@")
	}
	if cfg.Channel.Title == "" {
		cfg.Channel.Title = cfg.Channel.ID
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.HTTP.Port < 0 {
		return fmt.Errorf("http.port must be > 0")
	}
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook && cfg.Webhook.Port == cfg.HTTP.Port {
		// same port: served by the HTTP server
		cfg.Webhook.Port = 0
	}

	cfg.Admin.Token = strings.TrimSpace(cfg.Admin.Token)
	if cfg.KeepAlive.Enabled && cfg.PublicURL == "" {
		return errors.New("keepalive.enabled requires public_url")
	}
	return nil
}

// HTTPAddr is the listen address of the HTTP server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Listen, c.HTTP.Port)
}

// SharedWebhook reports whether the webhook is mounted on the HTTP server.
func (c *Config) SharedWebhook() bool {
	return c.Telegram.RunMode == coreconfig.RunModeWebhook && c.Webhook.Port == 0
}

// WebhookPath is the path Telegram posts updates to.
func (c *Config) WebhookPath() string {
	u, err := url.Parse(c.Webhook.URL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/webhook"
	}
	return u.Path
}
