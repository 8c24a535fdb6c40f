package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds settings shared by every hosted bot.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int  `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	DropPendingUpdates     bool `yaml:"drop_pending_updates" envconfig:"TELEGRAM_DROP_PENDING_UPDATES"`
	// HandlerTimeoutSeconds bounds a single update dispatch; 0 -> default
	HandlerTimeoutSeconds int `yaml:"handler_timeout_seconds" envconfig:"TELEGRAM_HANDLER_TIMEOUT_SECONDS"`
	// PendingTTLMinutes drops abandoned conversations; 0 keeps them until consumed.
	PendingTTLMinutes int `yaml:"pending_ttl_minutes" envconfig:"TELEGRAM_PENDING_TTL_MINUTES"`
}

// BotConfig binds a bot credential to a flavor constructor.
type BotConfig struct {
	Name   string `yaml:"name"`
	Token  string `yaml:"token"`
	Flavor string `yaml:"flavor"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL         string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen      string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port        int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET_TOKEN"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Burst          int      `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// DatabaseConfig holds the optional usage journal connection settings.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"DB_ENABLED"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// BarcodeConfig tunes generated images.
type BarcodeConfig struct {
	ImageSize     int `yaml:"image_size" envconfig:"BARCODE_IMAGE_SIZE"`
	Margin        int `yaml:"margin" envconfig:"BARCODE_MARGIN"`
	MaxTextLength int `yaml:"max_text_length" envconfig:"BARCODE_MAX_TEXT_LENGTH"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

const (
	// DefaultBotName names the implicit bot built from telegram.token.
	DefaultBotName = "qrbot"
	// DefaultFlavor is the flavor used when a bot entry leaves it empty.
	DefaultFlavor = "qr"

	defaultHandlerTimeoutSeconds = 60
	defaultImageSize             = 512
	defaultMargin                = 1
	defaultMaxTextLength         = 512
	defaultMigrationsDir         = "migrations"
)

// Config aggregates the service configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Bots      []BotConfig     `yaml:"bots"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Database  DatabaseConfig  `yaml:"database"`
	Barcode   BarcodeConfig   `yaml:"barcode"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if err := normalizeBots(cfg); err != nil {
		return err
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
		cfg.Webhook.URL = strings.TrimRight(strings.TrimSpace(cfg.Webhook.URL), "/")
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Telegram.HandlerTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.handler_timeout_seconds must be >= 0")
	}
	if cfg.Telegram.HandlerTimeoutSeconds == 0 {
		cfg.Telegram.HandlerTimeoutSeconds = defaultHandlerTimeoutSeconds
	}
	if cfg.Telegram.PendingTTLMinutes < 0 {
		return fmt.Errorf("telegram.pending_ttl_minutes must be >= 0")
	}

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 1
	}

	if cfg.Database.Enabled {
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when database.enabled is true")
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
		if cfg.Database.MigrationsDir == "" {
			cfg.Database.MigrationsDir = defaultMigrationsDir
		}
	}

	if cfg.Barcode.ImageSize <= 0 {
		cfg.Barcode.ImageSize = defaultImageSize
	}
	if cfg.Barcode.Margin < 0 {
		return fmt.Errorf("barcode.margin must be >= 0")
	}
	if cfg.Barcode.Margin == 0 {
		cfg.Barcode.Margin = defaultMargin
	}
	if cfg.Barcode.MaxTextLength <= 0 {
		cfg.Barcode.MaxTextLength = defaultMaxTextLength
	}
	return nil
}

func normalizeBots(cfg *Config) error {
	if len(cfg.Bots) == 0 {
		if strings.TrimSpace(cfg.Telegram.Token) == "" {
			return fmt.Errorf("telegram token is required")
		}
		cfg.Bots = []BotConfig{{Name: DefaultBotName, Token: cfg.Telegram.Token, Flavor: DefaultFlavor}}
		return nil
	}

	names := make(map[string]struct{}, len(cfg.Bots))
	for i := range cfg.Bots {
		b := &cfg.Bots[i]
		b.Name = strings.TrimSpace(b.Name)
		b.Token = strings.TrimSpace(b.Token)
		b.Flavor = strings.ToLower(strings.TrimSpace(b.Flavor))
		if b.Name == "" {
			return fmt.Errorf("bots[%d].name is required", i)
		}
		if b.Token == "" {
			return fmt.Errorf("bots[%d].token is required", i)
		}
		if b.Flavor == "" {
			b.Flavor = DefaultFlavor
		}
		if _, dup := names[b.Name]; dup {
			return fmt.Errorf("duplicate bot name %q", b.Name)
		}
		names[b.Name] = struct{}{}
	}
	return nil
}
