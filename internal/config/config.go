package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Mailbox    MailboxConfig    `yaml:"mailbox" mapstructure:"mailbox"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Reminder   ReminderConfig   `yaml:"reminder" mapstructure:"reminder"`
	Schedule   ScheduleConfig   `yaml:"schedule" mapstructure:"schedule"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// MailboxConfig configures per-company mailbox access.
type MailboxConfig struct {
	// CredentialsFile is the OAuth client credentials JSON path.
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	// TokenDir holds one refresh-token JSON file per account ID.
	TokenDir string `yaml:"token_dir" mapstructure:"token_dir"`
	// ClientTTLMinutes bounds how long a cached mailbox client is reused
	// before being rebuilt from the stored token.
	ClientTTLMinutes int `yaml:"client_ttl_minutes" mapstructure:"client_ttl_minutes"`
	// FromAddress is the sender identity for acknowledgments and reminders.
	FromAddress string `yaml:"from_address" mapstructure:"from_address"`
}

// AnthropicConfig holds Anthropic API settings for quotation extraction.
type AnthropicConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Model     string  `yaml:"model" mapstructure:"model"`
	MaxTokens int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RPS       float64 `yaml:"rps" mapstructure:"rps"`
}

// PipelineConfig configures inbox reconciliation behavior.
type PipelineConfig struct {
	// MaxEmails caps how many unread messages one run will pull.
	MaxEmails int `yaml:"max_emails" mapstructure:"max_emails"`
	// StrictVendorMatch escalates ambiguous vendor matches (several
	// invited vendors sharing one sender address) to manual review
	// instead of picking the first.
	StrictVendorMatch bool `yaml:"strict_vendor_match" mapstructure:"strict_vendor_match"`
	// SendAcknowledgments toggles the best-effort ack email after a
	// successful reconciliation.
	SendAcknowledgments bool `yaml:"send_acknowledgments" mapstructure:"send_acknowledgments"`
}

// ReminderConfig configures the deadline reminder scheduler.
type ReminderConfig struct {
	MaxReminders int `yaml:"max_reminders" mapstructure:"max_reminders"`
	CooldownDays int `yaml:"cooldown_days" mapstructure:"cooldown_days"`
}

// ScheduleConfig configures serve-mode cron triggers.
type ScheduleConfig struct {
	ProcessCron string   `yaml:"process_cron" mapstructure:"process_cron"`
	RemindCron  string   `yaml:"remind_cron" mapstructure:"remind_cron"`
	Companies   []string `yaml:"companies" mapstructure:"companies"`
}

// ServerConfig configures the serve-mode HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures pipeline health checks and alerting.
type MonitoringConfig struct {
	// WebhookURL receives alert payloads; empty disables delivery.
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	// FailureRateThreshold triggers an alert when the share of failed
	// email reconciliations within the lookback window exceeds it.
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	// PendingReviewThreshold alerts when too many emails are waiting on
	// a human.
	PendingReviewThreshold int `yaml:"pending_review_threshold" mapstructure:"pending_review_threshold"`
	CheckIntervalSecs      int `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours    int `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROCURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("mailbox.token_dir", "tokens")
	v.SetDefault("mailbox.client_ttl_minutes", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.rps", 2.0)
	v.SetDefault("pipeline.max_emails", 50)
	v.SetDefault("pipeline.strict_vendor_match", false)
	v.SetDefault("pipeline.send_acknowledgments", true)
	v.SetDefault("reminder.max_reminders", 3)
	v.SetDefault("reminder.cooldown_days", 3)
	v.SetDefault("schedule.process_cron", "*/15 * * * *")
	v.SetDefault("schedule.remind_cron", "0 9 * * *")
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.pending_review_threshold", 20)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger builds the global zap logger from config.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
