package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

// DefaultEnvFile is loaded before the environment is read. A missing file is ignored.
const DefaultEnvFile = "configs/.env"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	Token              string        `mapstructure:"dbl_token"`
	BaseURL            string        `mapstructure:"dbl_base_url"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	BotIDRaw            string        `mapstructure:"bot_id"`
	BotID               dbl.BotID     `mapstructure:"-"`
	PostIntervalSeconds int64         `mapstructure:"post_interval"`
	PostInterval        time.Duration `mapstructure:"-"`
	StatsFile           string        `mapstructure:"stats_file"`
	ServerCount         uint64        `mapstructure:"server_count"`
	ShardCount          uint64        `mapstructure:"shard_count"`

	WebhookAddr    string `mapstructure:"webhook_addr"`
	WebhookPath    string `mapstructure:"webhook_path"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	PublishersFile string `mapstructure:"publishers_file"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from configs/.env and the environment.
func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile is Load with a custom dotenv path. Variables already present in
// the environment win over the file.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()

	v.SetDefault("app_name", "dbl-go")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("dbl_token", "")
	v.SetDefault("dbl_base_url", dbl.DefaultBaseURL)
	v.SetDefault("http_timeout_seconds", 30)

	v.SetDefault("bot_id", "")
	v.SetDefault("post_interval", 1800) // seconds
	v.SetDefault("stats_file", "")
	v.SetDefault("server_count", 0)
	v.SetDefault("shard_count", 0)

	v.SetDefault("webhook_addr", ":8080")
	v.SetDefault("webhook_path", "/dbl/webhook")
	v.SetDefault("webhook_secret", "")
	v.SetDefault("publishers_file", "") // empty: receiver only logs votes
	v.SetDefault("metrics_enabled", true)

	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/votes.db")
	v.SetDefault("storage_ttl_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.PostIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid post_interval (must be positive seconds)")
	}
	cfg.PostInterval = time.Duration(cfg.PostIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if raw := strings.TrimSpace(cfg.BotIDRaw); raw != "" {
		id, err := dbl.ParseBotID(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bot_id: %w", err)
		}
		cfg.BotID = id
	}

	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		cfg.WebhookPath = "/" + cfg.WebhookPath
	}
	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))

	return &cfg, nil
}
