package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/imgur-harvester/pkg/httpclient"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName             string        `mapstructure:"app_name"`
	Env                 string        `mapstructure:"app_env"`
	LogLevel            string        `mapstructure:"log_level"`
	SourcesFile         string        `mapstructure:"sources_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`

	ImgurClientID      string        `mapstructure:"imgur_client_id"`
	ImgurBaseURL       string        `mapstructure:"imgur_base_url"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	HTTPMaxBodyBytes   int64         `mapstructure:"http_max_body_bytes"`
	HTTPUserAgent      string        `mapstructure:"http_user_agent"`
	HTTPCAFile         string        `mapstructure:"http_ca_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
	RedisURL               string        `mapstructure:"redis_url"`

	// MetricsAddr enables the ops server (health + /metrics) when set.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads configuration from environment variables and config files and
// validates every setting the harvester runtime needs.
func Load() (*Config, error) {
	cfg, err := LoadClient()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateHarvester(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient reads the same sources as Load but validates only the Imgur
// client and transport settings, for one-shot lookups.
func LoadClient() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "imgur-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 900) // seconds
	v.SetDefault("imgur_client_id", "")
	v.SetDefault("imgur_base_url", "https://api.imgur.com/3")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("http_max_body_bytes", int64(httpclient.DefaultMaxBodyBytes))
	v.SetDefault("http_user_agent", "imgur-harvester/1.0")
	v.SetDefault("http_ca_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/seen.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("redis_url", "")
	v.SetDefault("metrics_addr", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ImgurClientID = strings.TrimSpace(cfg.ImgurClientID)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	cfg.MetricsAddr = strings.TrimSpace(cfg.MetricsAddr)

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.HTTPMaxBodyBytes <= 0 {
		return nil, fmt.Errorf("invalid http_max_body_bytes (must be positive)")
	}

	return &cfg, nil
}

func (c *Config) validateHarvester() error {
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	c.PollInterval = time.Duration(c.PollIntervalSeconds) * time.Second

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	if strings.EqualFold(strings.TrimSpace(c.StorageType), "redis") && c.RedisURL == "" {
		return fmt.Errorf("redis_url is required when storage_type is redis")
	}
	return nil
}

// HTTPConfig derives the transport settings for the Imgur client.
func (c *Config) HTTPConfig() httpclient.Config {
	return httpclient.Config{
		Timeout:      c.HTTPTimeout,
		UserAgent:    c.HTTPUserAgent,
		CAFile:       c.HTTPCAFile,
		MaxBodyBytes: c.HTTPMaxBodyBytes,
	}
}

// Redacted returns a copy safe to log: the client id keeps its first two
// characters only and the redis url, which may carry a password, is hidden.
func (c Config) Redacted() Config {
	if n := len(c.ImgurClientID); n > 0 {
		keep := min(2, n)
		c.ImgurClientID = c.ImgurClientID[:keep] + strings.Repeat("*", n-keep)
	}
	if c.RedisURL != "" {
		c.RedisURL = "<redacted>"
	}
	return c
}
