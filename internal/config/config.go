// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobradar/crawler/internal/crawler"
	"github.com/jobradar/crawler/internal/queue"
	"github.com/jobradar/crawler/internal/request"
	"github.com/jobradar/crawler/internal/store"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	DB        DBConfig                  `mapstructure:"db"`
	Redis     RedisConfig               `mapstructure:"redis"`
	PubSub    PubSubConfig              `mapstructure:"pubsub"`
	Archive   ArchiveConfig             `mapstructure:"archive"`
	HTTP      HTTPConfig                `mapstructure:"http"`
	Worker    WorkerConfig              `mapstructure:"worker"`
	Schedule  ScheduleConfig            `mapstructure:"schedule"`
	Platforms map[string]PlatformConfig `mapstructure:"platforms"`
}

// ServerConfig controls the query API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DBConfig controls access to the relational store.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StoreConfig converts the DB knobs into the repository pool config.
func (c DBConfig) StoreConfig() store.Config {
	return store.Config{DSN: c.DSN, MaxConns: int32(c.MaxConns)}
}

// RedisConfig locates the metadata cache.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// PubSubConfig names the broker resources for the two task lanes. When
// disabled the worker falls back to the in-process queue.
type PubSubConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	ProjectID            string `mapstructure:"project_id"`
	TopicDefault         string `mapstructure:"topic_default"`
	TopicCategory        string `mapstructure:"topic_category"`
	SubscriptionDefault  string `mapstructure:"subscription_default"`
	SubscriptionCategory string `mapstructure:"subscription_category"`
}

// QueueConfig maps the flat broker settings onto the per-lane form the queue
// provider wants.
func (c PubSubConfig) QueueConfig() queue.PubSubConfig {
	return queue.PubSubConfig{
		ProjectID: c.ProjectID,
		Topics: map[queue.Lane]string{
			queue.LaneDefault:  c.TopicDefault,
			queue.LaneCategory: c.TopicCategory,
		},
		Subscriptions: map[queue.Lane]string{
			queue.LaneDefault:  c.SubscriptionDefault,
			queue.LaneCategory: c.SubscriptionCategory,
		},
	}
}

// ArchiveConfig controls the optional raw-content archive.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// HTTPConfig configures the shared outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxRetries       int     `mapstructure:"max_retries"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
	RatePerHost      float64 `mapstructure:"rate_per_host"`
	RateBurst        int     `mapstructure:"rate_burst"`
}

// ClientConfig converts the HTTP knobs into a request client config.
func (c HTTPConfig) ClientConfig() request.Config {
	return request.Config{
		Timeout:     time.Duration(c.TimeoutSeconds) * time.Second,
		MaxAttempts: c.MaxRetries + 1,
		BaseDelay:   time.Duration(c.BackoffInitialMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.BackoffMaxMs) * time.Millisecond,
		RatePerHost: c.RatePerHost,
		RateBurst:   c.RateBurst,
	}
}

// WorkerConfig governs the queue consumer.
type WorkerConfig struct {
	DetailLimit int `mapstructure:"detail_limit"`
}

// ScheduleConfig holds the cron expression for the daily per-platform
// workflow.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// PlatformConfig carries the per-platform crawl knobs.
type PlatformConfig struct {
	Enabled    bool              `mapstructure:"enabled"`
	MaxPages   int               `mapstructure:"max_pages"`
	MaxWorkers int               `mapstructure:"max_workers"`
	Headers    map[string]string `mapstructure:"headers"`
}

// Settings converts the platform knobs into orchestrator settings.
func (p PlatformConfig) Settings() crawler.Settings {
	return crawler.Settings{MaxWorkers: p.MaxWorkers}
}

// Load builds a Config from disk/environment. An empty path loads defaults
// and environment overrides only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.topic_default", "crawler-default")
	v.SetDefault("pubsub.topic_category", "crawler-category")
	v.SetDefault("pubsub.subscription_default", "crawler-default-sub")
	v.SetDefault("pubsub.subscription_category", "crawler-category-sub")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.prefix", "raw")
	v.SetDefault("http.timeout_seconds", 20)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.rate_per_host", 4)
	v.SetDefault("http.rate_burst", 2)
	v.SetDefault("worker.detail_limit", 200)
	v.SetDefault("schedule.cron", "0 2 * * *")

	for _, p := range crawler.Platforms() {
		key := "platforms." + string(p)
		v.SetDefault(key+".enabled", true)
		v.SetDefault(key+".max_pages", 5)
		v.SetDefault(key+".max_workers", 4)
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Worker.DetailLimit <= 0 {
		return fmt.Errorf("worker.detail_limit must be > 0")
	}
	if c.PubSub.Enabled && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub is enabled")
	}
	if c.Archive.Enabled && c.Archive.GCSBucket == "" {
		return fmt.Errorf("archive.gcs_bucket must be set when the archive is enabled")
	}
	for name, p := range c.Platforms {
		if !crawler.Platform(name).Valid() {
			return fmt.Errorf("unknown platform %q in platforms section", name)
		}
		if p.Enabled && p.MaxWorkers <= 0 {
			return fmt.Errorf("platforms.%s.max_workers must be > 0", name)
		}
	}
	return nil
}

// EnabledPlatforms returns the enabled platforms in stable order.
func (c Config) EnabledPlatforms() []crawler.Platform {
	var out []crawler.Platform
	for name, p := range c.Platforms {
		if p.Enabled {
			out = append(out, crawler.Platform(name))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Platform returns the per-platform knobs, falling back to defaults for
// platforms missing from the config file.
func (c Config) Platform(p crawler.Platform) PlatformConfig {
	if pc, ok := c.Platforms[string(p)]; ok {
		return pc
	}
	return PlatformConfig{Enabled: true, MaxPages: 5, MaxWorkers: 4}
}
