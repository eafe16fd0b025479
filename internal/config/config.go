package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port            string `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// AnalyticsConfig mirrors the tracking switches handed to the tracker at startup.
type AnalyticsConfig struct {
	TrackClicks   bool   `mapstructure:"track_clicks"`
	TrackSessions bool   `mapstructure:"track_sessions"`
	TrackLocation bool   `mapstructure:"track_location"`
	RetentionDays int    `mapstructure:"retention_days"`
	DailyDays     int    `mapstructure:"daily_days"`
	Timezone      string `mapstructure:"timezone"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

type CacheConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxSizeMB   int  `mapstructure:"max_size_mb"`
	TTLSeconds  int  `mapstructure:"ttl_seconds"`
	CounterSize int  `mapstructure:"counter_size"`
}

type StorageConfig struct {
	Driver string       `mapstructure:"driver"` // sqlite | redis | memory
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

type RemoteConfig struct {
	Driver            string  `mapstructure:"driver"` // postgres | http | none
	PostgresDSN       string  `mapstructure:"postgres_dsn"`
	BaseURL           string  `mapstructure:"base_url"`
	Token             string  `mapstructure:"token"`
	PageSize          int     `mapstructure:"page_size"`
	MaxPages          int     `mapstructure:"max_pages"`
	BatchSize         int     `mapstructure:"batch_size"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RetentionSpec string `mapstructure:"retention_spec"`
	SyncSpec      string `mapstructure:"sync_spec"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Load reads config.yaml from the working directory or ./configs and applies
// LANDING_ANALYTICS_* environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return load(v)
}

// LoadFile reads the given config file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("LANDING_ANALYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad panics when the configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	switch c.Remote.Driver {
	case "none":
	case "postgres":
		if c.Remote.PostgresDSN == "" {
			return errors.New("remote.postgres_dsn is required for the postgres driver")
		}
	case "http":
		if c.Remote.BaseURL == "" {
			return errors.New("remote.base_url is required for the http driver")
		}
	default:
		return fmt.Errorf("unsupported remote driver %q", c.Remote.Driver)
	}

	if c.Remote.PageSize <= 0 || c.Remote.BatchSize <= 0 {
		return errors.New("remote.page_size and remote.batch_size must be positive")
	}
	if c.Analytics.RetentionDays < 0 {
		return errors.New("analytics.retention_days cannot be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves the analytics time zone used for daily buckets.
func (c *Config) Location() (*time.Location, error) {
	if c.Analytics.Timezone == "" || c.Analytics.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid analytics.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "")
	v.SetDefault("server.shutdown_timeout", 5)

	v.SetDefault("analytics.track_clicks", true)
	v.SetDefault("analytics.track_sessions", true)
	v.SetDefault("analytics.track_location", false)
	v.SetDefault("analytics.retention_days", 90)
	v.SetDefault("analytics.daily_days", 7)
	v.SetDefault("analytics.timezone", "Local")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "./data/analytics.db")
	v.SetDefault("storage.redis.address", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.key_prefix", "landing:")
	v.SetDefault("storage.cache.enabled", true)
	v.SetDefault("storage.cache.max_size_mb", 16)
	v.SetDefault("storage.cache.ttl_seconds", 300)
	v.SetDefault("storage.cache.counter_size", 1000)

	v.SetDefault("remote.driver", "none")
	v.SetDefault("remote.page_size", 500)
	v.SetDefault("remote.max_pages", 20)
	v.SetDefault("remote.batch_size", 50)
	v.SetDefault("remote.timeout_seconds", 15)
	v.SetDefault("remote.requests_per_second", 20.0)
	v.SetDefault("remote.burst", 50)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.retention_spec", "@daily")
	v.SetDefault("scheduler.sync_spec", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
