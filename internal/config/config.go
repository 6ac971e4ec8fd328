package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// EnvPrefix namespaces environment overrides, e.g. DAYEDGE_SERVER_PORT.
const EnvPrefix = "DAYEDGE"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	News       NewsConfig       `mapstructure:"news"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Universe   []string         `mapstructure:"universe"`
	Notifiers  []NotifierConfig `mapstructure:"notifiers"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	APIKey          string        `mapstructure:"api_key"`
	MaxJobs         int           `mapstructure:"max_jobs"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MarketDataConfig selects and tunes the market data provider.
type MarketDataConfig struct {
	Provider          string        `mapstructure:"provider"` // "yahoo" or "alpaca"
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	APISecret         string        `mapstructure:"api_secret"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RatePerSecond     float64       `mapstructure:"rate_per_second"`
	Burst             int           `mapstructure:"burst"`
	MovingAverageDays int           `mapstructure:"moving_average_days"`
	MovingAverageType string        `mapstructure:"moving_average_type"` // "sma" or "ema"
	AverageVolumeDays int           `mapstructure:"average_volume_days"`
}

// NewsConfig selects the catalyst source. An empty or "none" provider
// disables catalysts.
type NewsConfig struct {
	Provider string        `mapstructure:"provider"` // "", "none" or "newsapi"
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type ScanConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	SymbolTimeout time.Duration `mapstructure:"symbol_timeout"`
	NewsTimeout   time.Duration `mapstructure:"news_timeout"`
	RunTimeout    time.Duration `mapstructure:"run_timeout"`
	BatchSize     int           `mapstructure:"batch_size"`
	ShowAll       bool          `mapstructure:"show_all"`

	MorningMinChange float64 `mapstructure:"morning_min_change"` // percent
}

type ScoringConfig struct {
	GapPolicy           string  `mapstructure:"gap_policy"` // "long" or "symmetric"
	NearHighTolerance   float64 `mapstructure:"near_high_tolerance"`
	StrongCloseFraction float64 `mapstructure:"strong_close_fraction"`
}

type SchedulerConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Cron        string `mapstructure:"cron"`
	MorningCron string `mapstructure:"morning_cron"` // empty disables the morning check
	Timezone    string `mapstructure:"timezone"`
}

// Location resolves the scheduler timezone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// StorageConfig selects where published scans are persisted.
type StorageConfig struct {
	Type        string      `mapstructure:"type"` // "memory", "localfs", "s3" or "redis"
	HistorySize int         `mapstructure:"history_size"`
	Path        string      `mapstructure:"path"` // For localfs
	S3          S3Config    `mapstructure:"s3"`
	Redis       RedisConfig `mapstructure:"redis"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
}

// NotifierConfig configures one post-scan notifier.
type NotifierConfig struct {
	Type    string         `mapstructure:"type"` // "webhook" or "telegram"
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// secretEnv binds well-known provider variables so secrets never need to
// live in the config file.
var secretEnv = map[string][]string{
	"server.api_key":         {"DAYEDGE_API_KEY"},
	"market_data.api_key":    {"DAYEDGE_MARKET_DATA_API_KEY", "APCA_API_KEY_ID"},
	"market_data.api_secret": {"DAYEDGE_MARKET_DATA_API_SECRET", "APCA_API_SECRET_KEY"},
	"news.api_key":           {"DAYEDGE_NEWS_API_KEY", "NEWSAPI_KEY"},
	"storage.s3.access_key":  {"DAYEDGE_STORAGE_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID"},
	"storage.s3.secret_key":  {"DAYEDGE_STORAGE_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"},
	"storage.redis.password": {"DAYEDGE_STORAGE_REDIS_PASSWORD", "REDIS_PASSWORD"},
}

// Load reads configuration from path over Defaults. An optional .env file
// in the working directory is loaded first; an empty path reads defaults
// and environment only.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range secretEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
			}
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("reading config: %w", err))
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}
	if len(cfg.Universe) == 0 {
		cfg.Universe = append([]string(nil), DefaultUniverse...)
	}

	return &cfg, nil
}

// setDefaults registers every leaf of d with viper so that environment
// overrides apply to keys absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.max_jobs", d.Server.MaxJobs)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("market_data.provider", d.MarketData.Provider)
	v.SetDefault("market_data.base_url", d.MarketData.BaseURL)
	v.SetDefault("market_data.api_key", d.MarketData.APIKey)
	v.SetDefault("market_data.api_secret", d.MarketData.APISecret)
	v.SetDefault("market_data.timeout", d.MarketData.Timeout)
	v.SetDefault("market_data.rate_per_second", d.MarketData.RatePerSecond)
	v.SetDefault("market_data.burst", d.MarketData.Burst)
	v.SetDefault("market_data.moving_average_days", d.MarketData.MovingAverageDays)
	v.SetDefault("market_data.moving_average_type", d.MarketData.MovingAverageType)
	v.SetDefault("market_data.average_volume_days", d.MarketData.AverageVolumeDays)

	v.SetDefault("news.provider", d.News.Provider)
	v.SetDefault("news.base_url", d.News.BaseURL)
	v.SetDefault("news.api_key", d.News.APIKey)
	v.SetDefault("news.timeout", d.News.Timeout)
	v.SetDefault("news.cache_ttl", d.News.CacheTTL)

	v.SetDefault("scan.concurrency", d.Scan.Concurrency)
	v.SetDefault("scan.symbol_timeout", d.Scan.SymbolTimeout)
	v.SetDefault("scan.news_timeout", d.Scan.NewsTimeout)
	v.SetDefault("scan.run_timeout", d.Scan.RunTimeout)
	v.SetDefault("scan.batch_size", d.Scan.BatchSize)
	v.SetDefault("scan.show_all", d.Scan.ShowAll)
	v.SetDefault("scan.morning_min_change", d.Scan.MorningMinChange)

	v.SetDefault("scoring.gap_policy", d.Scoring.GapPolicy)
	v.SetDefault("scoring.near_high_tolerance", d.Scoring.NearHighTolerance)
	v.SetDefault("scoring.strong_close_fraction", d.Scoring.StrongCloseFraction)

	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.cron", d.Scheduler.Cron)
	v.SetDefault("scheduler.morning_cron", d.Scheduler.MorningCron)
	v.SetDefault("scheduler.timezone", d.Scheduler.Timezone)

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.history_size", d.Storage.HistorySize)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.s3.bucket", d.Storage.S3.Bucket)
	v.SetDefault("storage.s3.endpoint", d.Storage.S3.Endpoint)
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("storage.s3.access_key", d.Storage.S3.AccessKey)
	v.SetDefault("storage.s3.secret_key", d.Storage.S3.SecretKey)
	v.SetDefault("storage.s3.prefix", d.Storage.S3.Prefix)
	v.SetDefault("storage.redis.addr", d.Storage.Redis.Addr)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", d.Storage.Redis.DB)
	v.SetDefault("storage.redis.namespace", d.Storage.Redis.Namespace)

	v.SetDefault("universe", d.Universe)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxJobs:         50,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		MarketData: MarketDataConfig{
			Provider:          "yahoo",
			Timeout:           10 * time.Second,
			RatePerSecond:     5,
			Burst:             5,
			MovingAverageDays: 20,
			MovingAverageType: "sma",
			AverageVolumeDays: 20,
		},
		News: NewsConfig{
			Provider: "none",
			Timeout:  5 * time.Second,
			CacheTTL: 30 * time.Minute,
		},
		Scan: ScanConfig{
			Concurrency:   8,
			SymbolTimeout: 15 * time.Second,
			NewsTimeout:   5 * time.Second,
			RunTimeout:    10 * time.Minute,
			BatchSize:     50,

			MorningMinChange: 0.3,
		},
		Scoring: ScoringConfig{
			GapPolicy:           string(core.GapPolicyLong),
			NearHighTolerance:   0.97,
			StrongCloseFraction: 2.0 / 3.0,
		},
		Scheduler: SchedulerConfig{
			Enabled:     true,
			Cron:        "0 18 * * MON-FRI",
			MorningCron: "0 9 * * MON-FRI",
			Timezone:    "America/New_York",
		},
		Storage: StorageConfig{
			Type:        "localfs",
			HistorySize: 10,
			Path:        "./data",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				Namespace: "dayedge",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
	}
	missing := func(format string, args ...any) error {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf(format, args...))
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("port must be between 1 and 65535, got %d", c.Server.Port)
	}

	// Market data
	switch c.MarketData.Provider {
	case "yahoo":
	case "alpaca":
		if c.MarketData.APIKey == "" || c.MarketData.APISecret == "" {
			return missing("alpaca requires market_data.api_key and market_data.api_secret")
		}
	default:
		return invalid("unknown market_data.provider %q", c.MarketData.Provider)
	}
	if c.MarketData.RatePerSecond < 0 {
		return invalid("market_data.rate_per_second cannot be negative, got %f", c.MarketData.RatePerSecond)
	}
	if c.MarketData.MovingAverageDays < 1 || c.MarketData.AverageVolumeDays < 1 {
		return invalid("moving_average_days and average_volume_days must be positive")
	}
	if t := c.MarketData.MovingAverageType; t != "sma" && t != "ema" {
		return invalid("moving_average_type must be sma or ema, got %q", t)
	}

	// News
	switch c.News.Provider {
	case "", "none":
	case "newsapi":
		if c.News.APIKey == "" {
			return missing("newsapi requires news.api_key")
		}
	default:
		return invalid("unknown news.provider %q", c.News.Provider)
	}

	// Scan
	if c.Scan.Concurrency < 1 {
		return invalid("scan.concurrency must be positive, got %d", c.Scan.Concurrency)
	}
	if c.Scan.SymbolTimeout <= 0 {
		return invalid("scan.symbol_timeout must be positive, got %s", c.Scan.SymbolTimeout)
	}
	if c.Scan.BatchSize < 0 {
		return invalid("scan.batch_size cannot be negative, got %d", c.Scan.BatchSize)
	}
	if c.Scan.MorningMinChange < 0 {
		return invalid("scan.morning_min_change cannot be negative, got %f", c.Scan.MorningMinChange)
	}

	// Scoring
	switch core.GapPolicy(c.Scoring.GapPolicy) {
	case core.GapPolicyLong, core.GapPolicySymmetric:
	default:
		return invalid("scoring.gap_policy must be long or symmetric, got %q", c.Scoring.GapPolicy)
	}
	if !inUnitInterval(c.Scoring.NearHighTolerance) {
		return invalid("scoring.near_high_tolerance must be in (0,1], got %f", c.Scoring.NearHighTolerance)
	}
	if !inUnitInterval(c.Scoring.StrongCloseFraction) {
		return invalid("scoring.strong_close_fraction must be in (0,1], got %f", c.Scoring.StrongCloseFraction)
	}

	// Scheduler
	if c.Scheduler.Enabled {
		if c.Scheduler.Cron == "" {
			return missing("scheduler.cron is required when the scheduler is enabled")
		}
		if _, err := cron.ParseStandard(c.Scheduler.Cron); err != nil {
			return invalid("scheduler.cron %q: %v", c.Scheduler.Cron, err)
		}
		if c.Scheduler.MorningCron != "" {
			if _, err := cron.ParseStandard(c.Scheduler.MorningCron); err != nil {
				return invalid("scheduler.morning_cron %q: %v", c.Scheduler.MorningCron, err)
			}
		}
		if _, err := c.Scheduler.Location(); err != nil {
			return invalid("scheduler.timezone %q: %v", c.Scheduler.Timezone, err)
		}
	}

	// Storage
	switch c.Storage.Type {
	case "memory":
	case "localfs":
		if c.Storage.Path == "" {
			return missing("storage.path required for localfs storage")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return missing("storage.s3.bucket required for s3 storage")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return missing("storage.redis.addr required for redis storage")
		}
	default:
		return invalid("unknown storage.type %q", c.Storage.Type)
	}
	if c.Storage.HistorySize < 1 {
		return invalid("storage.history_size must be positive, got %d", c.Storage.HistorySize)
	}

	// Notifiers
	for i, n := range c.Notifiers {
		if n.Type != "webhook" && n.Type != "telegram" {
			return invalid("notifiers[%d]: unknown type %q", i, n.Type)
		}
	}

	return nil
}

func inUnitInterval(f float64) bool {
	return f > 0 && f <= 1
}
