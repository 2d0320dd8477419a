package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Log      LogConfig
	Redis    RedisConfig
	Search   SearchConfig
	Refresh  RefreshConfig
	PubSub   PubSubConfig
	Provider ProviderConfig
	Database DatabaseConfig
	Admin    AdminConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	FrontendURL string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type RedisConfig struct {
	URL        string
	Host       string
	Port       string
	Password   string
	DB         int
	DefaultTTL time.Duration
}

type SearchConfig struct {
	CacheTTL        time.Duration
	CatalogCacheTTL time.Duration
	AutoTrack       bool
}

type RefreshConfig struct {
	Interval    time.Duration
	Concurrency int
	IdleTimeout time.Duration
}

type PubSubConfig struct {
	Mode string
}

type ProviderConfig struct {
	BaseURL string
	Timeout time.Duration
}

type DatabaseConfig struct {
	DBHost         string
	DBPort         string
	DBName         string
	DBUser         string
	DBPassword     string
	DBSSLMode      string
	ConnectTimeout time.Duration
	PoolMaxConns   int32
}

// Enabled reports whether a catalog database is configured.
func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.DBHost) != ""
}

type AdminConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

const (
	PubSubModeLocal = "local"
	PubSubModeRedis = "redis"
)

var errMissingRequiredEnv = errors.New("missing required environment variables")

// Load reads configuration from the process environment.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return FromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", 600)

	v.SetDefault("SEARCH_CACHE_TTL", 60)
	v.SetDefault("CATALOG_CACHE_TTL", 3600)
	v.SetDefault("SEARCH_AUTO_TRACK", true)

	v.SetDefault("PRICE_REFRESH_INTERVAL_MS", 30000)
	v.SetDefault("REFRESH_CONCURRENCY", 8)
	v.SetDefault("ACTIVE_SEARCH_IDLE_TIMEOUT", "30m")

	v.SetDefault("PUBSUB_MODE", PubSubModeLocal)
	v.SetDefault("PROVIDER_TIMEOUT", "5s")

	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("DB_POOL_MAX_CONNS", 10)

	v.SetDefault("ADMIN_TOKEN_TTL", "1h")
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" {
			missing = append(missing, key)
		}
		return s
	}
	opt := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}
	seconds := func(key string) time.Duration {
		return time.Duration(v.GetInt(key)) * time.Second
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
		FrontendURL: opt("FRONTEND_URL"),
	}

	cfg.Log = LogConfig{
		Level:  opt("LOG_LEVEL"),
		Pretty: v.GetBool("LOG_PRETTY"),
	}

	cfg.Redis = RedisConfig{
		URL:        opt("REDIS_URL"),
		Host:       opt("REDIS_HOST"),
		Port:       opt("REDIS_PORT"),
		Password:   opt("REDIS_PASSWORD"),
		DB:         v.GetInt("REDIS_DB"),
		DefaultTTL: seconds("REDIS_TTL"),
	}

	cfg.Search = SearchConfig{
		CacheTTL:        seconds("SEARCH_CACHE_TTL"),
		CatalogCacheTTL: seconds("CATALOG_CACHE_TTL"),
		AutoTrack:       v.GetBool("SEARCH_AUTO_TRACK"),
	}

	cfg.Refresh = RefreshConfig{
		Interval:    time.Duration(v.GetInt64("PRICE_REFRESH_INTERVAL_MS")) * time.Millisecond,
		Concurrency: v.GetInt("REFRESH_CONCURRENCY"),
		IdleTimeout: v.GetDuration("ACTIVE_SEARCH_IDLE_TIMEOUT"),
	}

	cfg.PubSub = PubSubConfig{Mode: strings.ToLower(opt("PUBSUB_MODE"))}

	cfg.Provider = ProviderConfig{
		BaseURL: opt("PROVIDER_BASE_URL"),
		Timeout: v.GetDuration("PROVIDER_TIMEOUT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:         opt("DB_HOST"),
		DBPort:         opt("DB_PORT"),
		DBName:         opt("DB_NAME"),
		DBUser:         opt("DB_USER"),
		DBPassword:     opt("DB_PASSWORD"),
		DBSSLMode:      opt("DB_SSL_MODE"),
		ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
		PoolMaxConns:   v.GetInt32("DB_POOL_MAX_CONNS"),
	}

	cfg.Admin = AdminConfig{
		JWTSecret: opt("ADMIN_JWT_SECRET"),
		TokenTTL:  v.GetDuration("ADMIN_TOKEN_TTL"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	if cfg.Refresh.Interval <= 0 {
		return Config{}, fmt.Errorf("PRICE_REFRESH_INTERVAL_MS must be positive")
	}
	if cfg.Search.CacheTTL < 0 || cfg.Search.CatalogCacheTTL < 0 {
		return Config{}, fmt.Errorf("cache TTLs must not be negative")
	}
	switch cfg.PubSub.Mode {
	case PubSubModeLocal, PubSubModeRedis:
	default:
		return Config{}, fmt.Errorf("unknown PUBSUB_MODE %q", cfg.PubSub.Mode)
	}

	return cfg, nil
}
