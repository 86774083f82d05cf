package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingSecret = errors.New("SHORTEN_SECRET must be set")

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Clicks    ClicksConfig
	Metrics   MetricsConfig
	Sentry    SentryConfig
}

type AppConfig struct {
	Port         string
	PublicScheme string // схема в ссылках, которые возвращает POST /urls
	LogLevel     string
}

type DBConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	MaxConns       int32
	AcquireTimeout time.Duration // сколько ждать свободное соединение из пула
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled кэш включается только при заданном REDIS_HOST
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct {
	ShortenSecret string // значение параметра sid для POST /urls
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

type ClicksConfig struct {
	Workers    int // 0 - синхронная запись клика
	BufferSize int
	MaxRetries int
}

type MetricsConfig struct {
	Port string
}

type SentryConfig struct {
	DSN string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env опционален, переменные окружения читаются в любом случае
	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.PublicScheme = v.GetString("PUBLIC_SCHEME")
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.MaxConns = v.GetInt32("DB_MAX_CONNS")
	cfg.DB.AcquireTimeout = v.GetDuration("DB_ACQUIRE_TIMEOUT")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")

	cfg.Auth.ShortenSecret = v.GetString("SHORTEN_SECRET")

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")

	cfg.Clicks.Workers = v.GetInt("CLICK_WORKERS")
	cfg.Clicks.BufferSize = v.GetInt("CLICK_BUFFER")
	cfg.Clicks.MaxRetries = v.GetInt("CLICK_MAX_RETRIES")

	cfg.Metrics.Port = v.GetString("METRICS_PORT")
	cfg.Sentry.DSN = v.GetString("SENTRY_DSN")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "6980")
	v.SetDefault("PUBLIC_SCHEME", "https")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_ACQUIRE_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("CLICK_WORKERS", 3)
	v.SetDefault("CLICK_BUFFER", 1000)
	v.SetDefault("CLICK_MAX_RETRIES", 3)
	v.SetDefault("METRICS_PORT", "9090")
}

// Validate проверяет значения, без которых сервис не может работать корректно
func (c *Config) Validate() error {
	if c.Auth.ShortenSecret == "" {
		return ErrMissingSecret
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DB.MaxConns)
	}
	if c.DB.AcquireTimeout <= 0 {
		return fmt.Errorf("DB_ACQUIRE_TIMEOUT must be positive, got %s", c.DB.AcquireTimeout)
	}
	if c.Clicks.Workers < 0 {
		return fmt.Errorf("CLICK_WORKERS must not be negative, got %d", c.Clicks.Workers)
	}
	if c.App.PublicScheme != "http" && c.App.PublicScheme != "https" {
		return fmt.Errorf("PUBLIC_SCHEME must be http or https, got %q", c.App.PublicScheme)
	}
	return nil
}

// DSN строка подключения к PostgreSQL, учётные данные экранируются
func (c DBConfig) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=disable",
	}
	return dsn.String()
}

func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
