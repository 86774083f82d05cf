package config_test

import (
	"testing"
	"time"

	"github.com/SergeiKhy/shorturl/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults проверяет значения по умолчанию, когда задан только секрет
func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHORTEN_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "6980", cfg.App.Port)
	assert.Equal(t, "https", cfg.App.PublicScheme)
	assert.Equal(t, int32(25), cfg.DB.MaxConns)
	assert.Equal(t, 3*time.Second, cfg.DB.AcquireTimeout)
	assert.Equal(t, 3, cfg.Clicks.Workers)
	assert.Equal(t, "s3cret", cfg.Auth.ShortenSecret)
	assert.False(t, cfg.Redis.Enabled())
}

// TestLoad_FromEnv проверяет чтение переменных окружения
func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHORTEN_SECRET", "s3cret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "vromio")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_ACQUIRE_TIMEOUT", "750ms")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("CLICK_WORKERS", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://vromio:pw@db:5432/postgres?sslmode=disable", cfg.DB.DSN())
	assert.Equal(t, 750*time.Millisecond, cfg.DB.AcquireTimeout)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, 0, cfg.Clicks.Workers)
}

// TestDBConfig_DSN проверяет экранирование учётных данных в строке подключения
func TestDBConfig_DSN(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: "5432", User: "vromio", Password: "p@ss/w:rd?#", Name: "links"}

	dsn := cfg.DSN()

	assert.Equal(t, "postgres://vromio:p%40ss%2Fw%3Ard%3F%23@db:5432/links?sslmode=disable", dsn)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, "vromio", poolCfg.ConnConfig.User)
	assert.Equal(t, "p@ss/w:rd?#", poolCfg.ConnConfig.Password)
	assert.Equal(t, "db", poolCfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), poolCfg.ConnConfig.Port)
	assert.Equal(t, "links", poolCfg.ConnConfig.Database)
}

// TestLoad_RedisPassword проверяет чтение пароля Redis
func TestLoad_RedisPassword(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHORTEN_SECRET", "s3cret")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PASSWORD", "r3dis")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "r3dis", cfg.Redis.Password)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}

// TestLoad_MissingSecret проверяет, что без секрета сервис не стартует
func TestLoad_MissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHORTEN_SECRET", "")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingSecret)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			App:  config.AppConfig{PublicScheme: "https"},
			DB:   config.DBConfig{MaxConns: 5, AcquireTimeout: time.Second},
			Auth: config.AuthConfig{ShortenSecret: "x"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"пул без соединений", func(c *config.Config) { c.DB.MaxConns = 0 }},
		{"нулевой таймаут ожидания", func(c *config.Config) { c.DB.AcquireTimeout = 0 }},
		{"отрицательное число воркеров", func(c *config.Config) { c.Clicks.Workers = -1 }},
		{"неизвестная схема", func(c *config.Config) { c.App.PublicScheme = "ftp" }},
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
