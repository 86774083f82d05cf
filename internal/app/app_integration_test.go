package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SergeiKhy/shorturl/internal/app"
	"github.com/SergeiKhy/shorturl/internal/config"
	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const testSecret = "integration-secret"

// TestEnv хранит окружение для интеграционных тестов
type TestEnv struct {
	cfg config.Config
}

// setupTestEnv создаёт тестовое окружение с PostgreSQL и Redis контейнерами
func setupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := t.Context()

	// Запускаем контейнер PostgreSQL
	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shorturl"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbContainer.Terminate(context.Background()) })

	// Запускаем контейнер Redis
	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisContainer.Terminate(context.Background()) })

	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return &TestEnv{cfg: config.Config{
		App: config.AppConfig{Port: "0", PublicScheme: "https"},
		DB: config.DBConfig{
			Host:           dbHost,
			Port:           dbPort.Port(),
			User:           "user",
			Password:       "password",
			Name:           "shorturl",
			MaxConns:       5,
			AcquireTimeout: time.Second,
		},
		Redis: config.RedisConfig{Host: redisHost, Port: redisPort.Port()},
		Auth:  config.AuthConfig{ShortenSecret: testSecret},
		// Высокий лимит для тестов
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000},
		Clicks:    config.ClicksConfig{Workers: 2, BufferSize: 100, MaxRetries: 3},
		Metrics:   config.MetricsConfig{Port: "0"},
	}}
}

// start собирает приложение; клики дописываются при Close
func (env *TestEnv) start(t *testing.T, cfg config.Config) *app.App {
	t.Helper()
	require.NoError(t, cfg.Validate())

	a, err := app.New(t.Context(), &cfg, zap.NewNop())
	require.NoError(t, err)
	return a
}

func serve(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Host = "sho.rt"
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func shorten(t *testing.T, h http.Handler, destination string) string {
	t.Helper()
	body, err := json.Marshal(map[string]string{"url": destination})
	require.NoError(t, err)

	w := serve(h, http.MethodPost, "/urls?sid="+testSecret, string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var shortURL string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shortURL))
	code, ok := strings.CutPrefix(shortURL, "https://sho.rt/")
	require.True(t, ok, shortURL)
	return code
}

// TestIntegration_EndToEnd проверяет создание, редирект и аналитику через реальные хранилища
func TestIntegration_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{name: "worker pool и кэш", mutate: func(*config.Config) {}},
		{name: "синхронная запись без кэша", mutate: func(cfg *config.Config) {
			cfg.Clicks.Workers = 0
			cfg.Redis = config.RedisConfig{}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := env.cfg
			tt.mutate(&cfg)
			a := env.start(t, cfg)
			h := a.Handler()

			clicked := shorten(t, h, "https://example.com/a")
			idle := shorten(t, h, "https://example.com/b")
			assert.NotEqual(t, clicked, idle)

			// health
			w := serve(h, http.MethodGet, "/", "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "Success", w.Body.String())

			// Два редиректа: второй идёт через кэш, если он включён
			for i := 0; i < 2; i++ {
				w := serve(h, http.MethodGet, "/urls/"+clicked, "",
					"X-Forwarded-For", fmt.Sprintf("192.168.1.%d", i),
					"User-Agent", "curl/8.0",
				)
				require.Equal(t, http.StatusSeeOther, w.Code)
				assert.Equal(t, "https://example.com/a", w.Header().Get("Location"))
			}

			w = serve(h, http.MethodGet, "/urls/unknown", "")
			assert.Equal(t, http.StatusNotFound, w.Code)

			// Close дописывает клики из буфера worker pool
			a.Close()

			a = env.start(t, cfg)
			defer a.Close()
			h = a.Handler()

			w = serve(h, http.MethodGet, "/urls/analytics/"+clicked+","+idle, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var result models.AnalyticsResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			require.Len(t, result, 1)
			assert.NotContains(t, result, idle)
			require.Len(t, result[clicked], 2)
			assert.Equal(t, "192.168.1.0", result[clicked][0].Addr)
			assert.Equal(t, "192.168.1.1", result[clicked][1].Addr)
			assert.Equal(t, "curl/8.0", result[clicked][0].Agent)
			assert.Empty(t, result[clicked][0].Referrer)

			w = serve(h, http.MethodGet, "/urls/analytics/"+idle, "")
			assert.Equal(t, http.StatusNotFound, w.Code)

			w = serve(h, http.MethodPost, "/urls/analytics", `["`+idle+`"]`)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{}`, w.Body.String())

			w = serve(h, http.MethodPost, "/urls/analytics", `[]`)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

// TestIntegration_Auth проверяет отказы при создании ссылки
func TestIntegration_Auth(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	a := env.start(t, env.cfg)
	defer a.Close()
	h := a.Handler()

	w := serve(h, http.MethodPost, "/urls", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(h, http.MethodPost, "/urls?sid=wrong", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h, http.MethodPost, "/urls/abc?sid="+testSecret, `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(h, http.MethodPost, "/urls?sid="+testSecret, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestIntegration_UnusualInput проверяет длинные значения и байты, которые PostgreSQL не хранит в text
func TestIntegration_UnusualInput(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	a := env.start(t, env.cfg)
	h := a.Handler()

	destination := "https://example.com/" + strings.Repeat("x", 5000)
	code := shorten(t, h, destination)

	chain := strings.Repeat("10.0.0.1, ", 30)
	w := serve(h, http.MethodGet, "/urls/"+code, "",
		"X-Forwarded-For", chain,
		"Referer", "https://ref.example/\x00",
		"User-Agent", "agent\xff",
	)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, destination, w.Header().Get("Location"))

	for _, target := range []string{"/urls/%FF", "/urls/%00", "/urls/analytics/%FF"} {
		w = serve(h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}

	w = serve(h, http.MethodPost, "/urls/analytics", `["\u0000"]`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	w = serve(h, http.MethodPost, "/urls?sid="+testSecret, `{"url":"https://example.com/\u0000"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Close дописывает клики из буфера worker pool
	a.Close()

	a = env.start(t, env.cfg)
	defer a.Close()
	h = a.Handler()

	w = serve(h, http.MethodGet, "/urls/analytics/"+code, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result models.AnalyticsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result[code], 1)
	assert.Equal(t, chain, result[code][0].Addr)
	assert.Equal(t, "https://ref.example/", result[code][0].Referrer)
	assert.Equal(t, "agent\uFFFD", result[code][0].Agent)
}

// TestIntegration_Run проверяет запуск и остановку серверов по отмене контекста
func TestIntegration_Run(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	a := env.start(t, env.cfg)
	defer a.Close()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}
