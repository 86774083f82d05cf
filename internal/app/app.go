// Package app собирает сервис из конфигурации: пул PostgreSQL, миграции,
// кэш, сервисы, HTTP сервер и сервер метрик.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SergeiKhy/shorturl/internal/config"
	"github.com/SergeiKhy/shorturl/internal/handler"
	"github.com/SergeiKhy/shorturl/internal/metrics"
	"github.com/SergeiKhy/shorturl/internal/middleware"
	"github.com/SergeiKhy/shorturl/internal/repository"
	"github.com/SergeiKhy/shorturl/internal/service"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db          *repository.PostgresDB
	redis       *repository.RedisDB
	processor   service.ClickProcessor
	rateLimiter *middleware.RateLimiter
	sentry      bool

	router *gin.Engine
}

// NewLogger production логгер, development при LOG_LEVEL=debug
func NewLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

// New подключается к хранилищам и собирает роутер. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.sentry, err = InitSentry(cfg.Sentry.DSN, gin.Mode())
	if err != nil {
		return nil, err
	}
	var reporter service.FailureReporter
	if a.sentry {
		reporter = SentryReporter{}
		logger.Info("Sentry enabled")
	}

	// Подключение к БД (postgres)
	a.db, err = repository.NewPostgresDB(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("Connected to PostgreSQL", zap.Int32("max_conns", cfg.DB.MaxConns))

	if err = repository.Migrate(ctx, a.db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// Инициализация репозиториев
	var shortURLRepo repository.ShortURLRepository = repository.NewShortURLRepository(a.db)
	clickRepo := repository.NewClickRepository(a.db)

	// Redis опционален: без REDIS_HOST коды ищутся только в PostgreSQL
	if cfg.Redis.Enabled() {
		a.redis, err = repository.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		shortURLRepo = repository.NewCachedShortURLRepository(shortURLRepo, repository.NewCacheRepository(a.redis), logger)
		logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	}

	// Запись кликов: worker pool или синхронно при CLICK_WORKERS=0
	var recorder service.ClickRecorder
	if cfg.Clicks.Workers > 0 {
		a.processor = service.NewClickProcessor(clickRepo, service.ClickProcessorConfig{
			Workers:    cfg.Clicks.Workers,
			BufferSize: cfg.Clicks.BufferSize,
			MaxRetries: cfg.Clicks.MaxRetries,
		}, reporter, logger)
		a.processor.Start()
		recorder = a.processor
	} else {
		recorder = service.NewDirectRecorder(clickRepo, reporter, logger)
	}

	shortenService := service.NewShortenService(shortURLRepo, nil)
	resolver := service.NewResolver(shortURLRepo, recorder, nil)
	analyticsService := service.NewAnalyticsService(clickRepo)

	a.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})

	a.router = handler.NewRouter(
		handler.NewShortURLHandler(
			shortenService,
			resolver,
			middleware.NewSharedSecret(cfg.Auth.ShortenSecret),
			cfg.App.PublicScheme,
			logger,
		),
		handler.NewAnalyticsHandler(analyticsService, logger),
		handler.RouterConfig{RateLimiter: a.rateLimiter, Sentry: a.sentry},
		logger,
	)

	return a, nil
}

// Handler HTTP обработчик сервиса
func (a *App) Handler() http.Handler {
	return a.router
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает серверы
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.App.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{
		Addr:              ":" + a.cfg.Metrics.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	serve := func(name string, s *http.Server) {
		a.logger.Info("Server starting", zap.String("server", name), zap.String("addr", s.Addr))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}
	go serve("http", srv)
	go serve("metrics", metricsSrv)

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	srv.SetKeepAlivesEnabled(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		runErr = errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		_ = metricsSrv.Close()
		runErr = errors.Join(runErr, fmt.Errorf("metrics shutdown: %w", err))
	}

	a.logger.Info("Server exited")
	return runErr
}

// Close дописывает принятые клики и закрывает соединения. Вызывается после Run.
func (a *App) Close() {
	if a.processor != nil {
		a.processor.Stop()
	}
	if a.rateLimiter != nil {
		a.rateLimiter.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.sentry {
		sentry.Flush(sentryFlushTimeout)
	}
}
