package handler

import (
	"github.com/SergeiKhy/shorturl/internal/middleware"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig зависимости, которые не относятся к обработчикам
type RouterConfig struct {
	RateLimiter *middleware.RateLimiter
	// Sentry включает перехват паник в Sentry, клиент должен быть инициализирован заранее
	Sentry bool
}

// NewRouter все запросы проходят через один Dispatcher
func NewRouter(
	urls *ShortURLHandler,
	analytics *AnalyticsHandler,
	cfg RouterConfig,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = false

	router.Use(gin.Recovery())
	if cfg.Sentry {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	// Middleware для логгирования и метрик
	router.Use(middleware.RequestLogger(logger), middleware.Metrics())

	// Rate limiting для всех запросов
	if cfg.RateLimiter != nil {
		router.Use(cfg.RateLimiter.Middleware())
	}

	dispatcher := NewDispatcher(urls, analytics)
	router.Any("/*path", dispatcher.Dispatch)
	// Методы вне набора Any тоже получают 405 или 404 от диспетчера
	router.NoRoute(dispatcher.Dispatch)

	return router
}
