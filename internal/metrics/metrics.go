// Package metrics счётчики и гистограммы Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы резолва короткой ссылки
const (
	RedirectFound    = "found"
	RedirectNotFound = "not_found"
	RedirectError    = "error"
)

// Состояния записи клика
const (
	ClickRecorded = "recorded"
	ClickFailed   = "failed"
	ClickDropped  = "dropped"
)

var (
	ShortURLsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shorturl_created_total",
		Help: "Количество созданных коротких ссылок",
	})

	CodeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shorturl_code_conflicts_total",
		Help: "Количество коллизий идентификаторов при создании ссылки",
	})

	Redirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shorturl_redirects_total",
		Help: "Количество резолвов коротких ссылок по исходу",
	}, []string{"outcome"})

	Clicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shorturl_clicks_total",
		Help: "Записанные, потерянные и неудачные клики",
	}, []string{"state"})

	ClickQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shorturl_click_queue_depth",
		Help: "Клики в буфере процессора, ожидающие записи",
	})

	ClickQueueCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shorturl_click_queue_capacity",
		Help: "Ёмкость буфера процессора кликов",
	})

	RateLimitVisitors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shorturl_rate_limit_visitors",
		Help: "Количество клиентов, отслеживаемых rate limiter",
	})

	AnalyticsCodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shorturl_analytics_codes",
		Help:    "Количество кодов в одном запросе аналитики",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shorturl_http_request_duration_seconds",
		Help:    "Время обработки HTTP запроса",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"route", "method", "status"})
)

// Handler отдаёт метрики в формате Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}
