package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/SergeiKhy/shorturl/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Имена маршрутов, они же метки метрик
const (
	RouteHealth              = "health"
	RouteAnalyticsItem       = "analytics_item"
	RouteAnalyticsCollection = "analytics_collection"
	RouteURLs                = "urls"
)

const (
	urlsPath      = "/urls"
	analyticsPath = "/urls/analytics"
)

// matcher проверяет путь и возвращает параметры маршрута
type matcher func(path string) (gin.Params, bool)

type route struct {
	name    string
	match   matcher
	methods map[string]gin.HandlerFunc
}

// Dispatcher сопоставляет путь с таблицей маршрутов по порядку, первое совпадение побеждает.
// Шаблон urls текстуально покрывает оба шаблона аналитики, поэтому стоит последним.
type Dispatcher struct {
	routes []route
}

// NewDispatcher собирает таблицу маршрутов в фиксированном порядке
func NewDispatcher(urls *ShortURLHandler, analytics *AnalyticsHandler) *Dispatcher {
	return &Dispatcher{
		routes: []route{
			{
				name:  RouteHealth,
				match: exact("/"),
				methods: map[string]gin.HandlerFunc{
					http.MethodGet: HealthCheck,
				},
			},
			{
				name:  RouteAnalyticsItem,
				match: prefixed(analyticsPath+"/", "codes"),
				methods: map[string]gin.HandlerFunc{
					http.MethodGet: analytics.GetAnalytics,
				},
			},
			{
				name:  RouteAnalyticsCollection,
				match: exact(analyticsPath),
				methods: map[string]gin.HandlerFunc{
					http.MethodPost: analytics.PostAnalytics,
				},
			},
			{
				name:  RouteURLs,
				match: urlsMatcher,
				methods: map[string]gin.HandlerFunc{
					http.MethodGet:  urls.Redirect,
					http.MethodPost: urls.Shorten,
				},
			},
		},
	}
}

// Dispatch обрабатывает любой запрос движка
func (d *Dispatcher) Dispatch(c *gin.Context) {
	path := c.Request.URL.Path

	for _, r := range d.routes {
		params, ok := r.match(path)
		if !ok {
			continue
		}

		c.Set(middleware.RouteKey, r.name)
		c.Params = params

		h, ok := r.methods[c.Request.Method]
		if !ok {
			c.Header("Allow", allowed(r.methods))
			abortWithError(c, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
			return
		}
		h(c)
		return
	}

	respondNotFound(c)
}

// Route имя маршрута, который выбрал бы диспетчер, пусто если ни один
func (d *Dispatcher) Route(path string) string {
	for _, r := range d.routes {
		if _, ok := r.match(path); ok {
			return r.name
		}
	}
	return ""
}

func exact(want string) matcher {
	return func(path string) (gin.Params, bool) {
		return nil, path == want
	}
}

// prefixed совпадает с prefix и кладёт остаток пути в параметр key
func prefixed(prefix, key string) matcher {
	return func(path string) (gin.Params, bool) {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok {
			return nil, false
		}
		return gin.Params{{Key: key, Value: rest}}, true
	}
}

// urlsMatcher /urls или /urls/<suffix>, suffix может быть пустым
func urlsMatcher(path string) (gin.Params, bool) {
	if path == urlsPath {
		return gin.Params{{Key: "suffix", Value: ""}}, true
	}
	return prefixed(urlsPath+"/", "suffix")(path)
}

func allowed(methods map[string]gin.HandlerFunc) string {
	names := make([]string, 0, len(methods))
	for m := range methods {
		names = append(names, m)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// HealthCheck отвечает фиксированным телом
func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "Success")
}
