package handler

import (
	"net/http"

	"github.com/SergeiKhy/shorturl/internal/middleware"
	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxBodyBytes предел тела запроса
const maxBodyBytes = 1 << 20

type ShortURLHandler struct {
	shorten  service.ShortenService
	resolver service.Resolver
	secret   *middleware.SharedSecret
	scheme   string
	logger   *zap.Logger
}

// NewShortURLHandler scheme используется в возвращаемой короткой ссылке, по умолчанию https
func NewShortURLHandler(
	shorten service.ShortenService,
	resolver service.Resolver,
	secret *middleware.SharedSecret,
	scheme string,
	logger *zap.Logger,
) *ShortURLHandler {
	if scheme == "" {
		scheme = "https"
	}
	return &ShortURLHandler{
		shorten:  shorten,
		resolver: resolver,
		secret:   secret,
		scheme:   scheme,
		logger:   logger,
	}
}

// Shorten godoc
// @Summary Create a short url
// @Description Requires the shared secret in the sid query parameter
// @Accept json
// @Produce json
// @Param sid query string true "Shared secret"
// @Param request body models.CreateShortURLInput true "Destination"
// @Success 200 {string} string "Public short url"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /urls [post]
func (h *ShortURLHandler) Shorten(c *gin.Context) {
	// POST /urls/<suffix> отвечает так же, как неверный секрет
	if c.Param("suffix") != "" {
		respondNotFound(c)
		return
	}
	if !h.secret.Authorize(c) {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req models.CreateShortURLInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Body must be a JSON object with a non-empty url field")
		return
	}

	code, err := h.shorten.Shorten(c.Request.Context(), req.URL)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, h.publicURL(c.Request.Host, code))
}

// Redirect godoc
// @Summary Redirect to the destination
// @Param code path string true "Short code"
// @Success 303
// @Failure 404 {object} ErrorResponse
// @Router /urls/{code} [get]
func (h *ShortURLHandler) Redirect(c *gin.Context) {
	meta := models.ClickMeta{
		Addr:     c.GetHeader("X-Forwarded-For"),
		Referrer: c.GetHeader("Referer"),
		Agent:    c.GetHeader("User-Agent"),
	}

	destination, err := h.resolver.Resolve(c.Request.Context(), c.Param("suffix"), meta)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	// Адрес отдаётся как сохранён, c.Redirect переписал бы относительные значения
	c.Header("Location", destination)
	c.Status(http.StatusSeeOther)
}

func (h *ShortURLHandler) publicURL(host, code string) string {
	return h.scheme + "://" + host + "/" + code
}
