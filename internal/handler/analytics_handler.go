package handler

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/shorturl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  *zap.Logger
}

func NewAnalyticsHandler(service service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: logger}
}

// GetAnalytics godoc
// @Summary Clicks for comma-separated codes
// @Produce json
// @Param codes path string true "code1,code2,..."
// @Success 200 {object} models.AnalyticsResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /urls/analytics/{codes} [get]
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	codes := strings.Split(c.Param("codes"), ",")

	result, err := h.service.Analytics(c.Request.Context(), codes)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if len(result) == 0 {
		abortWithError(c, http.StatusNotFound, "not_found", "No clicks recorded for these codes")
		return
	}

	c.JSON(http.StatusOK, result)
}

// PostAnalytics godoc
// @Summary Clicks for a JSON array of codes
// @Accept json
// @Produce json
// @Param request body []string true "Codes"
// @Success 200 {object} models.AnalyticsResult
// @Failure 400 {object} ErrorResponse
// @Router /urls/analytics [post]
func (h *AnalyticsHandler) PostAnalytics(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var codes []string
	if err := c.ShouldBindJSON(&codes); err != nil {
		h.logger.Warn("Invalid analytics body", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Body must be a JSON array of codes")
		return
	}

	result, err := h.service.Analytics(c.Request.Context(), codes)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
