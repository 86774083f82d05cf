package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/shorturl/internal/repository"
	"github.com/SergeiKhy/shorturl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: kind, Message: message})
}

// respondServiceError переводит ошибку сервиса в ответ.
// Сбои хранилища не маскируются под 404: 503 при недоступности, иначе 500.
func respondServiceError(c *gin.Context, logger *zap.Logger, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrLinkNotFound):
		abortWithError(c, http.StatusNotFound, "not_found", "Url not found")
	case errors.Is(err, service.ErrEmptyCodes):
		abortWithError(c, http.StatusBadRequest, "empty_codes", "Must send a list of codes")
	case errors.Is(err, service.ErrTooManyCodes):
		abortWithError(c, http.StatusBadRequest, "too_many_codes", err.Error())
	case errors.Is(err, service.ErrInvalidDestination):
		abortWithError(c, http.StatusBadRequest, "invalid_url", "Url must be valid UTF-8 without NUL characters")
	case errors.Is(err, repository.ErrInvalidData):
		logger.Warn("Value rejected by storage", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Value cannot be stored")
	case errors.Is(err, service.ErrCodeExhausted):
		logger.Error("Could not allocate short code", zap.Error(err))
		abortWithError(c, http.StatusConflict, "conflict", "Could not allocate a short code, retry the request")
	case errors.Is(err, repository.ErrUnavailable):
		logger.Error("Storage unavailable", zap.Error(err))
		abortWithError(c, http.StatusServiceUnavailable, "unavailable", "Storage is temporarily unavailable")
	default:
		logger.Error("Request failed", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func respondNotFound(c *gin.Context) {
	abortWithError(c, http.StatusNotFound, "not_found", "Not found")
}
