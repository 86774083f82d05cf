package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SecretParam имя query параметра с общим секретом
const SecretParam = "sid"

// SharedSecret проверка общего секрета для создания ссылок.
// Отсутствующий секрет даёт 401, неверный 404, чтобы не подтверждать
// существование защищённого маршрута.
type SharedSecret struct {
	secret []byte
}

// NewSharedSecret создаёт проверку для заданного секрета
func NewSharedSecret(secret string) *SharedSecret {
	return &SharedSecret{secret: []byte(secret)}
}

// Authorize пишет ответ и прерывает запрос, если секрет не подошёл.
// В отличие от middleware не вызывает c.Next: диспетчер решает сам.
func (s *SharedSecret) Authorize(c *gin.Context) bool {
	sid, ok := c.GetQuery(SecretParam)
	if !ok || sid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "missing_secret",
			"message": "sid query parameter is required",
		})
		return false
	}

	// Валидация с использованием constant-time comparison
	if len(s.secret) == 0 || subtle.ConstantTimeCompare([]byte(sid), s.secret) != 1 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Not found",
		})
		return false
	}

	return true
}
