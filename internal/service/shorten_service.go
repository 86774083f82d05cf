package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SergeiKhy/shorturl/internal/idgen"
	"github.com/SergeiKhy/shorturl/internal/metrics"
	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/SergeiKhy/shorturl/internal/repository"
)

// Константы сервиса
const (
	retention       = 365 * 24 * time.Hour // срок жизни ссылки, только метаданные
	maxCodeAttempts = 3
)

// IDGenerator источник идентификаторов, *idgen.Generator
type IDGenerator interface {
	NewInternalID() string
	NewPublicCode() string
}

// ShortenService создание коротких ссылок
type ShortenService interface {
	Shorten(ctx context.Context, destination string) (string, error)
}

type shortenService struct {
	shortURLRepo repository.ShortURLRepository
	ids          IDGenerator
	now          func() time.Time
}

// NewShortenService создаёт новый экземпляр сервиса
func NewShortenService(shortURLRepo repository.ShortURLRepository, ids IDGenerator) ShortenService {
	if ids == nil {
		ids = &idgen.Generator{}
	}
	return &shortenService{
		shortURLRepo: shortURLRepo,
		ids:          ids,
		now:          time.Now,
	}
}

// Shorten сохраняет destination как есть и возвращает публичный код.
// При коллизии id или кода генерирует оба заново, не более maxCodeAttempts раз.
// Строку, которую хранилище не может сохранить байт в байт, отклоняет с ErrInvalidDestination.
func (s *shortenService) Shorten(ctx context.Context, destination string) (string, error) {
	if !utf8.ValidString(destination) || strings.ContainsRune(destination, 0) {
		return "", ErrInvalidDestination
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		shortURL := &models.ShortURL{
			ID:     s.ids.NewInternalID(),
			Code:   s.ids.NewPublicCode(),
			URL:    destination,
			Expiry: s.now().Add(retention),
		}

		err := s.shortURLRepo.Create(ctx, shortURL)
		if err == nil {
			metrics.ShortURLsCreated.Inc()
			return shortURL.Code, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return "", err
		}
		metrics.CodeConflicts.Inc()
	}

	return "", fmt.Errorf("%w: %d attempts", ErrCodeExhausted, maxCodeAttempts)
}
