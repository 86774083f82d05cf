package repository

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/shorturl/internal/models"
	"go.uber.org/zap"
)

const defaultCacheTTL = 24 * time.Hour

// CachedShortURLRepository cache-aside поверх ShortURLRepository.
// Короткие ссылки не изменяются, поэтому инвалидация не нужна.
// Ошибки кэша логируются и не влияют на результат.
type CachedShortURLRepository struct {
	next   ShortURLRepository
	cache  CacheRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewCachedShortURLRepository(next ShortURLRepository, cache CacheRepository, logger *zap.Logger) *CachedShortURLRepository {
	return &CachedShortURLRepository{
		next:   next,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

func (r *CachedShortURLRepository) Create(ctx context.Context, shortURL *models.ShortURL) error {
	if err := r.next.Create(ctx, shortURL); err != nil {
		return err
	}
	r.store(ctx, shortURL)
	return nil
}

func (r *CachedShortURLRepository) GetByCode(ctx context.Context, code string) (*models.ShortURL, error) {
	shortURL, err := r.cache.Get(ctx, code)
	if err == nil {
		return shortURL, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn("Short url cache read failed", zap.String("code", code), zap.Error(err))
	}

	shortURL, err = r.next.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.store(ctx, shortURL)
	return shortURL, nil
}

func (r *CachedShortURLRepository) store(ctx context.Context, shortURL *models.ShortURL) {
	ttl := defaultCacheTTL
	if left := shortURL.Expiry.Sub(r.now()); left < ttl {
		ttl = left
	}
	if ttl <= 0 {
		return
	}

	if err := r.cache.Set(ctx, shortURL, ttl); err != nil {
		r.logger.Warn("Short url cache write failed", zap.String("code", shortURL.Code), zap.Error(err))
	}
}
