package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss ключа нет в кэше
var ErrCacheMiss = errors.New("cache miss")

type CacheRepository interface {
	Get(ctx context.Context, code string) (*models.ShortURL, error)
	Set(ctx context.Context, shortURL *models.ShortURL, ttl time.Duration) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) Get(ctx context.Context, code string) (*models.ShortURL, error) {
	data, err := r.redis.Client.Get(ctx, r.key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var shortURL models.ShortURL
	if err := json.Unmarshal(data, &shortURL); err != nil {
		return nil, fmt.Errorf("failed to unmarshal short url: %w", err)
	}

	return &shortURL, nil
}

func (r *cacheRepository) Set(ctx context.Context, shortURL *models.ShortURL, ttl time.Duration) error {
	data, err := json.Marshal(shortURL)
	if err != nil {
		return fmt.Errorf("failed to marshal short url: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(shortURL.Code), data, ttl).Err()
}

func (r *cacheRepository) key(code string) string {
	return "short_url:" + code
}
