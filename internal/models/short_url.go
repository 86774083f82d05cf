package models

import (
	"time"
)

// ShortURL строка таблицы short_url. После создания не изменяется.
type ShortURL struct {
	ID     string    `json:"id"`
	Code   string    `json:"code"`
	URL    string    `json:"url"`
	Expiry time.Time `json:"expiry"`
}

type CreateShortURLInput struct {
	URL string `json:"url" binding:"required"`
}
