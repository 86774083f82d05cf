package repository

import (
	"context"
	"errors"

	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShortURLRepository interface {
	Create(ctx context.Context, shortURL *models.ShortURL) error
	GetByCode(ctx context.Context, code string) (*models.ShortURL, error)
}

type shortURLRepository struct {
	db *PostgresDB
}

func NewShortURLRepository(db *PostgresDB) ShortURLRepository {
	return &shortURLRepository{db: db}
}

// Create вставляет строку. Совпадение id или code возвращает ErrConflict.
func (r *shortURLRepository) Create(ctx context.Context, shortURL *models.ShortURL) error {
	query := `
		INSERT INTO short_url (id, code, url, expiry)
		VALUES ($1, $2, $3, $4)
	`

	return r.db.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, query,
			shortURL.ID,
			shortURL.Code,
			shortURL.URL,
			shortURL.Expiry,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return storageError("create short url", err)
		}
		return nil
	})
}

func (r *shortURLRepository) GetByCode(ctx context.Context, code string) (*models.ShortURL, error) {
	query := `
		SELECT id, code, url, expiry
		FROM short_url
		WHERE code = $1
	`

	shortURL := &models.ShortURL{}
	err := r.db.withConn(ctx, func(conn *pgxpool.Conn) error {
		err := conn.QueryRow(ctx, query, code).Scan(
			&shortURL.ID,
			&shortURL.Code,
			&shortURL.URL,
			&shortURL.Expiry,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return storageError("get short url", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return shortURL, nil
}
