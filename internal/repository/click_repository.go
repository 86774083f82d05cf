package repository

import (
	"context"

	"github.com/SergeiKhy/shorturl/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClickRepository interface {
	Create(ctx context.Context, click *models.Click) error
	FindByCodes(ctx context.Context, codes []string) ([]models.CodedClick, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

// Create записывает клик. id генерируется до вставки, поэтому повторная
// попытка с тем же id означает, что клик уже записан.
func (r *clickRepository) Create(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO short_url_click (id, short_url_id, time, addr, referrer, agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	return r.db.withConn(ctx, func(conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, query,
			click.ID,
			click.ShortURLID,
			click.Time,
			click.Addr,
			click.Referrer,
			click.Agent,
		)
		if err != nil {
			return storageError("record click", err)
		}
		return nil
	})
}

// FindByCodes inner join коротких ссылок и их кликов. Коды без кликов
// строк не дают.
func (r *clickRepository) FindByCodes(ctx context.Context, codes []string) ([]models.CodedClick, error) {
	query := `
		SELECT s.code, c.id, c.short_url_id, c.time, c.addr, c.referrer, c.agent
		FROM short_url s
		JOIN short_url_click c ON c.short_url_id = s.id
		WHERE s.code = ANY($1)
		ORDER BY c.time, c.id
	`

	var result []models.CodedClick
	err := r.db.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, codes)
		if err != nil {
			return storageError("find clicks", err)
		}
		defer rows.Close()

		for rows.Next() {
			var row models.CodedClick
			if err := rows.Scan(
				&row.Code,
				&row.Click.ID,
				&row.Click.ShortURLID,
				&row.Click.Time,
				&row.Click.Addr,
				&row.Click.Referrer,
				&row.Click.Agent,
			); err != nil {
				return storageError("scan click", err)
			}
			result = append(result, row)
		}

		if err := rows.Err(); err != nil {
			return storageError("iterate clicks", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
