package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/SergeiKhy/shorturl/internal/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки хранилища
var (
	ErrNotFound    = errors.New("short url not found")
	ErrConflict    = errors.New("identifier already exists")
	ErrUnavailable = errors.New("storage unavailable")
	ErrInvalidData = errors.New("value rejected by storage")
)

// PostgreSQL SQLSTATE
const (
	sqlStateUniqueViolation = "23505"
	sqlClassDataException   = "22" // 22001 слишком длинное значение, 22021 неверная кодировка
)

type PostgresDB struct {
	Pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

func NewPostgresDB(ctx context.Context, cfg config.DBConfig) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB config: %w", err)
	}

	// Настройка пула соединений
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = min(5, cfg.MaxConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверка подключения
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool, acquireTimeout: cfg.AcquireTimeout}, nil
}

func (db *PostgresDB) Close() {
	db.Pool.Close()
}

// withConn берёт соединение из пула с ограниченным ожиданием. Если пул
// исчерпан и соединение не освободилось за acquireTimeout, возвращается ErrUnavailable.
func (db *PostgresDB) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	acquireCtx := ctx
	if db.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, db.acquireTimeout)
		defer cancel()
	}

	conn, err := db.Pool.Acquire(acquireCtx)
	if err != nil {
		return fmt.Errorf("%w: acquire connection: %v", ErrUnavailable, err)
	}
	defer conn.Release()

	return fn(conn)
}

// Проверка на нарушение уникальности
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUniqueViolation
	}
	return false
}

// storageError оборачивает ошибку запроса. Сетевые ошибки и обрыв
// соединения считаются недоступностью хранилища, отказ из-за самого
// значения (класс 22) - ErrInvalidData, повтор такой записи бесполезен.
func storageError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, sqlClassDataException) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidData, op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.SafeToRetry(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
