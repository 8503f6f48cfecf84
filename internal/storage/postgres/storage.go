package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage keeps order results in PostgreSQL.
type Storage struct {
	pool   pgxPool
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type resultRepository struct {
	storage *Storage
}

// New connects and creates the schema. Results older than ttl read as
// missing; a zero ttl keeps them forever.
func New(ctx context.Context, dsn string, ttl time.Duration, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, ttl: ttl, logger: logger, now: time.Now}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Results returns the result repository.
func (s *Storage) Results() repository.ResultRepository {
	return &resultRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS order_results (
            order_id TEXT PRIMARY KEY,
            status TEXT NOT NULL,
            suggestions JSONB NOT NULL DEFAULT '[]',
            execution TEXT NOT NULL,
            items JSONB NOT NULL DEFAULT '[]',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            expires_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_order_results_expires ON order_results(expires_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// PurgeExpired deletes results past their expiry and reports how many.
func (s *Storage) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM order_results WHERE expires_at IS NOT NULL AND expires_at <= $1`, s.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// --- ResultRepository implementation ---

func (r *resultRepository) Save(ctx context.Context, result model.OrderResult) error {
	const query = `INSERT INTO order_results (order_id, status, suggestions, execution, items, updated_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (order_id) DO UPDATE SET
            status = EXCLUDED.status,
            suggestions = EXCLUDED.suggestions,
            execution = EXCLUDED.execution,
            items = EXCLUDED.items,
            updated_at = EXCLUDED.updated_at,
            expires_at = EXCLUDED.expires_at`

	suggestions, err := json.Marshal(nonNil(result.Suggestions))
	if err != nil {
		return err
	}
	items, err := json.Marshal(nonNil(result.Items))
	if err != nil {
		return err
	}

	now := r.storage.now()
	if result.UpdatedAt.IsZero() {
		result.UpdatedAt = now
	}
	var expires *time.Time
	if r.storage.ttl > 0 {
		at := now.Add(r.storage.ttl)
		expires = &at
	}

	_, err = r.storage.pool.Exec(ctx, query,
		result.OrderID, result.Status, suggestions, string(result.Execution), items, result.UpdatedAt, expires)
	return err
}

func (r *resultRepository) Get(ctx context.Context, orderID string) (*model.OrderResult, error) {
	const query = `SELECT order_id, status, suggestions, execution, items, updated_at
        FROM order_results
        WHERE order_id = $1 AND (expires_at IS NULL OR expires_at > $2)`

	var (
		res         model.OrderResult
		execution   string
		suggestions []byte
		items       []byte
	)
	err := r.storage.pool.QueryRow(ctx, query, orderID, r.storage.now()).
		Scan(&res.OrderID, &res.Status, &suggestions, &execution, &items, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	res.Execution = model.ExecutionStatus(execution)
	if err := json.Unmarshal(suggestions, &res.Suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	if err := json.Unmarshal(items, &res.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return &res, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
