package eventstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	humanrail "github.com/prime001/humanrail-sdk"
)

// PostgresStore is a Store backed by a PostgreSQL connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to the database at dsn and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runMigrations(DriverPostgres, pgxMigrateURL(dsn)); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// pgxMigrateURL rewrites a postgres DSN to the scheme golang-migrate's pgx/v5
// driver registers under.
func pgxMigrateURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}

// InsertEvent implements Store.
func (s *PostgresStore) InsertEvent(ctx context.Context, ev *humanrail.WebhookEvent, payload []byte) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO events (id, type, task_id, status, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		ev.ID, string(ev.Type), ev.Data.ID, string(ev.Data.Status), ev.CreatedAt, payload,
	)
	if err != nil {
		return false, fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertTask implements Store.
func (s *PostgresStore) UpsertTask(ctx context.Context, t *humanrail.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, status, terminal, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			terminal = excluded.terminal,
			updated_at = now()`,
		t.ID, string(t.Status), t.Status.IsTerminal(),
	)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", t.ID, err)
	}
	return nil
}

// ListNonTerminal implements Store.
func (s *PostgresStore) ListNonTerminal(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM tasks
		WHERE terminal = FALSE
		ORDER BY updated_at ASC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list non-terminal tasks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list non-terminal tasks: %w", err)
	}
	return ids, nil
}

// DeleteTask implements Store.
func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
