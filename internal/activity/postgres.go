package activity

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/datasweeper/internal/config"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS dataset_activity (
	id          UUID PRIMARY KEY,
	session_id  TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	action      TEXT NOT NULL,
	rows_before INTEGER NOT NULL DEFAULT 0,
	rows_after  INTEGER NOT NULL DEFAULT 0,
	columns     INTEGER NOT NULL DEFAULT 0,
	detail      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS dataset_activity_session_idx
	ON dataset_activity (session_id, created_at DESC);`

// OpenPool connects to the activity database using the pool settings in cfg
// and verifies the connection.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// DatabaseName returns the database part of a connection URL for logging.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// PostgresRecorder stores entries in the dataset_activity table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates the activity table if needed.
func NewPostgresRecorder(ctx context.Context, pool *pgxpool.Pool) (*PostgresRecorder, error) {
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create activity table: %w", err)
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	e = stamp(e)
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return fmt.Errorf("activity id: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO dataset_activity
			(id, session_id, file_name, action, rows_before, rows_after, columns, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, e.SessionID, e.FileName, string(e.Action),
		e.RowsBefore, e.RowsAfter, e.Columns, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, session_id, file_name, action, rows_before, rows_after, columns, detail, created_at
		FROM dataset_activity
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		var action string
		err := row.Scan(&e.ID, &e.SessionID, &e.FileName, &action,
			&e.RowsBefore, &e.RowsAfter, &e.Columns, &e.Detail, &e.CreatedAt)
		e.Action = Action(action)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	return entries, nil
}
