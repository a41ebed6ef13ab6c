package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool подключается к PostgreSQL по dsn и проверяет соединение.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// schema — таблицы журнала. Создаются идемпотентно.
const schema = `
CREATE TABLE IF NOT EXISTS releases (
	id          uuid PRIMARY KEY,
	environment text        NOT NULL,
	project     text        NOT NULL,
	git_ref     text        NOT NULL,
	ref         text,
	status      text        NOT NULL,
	started_at  timestamptz,
	finished_at timestamptz,
	error       text,
	created_at  timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS releases_environment_created_at_idx
	ON releases (environment, created_at DESC);

CREATE TABLE IF NOT EXISTS release_steps (
	id          bigserial PRIMARY KEY,
	release_id  uuid        NOT NULL REFERENCES releases (id) ON DELETE CASCADE,
	step        text        NOT NULL,
	host        text        NOT NULL,
	commands    text[]      NOT NULL DEFAULT '{}',
	status      text        NOT NULL,
	exit_status integer     NOT NULL,
	output      text,
	error       text,
	started_at  timestamptz NOT NULL,
	finished_at timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS release_steps_release_id_idx
	ON release_steps (release_id, id);
`

// EnsureSchema создаёт таблицы журнала, если их нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
