package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Migration struct {
	Version int
	UpSQL   string
	DownSQL string
}

var migrations = []Migration{
	{
		Version: 1,
		UpSQL: `
CREATE TABLE IF NOT EXISTS check_results (
    id            UUID PRIMARY KEY,
    monitor_id    UUID NOT NULL,
    location      TEXT NOT NULL DEFAULT '',
    segment_start TIMESTAMPTZ NOT NULL,
    checked_at    TIMESTAMPTZ NOT NULL,
    up            INTEGER NOT NULL DEFAULT 0 CHECK (up >= 0),
    down          INTEGER NOT NULL DEFAULT 0 CHECK (down >= 0),
    interval_ms   BIGINT CHECK (interval_ms IS NULL OR interval_ms >= 0),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS check_results_monitor_checked_at
ON check_results (monitor_id, checked_at);
`,
		DownSQL: `
DROP INDEX IF EXISTS check_results_monitor_checked_at;
DROP TABLE IF EXISTS check_results;
`,
	},
}

// lock id for pg_advisory_xact_lock so concurrent replicas apply migrations once
const migrationLockID int64 = 0x75707469

func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log *zerolog.Logger) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range pending(migrations, 0) {
		if err := apply(ctx, pool, m); err != nil {
			return err
		}
		log.Info().Int("version", m.Version).Msg("migration applied")
	}
	return nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, m Migration) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return fmt.Errorf("lock migration %d: %w", m.Version, err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if exists {
			return nil
		}

		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		return nil
	})
}

func RollbackAll(ctx context.Context, pool *pgxpool.Pool) error {
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.DownSQL); err != nil {
				return fmt.Errorf("rollback migration %d: %w", m.Version, err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version); err != nil {
				return fmt.Errorf("unrecord migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// pending returns the migrations newer than version, in ascending order.
func pending(all []Migration, version int) []Migration {
	var out []Migration
	for _, m := range all {
		if m.Version > version {
			out = append(out, m)
		}
	}
	return out
}
