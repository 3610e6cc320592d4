package repo

import (
	"context"

	"appimagefinder/internal/modkit/repokit"
	"appimagefinder/internal/platform/store"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id                 TEXT PRIMARY KEY,
		window_start       TIMESTAMPTZ NOT NULL,
		window_end         TIMESTAMPTZ NOT NULL,
		target             TEXT NOT NULL,
		include_checksums  BOOLEAN NOT NULL DEFAULT false,
		keep_all           BOOLEAN NOT NULL DEFAULT false,
		workers            INTEGER NOT NULL DEFAULT 1,
		started_at         TIMESTAMPTZ NOT NULL,
		finished_at        TIMESTAMPTZ,
		status             TEXT NOT NULL,
		records            INTEGER NOT NULL DEFAULT 0,
		shards_ok          INTEGER NOT NULL DEFAULT 0,
		shards_unavailable INTEGER NOT NULL DEFAULT 0,
		shards_failed      INTEGER NOT NULL DEFAULT 0,
		release_events     INTEGER NOT NULL DEFAULT 0,
		elapsed_ms         BIGINT NOT NULL DEFAULT 0,
		error              TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS run_shards (
		run_id             TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		hour_utc           TIMESTAMPTZ NOT NULL,
		status             TEXT NOT NULL,
		cache_hit          BOOLEAN NOT NULL DEFAULT false,
		bytes_uncompressed BIGINT NOT NULL DEFAULT 0,
		lines              INTEGER NOT NULL DEFAULT 0,
		malformed          INTEGER NOT NULL DEFAULT 0,
		release_events     INTEGER NOT NULL DEFAULT 0,
		continuous_dropped INTEGER NOT NULL DEFAULT 0,
		records            INTEGER NOT NULL DEFAULT 0,
		fetch_ms           INTEGER NOT NULL DEFAULT 0,
		read_ms            INTEGER NOT NULL DEFAULT 0,
		error              TEXT,
		PRIMARY KEY (run_id, hour_utc)
	)`,
	`CREATE INDEX IF NOT EXISTS run_shards_status_idx ON run_shards (status, hour_utc)`,
}

// sqlite has no TIMESTAMPTZ; the modernc driver round-trips time.Time through
// columns declared TIMESTAMP
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id                 TEXT PRIMARY KEY,
		window_start       TIMESTAMP NOT NULL,
		window_end         TIMESTAMP NOT NULL,
		target             TEXT NOT NULL,
		include_checksums  BOOLEAN NOT NULL DEFAULT 0,
		keep_all           BOOLEAN NOT NULL DEFAULT 0,
		workers            INTEGER NOT NULL DEFAULT 1,
		started_at         TIMESTAMP NOT NULL,
		finished_at        TIMESTAMP,
		status             TEXT NOT NULL,
		records            INTEGER NOT NULL DEFAULT 0,
		shards_ok          INTEGER NOT NULL DEFAULT 0,
		shards_unavailable INTEGER NOT NULL DEFAULT 0,
		shards_failed      INTEGER NOT NULL DEFAULT 0,
		release_events     INTEGER NOT NULL DEFAULT 0,
		elapsed_ms         INTEGER NOT NULL DEFAULT 0,
		error              TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS run_shards (
		run_id             TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		hour_utc           TIMESTAMP NOT NULL,
		status             TEXT NOT NULL,
		cache_hit          BOOLEAN NOT NULL DEFAULT 0,
		bytes_uncompressed INTEGER NOT NULL DEFAULT 0,
		lines              INTEGER NOT NULL DEFAULT 0,
		malformed          INTEGER NOT NULL DEFAULT 0,
		release_events     INTEGER NOT NULL DEFAULT 0,
		continuous_dropped INTEGER NOT NULL DEFAULT 0,
		records            INTEGER NOT NULL DEFAULT 0,
		fetch_ms           INTEGER NOT NULL DEFAULT 0,
		read_ms            INTEGER NOT NULL DEFAULT 0,
		error              TEXT,
		PRIMARY KEY (run_id, hour_utc)
	)`,
	`CREATE INDEX IF NOT EXISTS run_shards_status_idx ON run_shards (status, hour_utc)`,
}

// Migrate creates the ledger tables for driver if they do not exist
func Migrate(ctx context.Context, tx repokit.TxRunner, driver string) error {
	stmts := sqliteSchema
	if driver == store.DriverPostgres {
		stmts = pgSchema
	}
	return repokit.WithTx(ctx, tx, func(q repokit.Queryer) error {
		for _, s := range stmts {
			if _, err := q.Exec(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
}
