// Package repo provides SQL access for the run ledger. Statements use $N
// placeholders and run unchanged on postgres and sqlite
package repo

import (
	"context"

	"appimagefinder/internal/modkit/repokit"
	"appimagefinder/internal/services/finder/domain"
)

type (
	// SQL is a binder for domain.LedgerRepo
	SQL     struct{}
	queries struct{ q repokit.Queryer }
)

// NewSQL returns a binder for domain.LedgerRepo
func NewSQL() repokit.Binder[domain.LedgerRepo] { return SQL{} }

// Bind implements repokit.Binder
func (SQL) Bind(q repokit.Queryer) domain.LedgerRepo { return &queries{q: q} }

// StartRun inserts the run row (idempotent on id)
func (r *queries) StartRun(ctx context.Context, run domain.RunStart) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO runs (
			id, window_start, window_end, target, include_checksums, keep_all,
			workers, started_at, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			started_at = excluded.started_at, status = excluded.status,
			finished_at = NULL, error = NULL
	`,
		run.ID, run.Start.UTC(), run.End.UTC(), run.Target, run.IncludeChecksums, run.KeepAll,
		run.Workers, run.StartedAt.UTC(), domain.RunRunning,
	)
	return err
}

// RecordShard upserts the row for one processed hour
func (r *queries) RecordShard(ctx context.Context, runID string, fin domain.ShardFinish) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO run_shards (
			run_id, hour_utc, status, cache_hit, bytes_uncompressed, lines, malformed,
			release_events, continuous_dropped, records, fetch_ms, read_ms, error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))
		ON CONFLICT (run_id, hour_utc) DO UPDATE SET
			status = excluded.status,
			cache_hit = excluded.cache_hit,
			bytes_uncompressed = excluded.bytes_uncompressed,
			lines = excluded.lines,
			malformed = excluded.malformed,
			release_events = excluded.release_events,
			continuous_dropped = excluded.continuous_dropped,
			records = excluded.records,
			fetch_ms = excluded.fetch_ms,
			read_ms = excluded.read_ms,
			error = excluded.error
	`,
		runID, fin.Hour.UTC(), fin.Status, fin.CacheHit, fin.Stats.Bytes, fin.Stats.Lines, fin.Stats.Malformed,
		fin.Stats.ReleaseEvents, fin.Stats.ContinuousDropped, fin.Stats.Records, fin.FetchMS, fin.ReadMS, fin.ErrText,
	)
	return err
}

// FinishRun closes the run row
func (r *queries) FinishRun(ctx context.Context, runID string, fin domain.RunFinish) error {
	_, err := r.q.Exec(ctx, `
		UPDATE runs SET
			finished_at = $2,
			status = $3,
			records = $4,
			shards_ok = $5,
			shards_unavailable = $6,
			shards_failed = $7,
			release_events = $8,
			elapsed_ms = $9,
			error = NULLIF($10, '')
		WHERE id = $1
	`,
		runID, fin.FinishedAt.UTC(), fin.Status, fin.Records,
		fin.Stats.ShardsOK, fin.Stats.ShardsUnavailable, fin.Stats.ShardsFailed,
		fin.Stats.ReleaseEvents, fin.Stats.Elapsed.Milliseconds(), fin.ErrText,
	)
	return err
}
