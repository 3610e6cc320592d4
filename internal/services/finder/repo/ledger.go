package repo

import (
	"context"
	"time"

	"appimagefinder/internal/modkit/repokit"
	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/platform/store"
	"appimagefinder/internal/services/finder/domain"
)

// Options tune how the ledger talks to its backend
type Options struct {
	// Attempts bounds retries of contended writes; <=0 means 3
	Attempts int

	// StatementTimeout bounds each postgres statement; 0 disables
	StatementTimeout time.Duration
}

// Ledger implements domain.Ledger, one transaction per write
type Ledger struct {
	tx     repokit.TxRunner
	binder repokit.Binder[domain.LedgerRepo]
	opts   Options
}

var _ domain.Ledger = (*Ledger)(nil)

// Open migrates the schema and returns a ledger over st. It returns a nil
// domain.Ledger when st has no backend
func Open(ctx context.Context, st *store.Store, opts Options) (domain.Ledger, error) {
	if !st.Enabled() {
		return nil, nil
	}
	tx := st.SQL
	if st.Driver == store.DriverPostgres && opts.StatementTimeout > 0 {
		tx = repokit.WithBeginHooks(tx, repokit.StatementTimeout(int(opts.StatementTimeout.Milliseconds())))
	}
	if err := Migrate(ctx, tx, st.Driver); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "ledger: migrate")
	}
	return &Ledger{tx: tx, binder: NewSQL(), opts: opts}, nil
}

// StartRun implements domain.LedgerRepo
func (l *Ledger) StartRun(ctx context.Context, run domain.RunStart) error {
	return l.do(ctx, "start run", func(r domain.LedgerRepo) error { return r.StartRun(ctx, run) })
}

// RecordShard implements domain.LedgerRepo
func (l *Ledger) RecordShard(ctx context.Context, runID string, fin domain.ShardFinish) error {
	return l.do(ctx, "record shard", func(r domain.LedgerRepo) error { return r.RecordShard(ctx, runID, fin) })
}

// FinishRun implements domain.LedgerRepo
func (l *Ledger) FinishRun(ctx context.Context, runID string, fin domain.RunFinish) error {
	return l.do(ctx, "finish run", func(r domain.LedgerRepo) error { return r.FinishRun(ctx, runID, fin) })
}

// Close is a no-op; the store owns the connection
func (l *Ledger) Close() error { return nil }

func (l *Ledger) do(ctx context.Context, op string, fn func(domain.LedgerRepo) error) error {
	err := store.RetryTx(ctx, l.tx, l.opts.Attempts, func(q store.RowQuerier) error {
		return fn(repokit.MustBind(l.binder, q))
	})
	return perr.WrapIf(err, perr.ErrorCodeDB, "ledger: "+op)
}
