package store

import (
	"context"
	"errors"
	"time"

	"appimagefinder/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the statement surface shared by *pgxpool.Pool and pgx.Tx
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgAdapter is the postgres TxRunner
type pgAdapter struct {
	p *pg.PG
	traceHook
}

func newPGAdapter(p *pg.PG, h traceHook) *pgAdapter { return &pgAdapter{p: p, traceHook: h} }

func (a *pgAdapter) q() pgQ { return pgQ{x: a.p.Pool, traceHook: a.traceHook} }

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return a.q().Exec(ctx, sql, args...)
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return a.q().Query(ctx, sql, args...)
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return a.q().QueryRow(ctx, sql, args...)
}

// Tx runs fn in one transaction; begin hooks see the same tx as fn
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(pgQ{x: tx, traceHook: a.traceHook}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// pgQ traces statements run against a pool or a tx
type pgQ struct {
	x pgxQuerier
	traceHook
}

func (q pgQ) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.x.Exec(ctx, sql, args...)
	q.emit(ctx, sql, args, start, err)
	return ct, err
}

func (q pgQ) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := q.x.Query(ctx, sql, args...)
	q.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (q pgQ) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := q.x.QueryRow(ctx, sql, args...)
	return scanHook{scan: r.Scan, after: func(err error) { q.emit(ctx, sql, args, start, err) }}
}

// scanHook reports the statement once Scan has surfaced its error
type scanHook struct {
	scan  func(dst ...any) error
	after func(error)
}

func (s scanHook) Scan(dst ...any) error {
	err := s.scan(dst...)
	s.after(err)
	return err
}

var _ CommandTag = pgconn.CommandTag{}
