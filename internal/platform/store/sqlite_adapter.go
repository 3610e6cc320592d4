package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// sqliteAdapter implements TxRunner over database/sql with the modernc driver
type sqliteAdapter struct {
	db *sql.DB
	traceHook
}

func newSQLiteAdapter(db *sql.DB, h traceHook) *sqliteAdapter {
	return &sqliteAdapter{db: db, traceHook: h}
}

// sqlExecer is the part of *sql.DB and *sql.Tx the adapter needs
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	if a == nil || a.db == nil {
		return errors.New("sqlite: nil adapter")
	}
	return a.db.PingContext(ctx)
}

func (a *sqliteAdapter) Close() error { return a.db.Close() }

func (a *sqliteAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqliteQ{x: a.db, traceHook: a.traceHook}.Exec(ctx, q, args...)
}

func (a *sqliteAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqliteQ{x: a.db, traceHook: a.traceHook}.Query(ctx, q, args...)
}

func (a *sqliteAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	return sqliteQ{x: a.db, traceHook: a.traceHook}.QueryRow(ctx, q, args...)
}

func (a *sqliteAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqliteQ{x: tx, traceHook: a.traceHook}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// sqliteQ runs statements against either the db or an open tx
type sqliteQ struct {
	x sqlExecer
	traceHook
}

func (s sqliteQ) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	res, err := s.x.ExecContext(ctx, Rebind(q), args...)
	s.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return resultTag{res}, nil
}

func (s sqliteQ) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := s.x.QueryContext(ctx, Rebind(q), args...)
	s.emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return sqlRows{rs}, nil
}

func (s sqliteQ) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	r := s.x.QueryRowContext(ctx, Rebind(q), args...)
	return scanHook{scan: r.Scan, after: func(err error) { s.emit(ctx, q, args, start, err) }}
}

// Rebind rewrites $N placeholders into sqlite's ?N form
func Rebind(q string) string {
	return strings.ReplaceAll(q, "$", "?")
}

type resultTag struct{ r sql.Result }

func (t resultTag) RowsAffected() int64 {
	n, err := t.r.RowsAffected()
	if err != nil {
		return -1
	}
	return n
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }
