package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/platform/store/pg"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// openPG opens the pool and waits until it answers a ping
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		AppName:  "appimage-finder",
	}, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse postgres url")
	}

	maxAttempts := cfg.PG.ConnectRetries
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p, hookFor(cfg, s, DriverPostgres)), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		s.Log.Debug().Int("attempt", i+1).Dur("backoff", backoff).Err(lastErr).Msg("postgres not ready")
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < backoffCeiling {
			backoff = min(backoff*2, backoffCeiling)
		}
	}

	p.Close()
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", maxAttempts)
}

// openSQLite opens (creating if needed) the ledger file
func openSQLite(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	path := cfg.SQLite.Path
	if path == "" {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, perr.Storage(err, filepath.Dir(path), "create ledger directory")
		}
	}

	busy := cfg.SQLite.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busy.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, perr.Storage(err, path, "open sqlite ledger")
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under the worker pool
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, perr.Storage(err, path, "ping sqlite ledger")
	}
	return newSQLiteAdapter(db, hookFor(cfg, s, DriverSQLite)), nil
}

func hookFor(cfg Config, s *Store, driver string) traceHook {
	h := traceHook{slow: time.Duration(cfg.SlowQueryMs) * time.Millisecond}
	if cfg.LogSQL || h.slow > 0 {
		h.tracer = Tracer(s.Log, driver, cfg.LogSQL)
	}
	return h
}
