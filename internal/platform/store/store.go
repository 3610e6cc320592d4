// Package store provides a single SQL seam over the optional ledger backends
package store

import (
	"context"
	"errors"
	"fmt"

	"appimagefinder/internal/platform/logger"
)

// Driver names accepted by Open
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the facade for the configured backend
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	// zero means a no op zerolog logger
	Log logger.Logger

	// Driver is the backend that SQL talks to
	Driver string

	// SQL is the read/write seam, nil when Driver is none
	SQL TxRunner
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql.
// Statements use $N placeholders regardless of backend
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Driver: cfg.Driver}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case "", DriverNone:
		s.Driver = DriverNone
		return s, nil
	case DriverSQLite:
		c, err := openSQLite(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.SQL = c
	case DriverPostgres:
		c, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.SQL = c
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	return s, nil
}

// Enabled reports whether a backend is attached
func (s *Store) Enabled() bool { return s != nil && s.SQL != nil }

// Guard pings the configured backend
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	if s.SQL == nil {
		return nil
	}
	if err := s.SQL.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", s.Driver, err)
	}
	return nil
}

// Close closes the backend; nil backends are ignored
func (s *Store) Close() error {
	if s == nil || s.SQL == nil {
		return nil
	}
	return s.SQL.Close()
}
