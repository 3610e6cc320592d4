package store

import "time"

// Config selects and configures the ledger backend
type Config struct {
	Driver string

	PG     PGConfig
	SQLite SQLiteConfig

	// LogSQL traces every statement through the logger
	LogSQL      bool
	SlowQueryMs int
}

// PGConfig configures postgres connectivity
type PGConfig struct {
	URL      string
	MaxConns int32

	// ConnectRetries bounds the ping loop at open; 0 means 20
	ConnectRetries int
	PingTimeout    time.Duration
}

// SQLiteConfig configures the embedded sqlite file
type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
}
