package module

import (
	"path/filepath"
	"time"

	"appimagefinder/internal/platform/config"
	"appimagefinder/internal/platform/store"
	"appimagefinder/internal/platform/validate"
)

// Options holds configuration options for the finder service
type Options struct {
	Workers       int           `flag:"workers" validate:"min=1,max=64"`
	Delay         time.Duration `flag:"delay" validate:"min=0"`
	FetchTimeout  time.Duration `validate:"min=0"`
	ReadTimeout   time.Duration `validate:"min=0"`
	LedgerTimeout time.Duration `validate:"min=0"`
	MaxRangeHours int           `validate:"min=0"`
}

// FromConfig reads the finder options from config with APPIMAGE_FINDER_ prefix
func FromConfig(cfg config.Conf) Options {
	f := cfg.Prefix("APPIMAGE_FINDER_")
	return Options{
		Workers:       f.MayInt("WORKERS", 1),
		Delay:         f.MayDuration("DELAY", 200*time.Millisecond),
		FetchTimeout:  f.MayDuration("FETCH_TIMEOUT", 10*time.Minute),
		ReadTimeout:   f.MayDuration("READ_TIMEOUT", 10*time.Minute),
		LedgerTimeout: f.MayDuration("LEDGER_TIMEOUT", 5*time.Second),
		MaxRangeHours: f.MayInt("MAX_RANGE_HOURS", 0),
	}
}

// Validate reports the first out of range option
func (o Options) Validate() error { return validate.Struct(o) }

// LedgerConfig reads APPIMAGE_LEDGER_* into a store config. The sqlite file
// defaults to ledger.db inside cacheDir. An unknown driver is an InvalidArgument error
func LedgerConfig(cfg config.Conf, cacheDir string) (store.Config, error) {
	l := cfg.Prefix("APPIMAGE_LEDGER_")
	driver, err := l.Enum("DRIVER", store.DriverSQLite, store.DriverSQLite, store.DriverPostgres, store.DriverNone)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		Driver: driver,
		PG: store.PGConfig{
			URL:            l.MayString("URL", ""),
			MaxConns:       int32(l.MayInt("MAX_CONNS", 4)),
			ConnectRetries: l.MayInt("CONNECT_RETRIES", 5),
		},
		SQLite: store.SQLiteConfig{
			Path: l.MayPath("PATH", filepath.Join(cacheDir, "ledger.db")),
		},
		LogSQL:      l.MayBool("LOG_SQL", false),
		SlowQueryMs: l.MayInt("SLOW_QUERY_MS", 250),
	}, nil
}

// ledgerStatementTimeout bounds postgres ledger statements
func ledgerStatementTimeout(cfg config.Conf) time.Duration {
	return cfg.Prefix("APPIMAGE_LEDGER_").MayDuration("STATEMENT_TIMEOUT", 5*time.Second)
}
