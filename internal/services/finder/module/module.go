// Package module provides the finder module implementation
package module

import (
	"context"

	"appimagefinder/internal/modkit"
	"appimagefinder/internal/services/finder/domain"
	"appimagefinder/internal/services/finder/ingest"
	"appimagefinder/internal/services/finder/repo"
	"appimagefinder/internal/services/finder/service"
)

// Ports defines the finder module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module for the finder
type Module struct {
	deps   modkit.Deps
	opts   Options
	ledger domain.Ledger
	ports  Ports
}

// New constructs the finder module.
// It wires the fetcher, the reader and the optional ledger around the service
// using config from deps.Cfg. A ledger that cannot be opened is logged and
// left out
func New(ctx context.Context, deps modkit.Deps) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	fetch := ingest.NewFetcher(deps)    // uses APPIMAGE_INGEST_* from deps.Cfg
	reader := ingest.NewReaderFactory() // wraps the gharchive reader

	var ledger domain.Ledger
	if deps.HasStore() {
		l, err := repo.Open(ctx, deps.Store, repo.Options{StatementTimeout: ledgerStatementTimeout(deps.Cfg)})
		if err != nil {
			deps.Log.Warn().Err(err).Str("driver", deps.Store.Driver).Msg("finder: ledger disabled")
		} else {
			ledger = l
		}
	}

	svc := service.New(fetch, reader, ledger, deps.Metrics, service.Config{
		Workers:       opts.Workers,
		Delay:         opts.Delay,
		FetchTimeout:  opts.FetchTimeout,
		ReadTimeout:   opts.ReadTimeout,
		LedgerTimeout: opts.LedgerTimeout,
		MaxRangeHours: opts.MaxRangeHours,
	})

	return &Module{deps: deps, opts: opts, ledger: ledger, ports: Ports{Runner: svc}}, nil
}

var _ modkit.Module = (*Module)(nil)

// Name returns the module name
func (m *Module) Name() string { return "finder" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// HasLedger reports whether runs are being recorded
func (m *Module) HasLedger() bool { return m.ledger != nil }

// Close releases the ledger; the store itself is closed by its owner
func (m *Module) Close() error {
	if m.ledger == nil {
		return nil
	}
	return m.ledger.Close()
}
