// Package modkit provides module wiring and core deps
package modkit

import (
	"appimagefinder/internal/platform/config"
	"appimagefinder/internal/platform/logger"
	"appimagefinder/internal/platform/metrics"
	"appimagefinder/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	Store   *store.Store
	Metrics *metrics.Finder
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for the optional store and metrics
func (d Deps) ZeroOK() bool { return true }

// HasStore reports whether a ledger backend is attached
func (d Deps) HasStore() bool { return d.Store.Enabled() }
