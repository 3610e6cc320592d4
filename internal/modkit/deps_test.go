package modkit

import (
	"testing"

	"appimagefinder/internal/platform/config"
	"appimagefinder/internal/platform/metrics"
	"appimagefinder/internal/platform/store"
)

func TestDeps_ZeroValue_IsOK(t *testing.T) {
	t.Parallel()
	var d Deps
	if !d.ZeroOK() {
		t.Fatal("zero-value Deps should be safe in tests (ZeroOK == true)")
	}
	if d.HasStore() {
		t.Fatal("zero-value Deps has no store")
	}
}

func TestDeps_DisabledStore(t *testing.T) {
	t.Parallel()
	d := Deps{
		Cfg:     config.New(),
		Store:   &store.Store{Driver: store.DriverNone},
		Metrics: metrics.New(),
	}
	if d.HasStore() {
		t.Fatal("driver none should not report a store")
	}
}
