//go:build integration_pg

package pg

import (
	"context"
	"testing"
	"time"

	"appimagefinder/internal/platform/store/pg/pgtest"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestOpen_PoolSettings_Integration(t *testing.T) {
	dsn := pgtest.Start(t, "ledger")

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p, err := Open(ctx, Config{URL: dsn, MaxConns: 3, AppName: "appimage-finder-test"}, func(pc *pgxpool.Config) { pc.MinConns = 1 })
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer p.Close()

	if err := p.Pool.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if got := p.Pool.Config().MaxConns; got != 3 {
		t.Fatalf("MaxConns = %d, want 3", got)
	}
	var app string
	if err := p.Pool.QueryRow(ctx, `select current_setting('application_name')`).Scan(&app); err != nil {
		t.Fatalf("application_name: %v", err)
	}
	if app != "appimage-finder-test" {
		t.Fatalf("application_name = %q", app)
	}
}
