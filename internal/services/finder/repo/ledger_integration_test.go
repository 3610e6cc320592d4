//go:build integration_pg

package repo

import (
	"context"
	"testing"
	"time"

	"appimagefinder/internal/platform/store"
	"appimagefinder/internal/platform/store/pg/pgtest"
	"appimagefinder/internal/services/finder/domain"
)

func TestLedger_Postgres_Integration(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: store.DriverPostgres, PG: store.PGConfig{URL: pgtest.Start(t, "ledger")}})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	l, err := Open(ctx, st, Options{StatementTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}

	hour := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	if err := l.StartRun(ctx, domain.RunStart{ID: "pg1", Start: hour, End: hour, Target: "x86_64", Workers: 1, StartedAt: time.Now()}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := l.RecordShard(ctx, "pg1", domain.ShardFinish{Hour: hour, Status: domain.ShardOK, Stats: domain.ShardStats{Records: 4, Bytes: 1 << 20}}); err != nil {
		t.Fatalf("RecordShard: %v", err)
	}
	if err := l.FinishRun(ctx, "pg1", domain.RunFinish{Status: domain.RunOK, Records: 4, FinishedAt: time.Now()}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	var status string
	var records int
	if err := st.SQL.QueryRow(ctx, `SELECT status, records FROM runs WHERE id = $1`, "pg1").Scan(&status, &records); err != nil {
		t.Fatal(err)
	}
	if status != domain.RunOK || records != 4 {
		t.Fatalf("run row = %s %d", status, records)
	}
	if err := Migrate(ctx, st.SQL, st.Driver); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
}
