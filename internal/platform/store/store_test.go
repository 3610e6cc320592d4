package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	perr "appimagefinder/internal/platform/errors"

	"github.com/rs/zerolog"
)

func openTestSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "ledger.db")},
		LogSQL: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_NoneDriver(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Enabled() || s.Driver != DriverNone {
		t.Fatalf("expected disabled store, got %+v", s)
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard on none: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close on none: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpen_SQLiteMissingPath(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverSQLite})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestOpen_PGBadURL(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres, PG: PGConfig{URL: "://bad"}})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpen_PGCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, Config{
		Driver: DriverPostgres,
		PG:     PGConfig{URL: "postgres://u:p@127.0.0.1:1/db?sslmode=disable", ConnectRetries: 2},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSQLite_ExecQueryTx(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	if err := s.Guard(ctx); err != nil {
		t.Fatalf("Guard: %v", err)
	}

	if _, err := s.SQL.Exec(ctx, `create table hours (hour text primary key, lines integer not null)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ExecOne(ctx, s.SQL, `insert into hours (hour, lines) values ($1, $2)`, "2024-01-01-0", 10); err != nil {
		t.Fatalf("insert: %v", err)
	}

	err := RetryTx(ctx, s.SQL, 2, func(q RowQuerier) error {
		if err := ExecOne(ctx, q, `insert into hours (hour, lines) values ($1, $2)`, "2024-01-01-1", 5); err != nil {
			return err
		}
		return ExecOne(ctx, q, `update hours set lines = lines + $1 where hour = $2`, 1, "2024-01-01-0")
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	total, err := Scalar[int64](ctx, s.SQL, `select sum(lines) from hours`)
	if err != nil || total != 16 {
		t.Fatalf("sum = %d, %v", total, err)
	}

	hours, err := Many(ctx, s.SQL, func(r Row) (string, error) {
		var h string
		return h, r.Scan(&h)
	}, `select hour from hours where lines > $1 order by hour`, 0)
	if err != nil {
		t.Fatalf("many: %v", err)
	}
	if len(hours) != 2 || hours[0] != "2024-01-01-0" || hours[1] != "2024-01-01-1" {
		t.Fatalf("hours = %v", hours)
	}
}

func TestSQLite_TxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	if _, err := s.SQL.Exec(ctx, `create table t (id integer primary key)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	boom := errors.New("boom")
	err := s.SQL.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `insert into t (id) values ($1)`, 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	n, err := Scalar[int64](ctx, s.SQL, `select count(*) from t`)
	if err != nil || n != 0 {
		t.Fatalf("count after rollback = %d, %v", n, err)
	}
}

func TestExecOne_RejectsZeroRows(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	if _, err := s.SQL.Exec(ctx, `create table t (id integer primary key)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ExecOne(ctx, s.SQL, `delete from t where id = $1`, 42); err == nil {
		t.Fatalf("expected error for zero rows affected")
	}
}

func TestRebindAndCompact(t *testing.T) {
	if got := Rebind("select $1, $2"); got != "select ?1, ?2" {
		t.Fatalf("Rebind = %q", got)
	}
	if got := compact("select\n\t 1\n  from   t"); got != "select 1 from t" {
		t.Fatalf("compact = %q", got)
	}
}

type recordingTracer struct{ events []QueryEvent }

func (r *recordingTracer) OnQuery(_ context.Context, ev QueryEvent) { r.events = append(r.events, ev) }

func TestSQLite_TraceHook(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rec := &recordingTracer{}
	a := newSQLiteAdapter(db, traceHook{tracer: rec, slow: time.Nanosecond})
	ctx := context.Background()

	if _, err := a.Exec(ctx, "create table t (\n\tid integer\n)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	var n int
	if err := a.QueryRow(ctx, `select count(*) from t where id > $1`, 0).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if len(rec.events) != 2 {
		t.Fatalf("events = %d, want 2", len(rec.events))
	}
	if !rec.events[0].Slow || rec.events[1].Args[0] != 0 {
		t.Fatalf("unexpected events: %+v", rec.events)
	}
}

func TestTracer_QuietUnlessSlowOrVerbose(t *testing.T) {
	var buf bytes.Buffer
	root := zerolog.New(&buf).Level(zerolog.InfoLevel)
	ctx := context.Background()

	Tracer(root, DriverSQLite, false).OnQuery(ctx, QueryEvent{SQL: "select 1"})
	if buf.Len() != 0 {
		t.Fatalf("fast statement logged without LogSQL: %s", buf.String())
	}

	Tracer(root, DriverSQLite, false).OnQuery(ctx, QueryEvent{SQL: "select\n 2", Slow: true})
	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"sql":"select 2"`) {
		t.Fatalf("slow statement not warned: %s", out)
	}

	buf.Reset()
	Tracer(root, DriverPostgres, true).OnQuery(ctx, QueryEvent{SQL: "select 3"})
	if !strings.Contains(buf.String(), `"component":"ledger.postgres"`) {
		t.Fatalf("verbose tracer silent: %s", buf.String())
	}
}
