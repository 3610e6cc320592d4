package repokit

import (
	"context"
	"errors"
	"testing"

	"appimagefinder/internal/platform/store"
)

type fakeTag int64

func (f fakeTag) RowsAffected() int64 { return int64(f) }

type fakeQ struct {
	sqls []string
	args [][]any
}

func (f *fakeQ) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	f.args = append(f.args, args)
	return fakeTag(1), nil
}

func (f *fakeQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeQ) QueryRow(context.Context, string, ...any) store.Row        { return nil }

type fakeTx struct {
	q       *fakeQ
	txCalls int
	pinged  bool
	closed  bool
}

func (f *fakeTx) Tx(_ context.Context, fn func(Queryer) error) error {
	f.txCalls++
	return fn(f.q)
}
func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return f.q.Exec(ctx, sql, args...)
}
func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return f.q.Query(ctx, sql, args...)
}
func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	return f.q.QueryRow(ctx, sql, args...)
}
func (f *fakeTx) Ping(context.Context) error { f.pinged = true; return nil }
func (f *fakeTx) Close() error               { f.closed = true; return nil }

var _ TxRunner = (*fakeTx)(nil)

func TestBindFunc_And_MustBind(t *testing.T) {
	t.Parallel()
	b := BindFunc[string](func(Queryer) string { return "ok" })
	if got := MustBind[string](b, &fakeQ{}); got != "ok" {
		t.Fatalf("MustBind = %q", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustBind with nil queryer should panic")
		}
	}()
	MustBind[string](b, nil)
}

func TestWithBeginHooks_RunsHooksFirst(t *testing.T) {
	t.Parallel()
	tx := &fakeTx{q: &fakeQ{}}
	wrapped := WithBeginHooks(tx, StatementTimeout(1500))

	err := wrapped.Tx(context.Background(), func(q Queryer) error {
		_, err := q.Exec(context.Background(), "insert")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(tx.q.sqls) != 2 || tx.q.sqls[1] != "insert" {
		t.Fatalf("statements = %v", tx.q.sqls)
	}
	if tx.q.args[0][0] != "1500" {
		t.Fatalf("timeout arg = %v", tx.q.args[0])
	}

	if err := wrapped.Ping(context.Background()); err != nil || !tx.pinged {
		t.Fatal("Ping should delegate")
	}
	if err := wrapped.Close(); err != nil || !tx.closed {
		t.Fatal("Close should delegate")
	}
}

func TestWithBeginHooks_HookErrorStopsFn(t *testing.T) {
	t.Parallel()
	tx := &fakeTx{q: &fakeQ{}}
	boom := errors.New("boom")
	wrapped := WithBeginHooks(tx, func(context.Context, Queryer) error { return boom })

	called := false
	err := wrapped.Tx(context.Background(), func(Queryer) error { called = true; return nil })
	if !errors.Is(err, boom) || called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}

func TestWithBeginHooks_NoHooksReturnsInner(t *testing.T) {
	t.Parallel()
	tx := &fakeTx{q: &fakeQ{}}
	if WithBeginHooks(tx) != TxRunner(tx) {
		t.Fatal("no hooks should return the inner runner")
	}
}
