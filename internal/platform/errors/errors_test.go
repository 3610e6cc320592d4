package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeInvalidTimeFormat, 2},
		{ErrorCodeValidation, 2},
		{ErrorCodeInvalidArgument, 2},
		{ErrorCodeStorage, 3},
		{ErrorCodeShardUnavailable, 1},
		{ErrorCodeDB, 1},
		{ErrorCodeUnknown, 1},
		{9999, 1},
	}
	for _, c := range cases {
		if got := ExitCode(c.code); got != c.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestCodeLabels(t *testing.T) {
	if ErrorCodeShardUnavailable.String() != "shard_unavailable" {
		t.Fatalf("label = %q", ErrorCodeShardUnavailable.String())
	}
	if ErrorCode(9999).String() != "unknown" {
		t.Fatalf("unknown label mismatch")
	}
}

func TestErrorTypeAndMethods(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q, want <nil>", e.Error())
	}

	e1 := New(ErrorCodeValidation, "bad stuff")
	if CodeOf(e1) != ErrorCodeValidation {
		t.Fatalf("CodeOf(New) = %v", CodeOf(e1))
	}
	e2 := Newf(ErrorCodeJSON, "bad json %d", 12)
	if got := e2.Error(); got != "bad json 12" {
		t.Fatalf("Newf().Error = %q", got)
	}

	src := stderrs.New("root")
	e3 := Wrap(src, ErrorCodeDB, "db failed")
	if u := stderrs.Unwrap(e3); u == nil || u.Error() != "root" {
		t.Fatalf("Wrap did not keep orig")
	}
	e4 := Wrapf(src, ErrorCodeShardUnavailable, "hour %s", "2024-01-01-0")
	if want := "hour 2024-01-01-0: root"; e4.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", e4.Error(), want)
	}

	if got, ok := As(e4); !ok || got.Code() != ErrorCodeShardUnavailable {
		t.Fatalf("As() failed for our error")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	e5 := Wrap(src, ErrorCodeInvalidArgument, "oops")
	e6 := WithField(e5, "workers")
	e7 := WithOp(e6, "validate")
	if fe, ok := As(e6); !ok || fe.Field() != "workers" {
		t.Fatalf("WithField failed")
	}
	if oe, ok := As(e7); !ok || oe.Op() != "validate" {
		t.Fatalf("WithOp failed")
	}
	if fe0, _ := As(e5); fe0.Field() != "" || fe0.Op() != "" {
		t.Fatalf("copy-on-write mutated original")
	}
	if WithField(src, "x") != src {
		t.Fatalf("WithField should pass foreign errors through")
	}

	if !IsCode(InvalidArgf("x"), ErrorCodeInvalidArgument) ||
		!IsCode(InvalidTimef("x"), ErrorCodeInvalidTimeFormat) ||
		!IsCode(MalformedRepof("x"), ErrorCodeMalformedRepoName) ||
		!IsCode(ShardUnavailablef("x"), ErrorCodeShardUnavailable) ||
		!IsCode(DBf("x"), ErrorCodeDB) ||
		!IsCode(JSONErrf("x"), ErrorCodeJSON) ||
		!IsCode(Unavailablef("x"), ErrorCodeUnavailable) ||
		!IsCode(Internalf("x"), ErrorCodeUnknown) {
		t.Fatalf("sugar helpers code mismatch")
	}

	if WrapIf(nil, ErrorCodeDB, "ignored") != nil {
		t.Fatalf("WrapIf(nil) should return nil")
	}
	if WrapIf(src, ErrorCodeDB, "db") == nil {
		t.Fatalf("WrapIf(non-nil) should wrap")
	}

	deep := fmt.Errorf("level2: %w", fmt.Errorf("level1: %w", src))
	if got := Root(deep); got == nil || got.Error() != "root" {
		t.Fatalf("Root() failed, got %v", got)
	}

	if !IsCode(ErrNotFound, ErrorCodeNotFound) {
		t.Fatalf("ErrNotFound code mismatch")
	}
}

func TestStorageCarriesPath(t *testing.T) {
	err := Storage(stderrs.New("no space left on device"), "/tmp/cache/2024-01-01-0.json.gz.part", "write shard")
	if !IsCode(err, ErrorCodeStorage) {
		t.Fatalf("code = %v", CodeOf(err))
	}
	wrapped := fmt.Errorf("fetch: %w", err)
	if PathOf(wrapped) != "/tmp/cache/2024-01-01-0.json.gz.part" {
		t.Fatalf("PathOf = %q", PathOf(wrapped))
	}
	want := "write shard (path /tmp/cache/2024-01-01-0.json.gz.part): no space left on device"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if PathOf(stderrs.New("x")) != "" {
		t.Fatalf("foreign error should have no path")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatalf("nil should not be retryable")
	}
	if !Retryable(Unavailablef("502 from archive")) {
		t.Fatalf("unavailable should be retryable")
	}
	if Retryable(ShardUnavailablef("404")) {
		t.Fatalf("shard unavailable is terminal")
	}
	if Retryable(Wrap(context.Canceled, ErrorCodeUnavailable, "cancelled")) {
		t.Fatalf("cancellation must not be retried")
	}
}
