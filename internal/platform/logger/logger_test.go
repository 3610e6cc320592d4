package logger

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	kit "appimagefinder/internal/platform/testkit"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestParseLevel_AllBranches(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"fatal", "fatal"},
		{"panic", "panic"},
		{"", "info"},
		{"   nonsense   ", "info"},
	}
	for _, c := range cases {
		lvl := parseLevel(c.in)
		if strings.ToLower(lvl.String()) != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, lvl, c.want)
		}
	}
}

func TestInit_Get_Named_C_WithRun(t *testing.T) {
	var buf bytes.Buffer

	Init(Options{
		Level:       "info",
		Format:      "console",
		Service:     "svc-a",
		Component:   "root",
		Writer:      &buf,
		WithCaller:  true,
		SampleEvery: 2,
		StaticFields: map[string]string{
			"build": "test",
		},
	})

	rv := Get().Sample(&zerolog.BasicSampler{N: 1})
	rp := &rv
	rp.Info().Str("k", "v").Msg("root-msg")

	nv := Named("gharchive").Sample(&zerolog.BasicSampler{N: 1})
	np := &nv
	np.Info().Msg("named-msg")

	ctx := WithHour(WithRun(context.Background(), "run-123"), "2024-01-01-5")
	cv := C(ctx).Sample(&zerolog.BasicSampler{N: 1})
	cp := &cv
	cp.Info().Msg("ctx-msg")

	bgv := C(context.Background()).Sample(&zerolog.BasicSampler{N: 1})
	bgp := &bgv
	bgp.Info().Msg("ctx-empty")

	out := buf.String()

	kit.MustContain(t, out, "root-msg")
	kit.MustContain(t, out, "named-msg")
	kit.MustContain(t, out, "ctx-msg")
	kit.MustContain(t, out, "component=")
	kit.MustContain(t, out, "gharchive")
	kit.MustContain(t, out, "run_id=")
	kit.MustContain(t, out, "run-123")
	kit.MustContain(t, out, "hour=")
	kit.MustContain(t, out, "2024-01-01-5")
	kit.MustContain(t, out, "build=")
	kit.MustContain(t, out, "service=")
	kit.MustContain(t, out, "svc-a")
}

func TestFromEnv_Independently(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "svc-b")
	t.Setenv("LOG_COMPONENT", "comp-b")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "5")
	t.Setenv("LOG_FILE", "/tmp/finder.log")
	t.Setenv("LOG_FILE_MAX_MB", "7")

	opt := FromEnv()
	if strings.ToLower(opt.Level) != "warn" {
		t.Fatalf("FromEnv Level = %q, want warn", opt.Level)
	}
	if opt.Format != "json" || opt.Service != "svc-b" || opt.Component != "comp-b" {
		t.Fatalf("FromEnv fields mismatch: %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("FromEnv caller/sample mismatch: %+v", opt)
	}
	if opt.File != "/tmp/finder.log" || opt.FileMaxMB != 7 || opt.FileBackups != 3 {
		t.Fatalf("FromEnv file sink mismatch: %+v", opt)
	}
}

func TestFileWriter(t *testing.T) {
	if fileWriter(Options{}) != nil {
		t.Fatalf("no file configured should yield nil writer")
	}
	path := filepath.Join(t.TempDir(), "finder.log")
	w := fileWriter(Options{File: path})
	lj, ok := w.(*lumberjack.Logger)
	if !ok {
		t.Fatalf("expected lumberjack writer, got %T", w)
	}
	if lj.Filename != path || lj.MaxSize != 50 {
		t.Fatalf("lumberjack config mismatch: %+v", lj)
	}
	if _, err := lj.Write([]byte("{\"level\":\"info\"}\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = lj.Close()
}

func TestWithRun_NoValues(t *testing.T) {
	ctx := WithRun(context.Background(), "")
	if ctx != context.Background() {
		t.Fatalf("empty run id should not wrap ctx")
	}
	v := C(ctx).Sample(&zerolog.BasicSampler{N: 1})
	p := &v
	p.Debug().Msg("no-fields")
}

func TestFromEnv_UnknownFormatFallsBackToConsole(t *testing.T) {
	t.Setenv("LOG_FORMAT", "yaml")
	t.Setenv("LOG_FILE_MAX_MB", "-1")

	opt := FromEnv()
	if opt.Format != "console" {
		t.Fatalf("Format = %q, want console", opt.Format)
	}
	if opt.FileMaxMB != 50 {
		t.Fatalf("FileMaxMB = %d, want default 50", opt.FileMaxMB)
	}
}
