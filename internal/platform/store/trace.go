package store

import (
	"context"
	"strings"
	"time"

	"appimagefinder/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one executed ledger statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer receives statement events from both adapters
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs slow statements at warn. With verbose set every statement is
// logged at debug regardless of the root level
func Tracer(root logger.Logger, driver string, verbose bool) QueryTracer {
	l := root.With().Str("component", "ledger."+driver).Logger()
	if verbose {
		l = l.Level(zerolog.DebugLevel)
	}
	return &zlTracer{log: l, verbose: verbose}
}

type zlTracer struct {
	log     logger.Logger
	verbose bool
}

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	var evt *zerolog.Event
	switch {
	case ev.Slow:
		evt = z.log.Warn()
	case z.verbose:
		evt = z.log.Debug()
	default:
		return
	}
	evt.Dur("elapsed", ev.Elapsed).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("ledger statement")
}

// traceHook is embedded by both adapters; a zero hook traces nothing
type traceHook struct {
	tracer QueryTracer
	slow   time.Duration
}

func (h traceHook) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if h.tracer == nil {
		return
	}
	d := time.Since(start)
	h.tracer.OnQuery(ctx, QueryEvent{
		SQL:     sql,
		Args:    args,
		Elapsed: d,
		Err:     err,
		Slow:    h.slow > 0 && d >= h.slow,
	})
}

// compact folds whitespace runs so multi-line statements log on one line
func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
