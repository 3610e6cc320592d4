package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/platform/logger"
)

// errInterrupted marks a run that was cut short after writing what it had
var errInterrupted = errors.New("scan interrupted")

// exitInterrupted follows the shell convention for SIGINT
const exitInterrupted = 130

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := newRootCmd(os.Stdout)
	err := cmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code != exitInterrupted {
		ev := logger.Get().Error().Err(err)
		if e, ok := perr.As(err); ok {
			ev = ev.Str("code", e.Code().String()).Str("field", e.Field()).Str("path", e.Path())
		}
		ev.Msg("appimage-finder failed")
	}
	stop()
	os.Exit(code)
}

// exitCode maps a run error onto the process status
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInterrupted):
		return exitInterrupted
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return perr.ExitCode(perr.CodeOf(err))
	}
}
