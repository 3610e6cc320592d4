// Package guardrails bounds the time each phase of a shard may take
package guardrails

import (
	"context"
	"time"
)

// Timeouts is the budget for one archive hour. Zero means no extra limit
type Timeouts struct {
	// Fetch caps download including retries
	Fetch time.Duration

	// Read caps decompress, decode and extraction
	Read time.Duration

	// Ledger caps each bookkeeping write
	Ledger time.Duration
}

// ForFetch returns a context for the fetch phase
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForRead returns a context for the read phase
func ForRead(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Read)
}

// ForLedger returns a context for one ledger write. It is detached from
// parent cancellation so a canceled scan can still record how it ended
func ForLedger(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	d := t.Ledger
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(parent), d)
}

// Remaining returns the time until the deadline on ctx, zero when none is set or it has passed
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout never extends a parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
