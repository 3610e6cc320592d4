package domain

import (
	"context"
	"io"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Fetcher returns the compressed stream of one archive hour
type Fetcher interface {
	Fetch(ctx context.Context, hr HourRef) (io.ReadCloser, error)
}

// Evicter is implemented by fetchers with a local cache that can drop a
// damaged copy
type Evicter interface {
	Evict(hr HourRef) error
}

// ReaderPort streams release events out of one shard
type ReaderPort interface {
	Next() (EventEnvelope, error)
	Close() error
	Stats() (lines, malformed int, bytes int64)
}

// ReaderFactory opens a ReaderPort over a compressed stream
type ReaderFactory interface {
	New(io.ReadCloser) (ReaderPort, error)
}

// LedgerRepo is the storage surface for run bookkeeping
type LedgerRepo interface {
	StartRun(ctx context.Context, run RunStart) error
	RecordShard(ctx context.Context, runID string, fin ShardFinish) error
	FinishRun(ctx context.Context, runID string, fin RunFinish) error
}

// Ledger is LedgerRepo behind its own transactions; failures are reported but
// never stop a scan
type Ledger interface {
	LedgerRepo
	Close() error
}
