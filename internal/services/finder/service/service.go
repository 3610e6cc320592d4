// Package service provides the finder pipeline: it walks the archive hours of
// a window, extracts AppImage release records and collapses them to the
// newest per repo and architecture
package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"appimagefinder/internal/adapters/ingest/gharchive"
	"appimagefinder/internal/core/appimage"
	"appimagefinder/internal/core/dedup"
	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/platform/logger"
	"appimagefinder/internal/platform/metrics"
	"appimagefinder/internal/services/finder/domain"
	"appimagefinder/internal/services/finder/guardrails"
)

// Config holds configuration options for the finder service
type Config struct {
	Workers int           // parallel hours; <=0 -> 1
	Delay   time.Duration // pause between dispatching hours

	// Timeouts applied via guardrails
	FetchTimeout  time.Duration
	ReadTimeout   time.Duration
	LedgerTimeout time.Duration

	// Range guard
	MaxRangeHours int // 0 = unlimited
}

// Service implements domain.RunnerPort
type Service struct {
	Fetch   domain.Fetcher
	Reader  domain.ReaderFactory
	Ledger  domain.Ledger   // optional
	Metrics *metrics.Finder // optional
	Cfg     Config

	now   func() time.Time
	newID func() string
}

// New constructs the finder service
func New(f domain.Fetcher, rf domain.ReaderFactory, ledger domain.Ledger, m *metrics.Finder, cfg Config) *Service {
	if f == nil {
		panic("finder.Service requires a non nil Fetcher")
	}
	if rf == nil {
		panic("finder.Service requires a non nil ReaderFactory")
	}
	return &Service{
		Fetch: f, Reader: rf, Ledger: ledger, Metrics: m, Cfg: cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// shardResult is what one worker hands to the committer
type shardResult struct {
	idx     int
	records []domain.Record
	fin     domain.ShardFinish
	err     error // fatal or cancellation; skips are expressed by fin.Status
}

// Run implements domain.RunnerPort. Unavailable hours are skipped; a
// canceled ctx returns what was committed so far with Partial set
func (s *Service) Run(ctx context.Context, req domain.Request) (domain.Result, error) {
	if req.Target == "" {
		req.Target = appimage.ArchAll
	}
	if req.Policy.Keywords == nil && req.Policy.MinDistinctVersions == 0 {
		req.Policy = appimage.DefaultContinuousPolicy
	}
	total := req.Window.Count()
	if s.Cfg.MaxRangeHours > 0 && total > s.Cfg.MaxRangeHours {
		return domain.Result{}, perr.WithField(
			perr.Newf(perr.ErrorCodeValidation, "finder: window spans %d hours, limit is %d", total, s.Cfg.MaxRangeHours),
			"end-time")
	}

	runID := s.newID()
	ctx = logger.WithRun(ctx, runID)
	log := logger.C(ctx)
	started := s.now()

	log.Info().
		Str("window", req.Window.String()).
		Int("hours", total).
		Str("arch", string(req.Target)).
		Bool("keep_all", req.KeepAll).
		Int("workers", max(s.Cfg.Workers, 1)).
		Msg("finder: scan starting")

	s.ledgerDo(ctx, "start run", func(c context.Context, l domain.Ledger) error {
		return l.StartRun(c, domain.RunStart{
			ID: runID, Start: req.Window.Start, End: req.Window.End,
			Target: string(req.Target), IncludeChecksums: req.IncludeChecksums, KeepAll: req.KeepAll,
			Workers: max(s.Cfg.Workers, 1), StartedAt: started.UTC(),
		})
	})

	acc := dedup.NewAccumulator[domain.Record]()
	stats, committed, runErr := s.scan(ctx, runID, req, acc)
	if !req.KeepAll {
		stats.Collapsed += acc.Collapse()
	}
	stats.Elapsed = s.now().Sub(started)

	res := domain.Result{
		RunID:   runID,
		Target:  req.Target,
		Records: acc.Records(),
		Stats:   stats,
		Partial: runErr == nil && ctx.Err() != nil && committed < total,
	}
	res.Empty = len(res.Records) == 0

	status := domain.RunOK
	switch {
	case runErr != nil:
		status = domain.RunFailed
	case res.Partial:
		status = domain.RunPartial
	case res.Empty:
		status = domain.RunEmpty
	}
	s.ledgerDo(ctx, "finish run", func(c context.Context, l domain.Ledger) error {
		fin := domain.RunFinish{Status: status, Records: len(res.Records), Stats: stats, FinishedAt: s.now().UTC()}
		if runErr != nil {
			fin.ErrText = runErr.Error()
		}
		return l.FinishRun(c, runID, fin)
	})
	if s.Metrics != nil {
		s.Metrics.Finish(s.now())
	}

	ev := log.Info()
	if runErr != nil {
		ev = log.Error().Err(runErr)
	}
	ev.Str("status", status).
		Int("records", len(res.Records)).
		Int("shards_ok", stats.ShardsOK).
		Int("shards_unavailable", stats.ShardsUnavailable).
		Int("shards_failed", stats.ShardsFailed).
		Int("release_events", stats.ReleaseEvents).
		Int("continuous_dropped", stats.ContinuousDropped).
		Dur("elapsed", stats.Elapsed).
		Msg("finder: scan finished")

	return res, runErr
}

// scan dispatches hours to a bounded pool and commits their records in hour
// order, so the first seen record of a tie is the same for any worker count.
// A worker slot is freed only once its hour is committed
func (s *Service) scan(ctx context.Context, runID string, req domain.Request, acc *dedup.Accumulator[domain.Record]) (domain.RunStats, int, error) {
	workers := max(s.Cfg.Workers, 1)
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, workers)
	results := make(chan shardResult, workers)

	var (
		stats     domain.RunStats
		committed int
		fatal     error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		pending := make(map[int]shardResult, workers)
		next, stopped := 0, false
		for r := range results {
			pending[r.idx] = r
			for {
				cur, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if !stopped {
					switch {
					case cur.err != nil && ctx.Err() != nil:
						stopped = true
					case cur.err != nil:
						fatal = cur.err
						stopped = true
						cancel()
					default:
						s.commit(ctx, runID, req, acc, cur, &stats)
						committed++
					}
				}
				<-sem
			}
		}
	}()

	var wg sync.WaitGroup
	idx := 0
dispatch:
	for hr := range req.Window.Hours() {
		if idx > 0 && s.Cfg.Delay > 0 {
			if err := sleepCtx(scanCtx, s.Cfg.Delay); err != nil {
				break dispatch
			}
		}
		select {
		case <-scanCtx.Done():
			break dispatch
		case sem <- struct{}{}:
		}
		if scanCtx.Err() != nil {
			<-sem
			break
		}
		wg.Add(1)
		go func(i int, hr domain.HourRef) {
			defer wg.Done()
			r := s.processShard(scanCtx, req, hr)
			r.idx = i
			results <- r
		}(idx, hr)
		idx++
	}
	wg.Wait()
	close(results)
	<-done

	return stats, committed, fatal
}

// commit merges one finished hour into the run
func (s *Service) commit(ctx context.Context, runID string, req domain.Request, acc *dedup.Accumulator[domain.Record], r shardResult, stats *domain.RunStats) {
	stats.Shards++
	switch r.fin.Status {
	case domain.ShardOK:
		stats.ShardsOK++
	case domain.ShardUnavailable:
		stats.ShardsUnavailable++
	default:
		stats.ShardsFailed++
	}
	if r.fin.CacheHit {
		stats.CacheHits++
	}
	stats.ShardStats.Add(r.fin.Stats)

	acc.Add(r.records...)
	if !req.KeepAll {
		stats.Collapsed += acc.Collapse()
	}

	s.observe(r)
	s.ledgerDo(ctx, "record shard", func(c context.Context, l domain.Ledger) error {
		return l.RecordShard(c, runID, r.fin)
	})
}

// processShard fetches and reads one hour
func (s *Service) processShard(ctx context.Context, req domain.Request, hr domain.HourRef) shardResult {
	ctx = logger.WithHour(ctx, hr.String())
	tos := guardrails.Timeouts{Fetch: s.Cfg.FetchTimeout, Read: s.Cfg.ReadTimeout}
	fin := domain.ShardFinish{Hour: hr.Time(), Status: domain.ShardOK}

	t0 := s.now()
	fetchCtx, fetchCancel := guardrails.ForFetch(ctx, tos)
	rc, err := s.Fetch.Fetch(fetchCtx, hr)
	fetchCancel()
	fin.FetchMS = int(s.now().Sub(t0).Milliseconds())
	if err != nil {
		return s.skipOrFail(ctx, hr, fin, err)
	}
	fin.CacheHit = gharchive.IsCacheHit(rc)

	t1 := s.now()
	readCtx, readCancel := guardrails.ForRead(ctx, tos)
	records, st, err := s.readShard(readCtx, rc, req)
	readCancel()
	fin.ReadMS = int(s.now().Sub(t1).Milliseconds())
	fin.Stats = st
	if err != nil {
		if ctx.Err() == nil && perr.IsCode(err, perr.ErrorCodeShardUnavailable) {
			// a damaged cached copy would fail the same way on every run
			if ev, ok := s.Fetch.(domain.Evicter); ok {
				if eerr := ev.Evict(hr); eerr != nil {
					logger.C(ctx).Warn().Err(eerr).Msg("finder: evict damaged shard")
				}
			}
		}
		return s.skipOrFail(ctx, hr, fin, err)
	}
	fin.Stats.Records = len(records)
	return shardResult{records: records, fin: fin}
}

// skipOrFail sorts a shard error into skip (unavailable or error status),
// fatal (storage) or cancellation
func (s *Service) skipOrFail(ctx context.Context, hr domain.HourRef, fin domain.ShardFinish, err error) shardResult {
	if ctx.Err() != nil {
		return shardResult{fin: fin, err: ctx.Err()}
	}
	fin.ErrText = err.Error()
	switch {
	case perr.IsCode(err, perr.ErrorCodeStorage):
		return shardResult{fin: fin, err: err}
	case perr.IsCode(err, perr.ErrorCodeShardUnavailable):
		fin.Status = domain.ShardUnavailable
	default:
		fin.Status = domain.ShardError
	}
	logger.C(ctx).Warn().Err(err).Str("status", fin.Status).Msg("finder: shard skipped")
	fin.Stats = domain.ShardStats{Lines: fin.Stats.Lines, Malformed: fin.Stats.Malformed, Bytes: fin.Stats.Bytes}
	return shardResult{fin: fin}
}

// readShard streams the events of one hour into records
func (s *Service) readShard(ctx context.Context, rc io.ReadCloser, req domain.Request) ([]domain.Record, domain.ShardStats, error) {
	var st domain.ShardStats
	rd, err := s.Reader.New(rc)
	if err != nil {
		return nil, st, err
	}
	defer func() { _ = rd.Close() }()

	var out []domain.Record
	var readErr error
	for {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
		env, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = err
			break
		}
		out = append(out, extract(ctx, env, req, &st)...)
	}

	lines, bad, n := rd.Stats()
	st.Lines, st.Bytes = lines, n
	st.Malformed += bad
	if readErr != nil {
		return nil, st, readErr
	}
	return out, st, nil
}

func (s *Service) observe(r shardResult) {
	m := s.Metrics
	if m == nil {
		return
	}
	m.Shards.WithLabelValues(r.fin.Status).Inc()
	if r.fin.CacheHit {
		m.CacheHits.Inc()
	}
	m.Lines.Add(float64(r.fin.Stats.Lines))
	m.Malformed.Add(float64(r.fin.Stats.Malformed))
	m.ReleaseEvents.Add(float64(r.fin.Stats.ReleaseEvents))
	for _, rec := range r.records {
		m.Records.WithLabelValues(rec.Architecture).Inc()
	}
	m.ObservePhase("fetch", time.Duration(r.fin.FetchMS)*time.Millisecond)
	m.ObservePhase("read", time.Duration(r.fin.ReadMS)*time.Millisecond)
}

// ledgerDo runs one best effort ledger write
func (s *Service) ledgerDo(ctx context.Context, what string, fn func(context.Context, domain.Ledger) error) {
	if s.Ledger == nil {
		return
	}
	c, cancel := guardrails.ForLedger(ctx, guardrails.Timeouts{Ledger: s.Cfg.LedgerTimeout})
	defer cancel()
	if err := fn(c, s.Ledger); err != nil {
		logger.C(ctx).Warn().Err(err).Str("op", what).Msg("finder: ledger write failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
