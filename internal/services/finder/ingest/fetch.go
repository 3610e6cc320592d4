// Package ingest holds adapter shims for the finder ingest ports
package ingest

import (
	"context"
	"io"
	"time"

	"appimagefinder/internal/adapters/ingest/gharchive"
	"appimagefinder/internal/modkit"
	"appimagefinder/internal/platform/metrics"
	"appimagefinder/internal/services/finder/domain"
)

// DefaultCacheDir is where shards land when APPIMAGE_INGEST_CACHE_DIR is unset
const DefaultCacheDir = "gharchive_tmp"

// FetchOptions is the APPIMAGE_INGEST_* view of the fetcher config
type FetchOptions struct {
	CacheDir       string
	BaseURL        string
	HTTPTimeout    time.Duration
	MaxRetries     int
	RetryBase      time.Duration
	MinFreeMB      int
	RetainMaxAge   time.Duration
	RetainMaxBytes int64
}

// FetchOptionsFromConfig reads APPIMAGE_INGEST_* keys
func FetchOptionsFromConfig(deps modkit.Deps) FetchOptions {
	ing := deps.Cfg.Prefix("APPIMAGE_INGEST_")
	return FetchOptions{
		CacheDir:       ing.MayPath("CACHE_DIR", DefaultCacheDir),
		BaseURL:        ing.MayString("BASE_URL", gharchive.BaseURL),
		HTTPTimeout:    time.Duration(ing.MayInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second, // 0 == no client timeout
		MaxRetries:     ing.MayInt("RETRIES", 4),
		RetryBase:      ing.MayDuration("RETRY_BASE", 500*time.Millisecond),
		MinFreeMB:      ing.MayInt("MIN_FREE_MB", 0),
		RetainMaxAge:   time.Duration(ing.MayInt("RETAIN_MAX_DAYS", 0)) * 24 * time.Hour,
		RetainMaxBytes: ing.MayInt64("RETAIN_MAX_BYTES", 0),
	}
}

// fetcher implements domain.Fetcher over the cached archive fetcher
type fetcher struct {
	f *gharchive.CachedFetcher
}

// NewFetcher constructs a domain.Fetcher from config under APPIMAGE_INGEST_*.
// This keeps config reading outside the service
func NewFetcher(deps modkit.Deps) domain.Fetcher {
	o := FetchOptionsFromConfig(deps)
	opts := []gharchive.CachedOption{gharchive.WithRetention(o.RetainMaxAge, o.RetainMaxBytes)}
	if deps.Metrics != nil {
		opts = append(opts, gharchive.WithObserver(NewObserver(deps.Metrics)))
	}
	retries := o.MaxRetries
	if retries == 0 {
		retries = -1 // gharchive treats 0 as "default"; the env value 0 means no retries
	}
	return &fetcher{
		f: gharchive.NewCachedFetcher(gharchive.Options{
			BaseURL:      o.BaseURL,
			Dir:          o.CacheDir,
			Timeout:      o.HTTPTimeout,
			MaxRetries:   retries,
			RetryBase:    o.RetryBase,
			MinFreeBytes: uint64(max(o.MinFreeMB, 0)) << 20,
		}, opts...),
	}
}

func (f *fetcher) Fetch(ctx context.Context, hr domain.HourRef) (io.ReadCloser, error) {
	return f.f.Fetch(ctx, hr)
}

func (f *fetcher) Evict(hr domain.HourRef) error { return f.f.Evict(hr) }

// observer feeds transfer events into the prometheus collectors
type observer struct{ m *metrics.Finder }

// NewObserver adapts metrics to gharchive.Observer
func NewObserver(m *metrics.Finder) gharchive.Observer { return observer{m: m} }

func (o observer) Downloaded(_ gharchive.HourRef, bytes int64) { o.m.FetchBytes.Add(float64(bytes)) }

func (o observer) Retried(gharchive.HourRef, int, error) { o.m.FetchRetries.Inc() }
