package gharchive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/platform/logger"

	"github.com/shirou/gopsutil/v3/disk"
)

// CachedFetcher fetches archive hours through an on disk cache.
// The cache dir holds one .json.gz per hour plus a .meta sidecar; an
// interrupted download stays behind as .part and is resumed on the next call
type CachedFetcher struct {
	opts   Options
	client *http.Client
	log    *logger.Logger
	obs    Observer

	retainMaxAge    time.Duration
	retainMaxBytes  int64
	lastCleanupUnix atomic.Int64

	// seams for tests
	sleep    func(context.Context, time.Duration) error
	jitter   func(time.Duration) time.Duration
	diskFree func(path string) (uint64, error)
}

// cacheMeta is a tiny sidecar json with fields we actually use
type cacheMeta struct {
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Size         int64     `json:"size,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// CachedOption configures the fetcher
type CachedOption func(*CachedFetcher)

// WithRetention sets optional age and size retention; zero disables either dimension
func WithRetention(maxAge time.Duration, maxBytes int64) CachedOption {
	return func(c *CachedFetcher) {
		c.retainMaxAge = maxAge
		c.retainMaxBytes = maxBytes
	}
}

// WithObserver reports downloaded bytes and retries
func WithObserver(o Observer) CachedOption {
	return func(c *CachedFetcher) { c.obs = o }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(hc *http.Client) CachedOption {
	return func(c *CachedFetcher) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewCachedFetcher builds a fetcher; zero options fall back to defaults
func NewCachedFetcher(o Options, opts ...CachedOption) *CachedFetcher {
	if o.BaseURL == "" {
		o.BaseURL = BaseURL
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	c := &CachedFetcher{
		opts:     o,
		client:   &http.Client{Timeout: o.Timeout},
		log:      newLogger(),
		sleep:    sleepCtx,
		jitter:   defaultJitter,
		diskFree: freeBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the compressed stream for hour. A complete cached file is
// served without touching the network
func (c *CachedFetcher) Fetch(ctx context.Context, hour HourRef) (io.ReadCloser, error) {
	path := cachePath(c.opts.Dir, hour)

	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() && fi.Size() > 0 && c.intact(path, fi.Size()) {
		f, err := os.Open(path)
		if err != nil {
			return nil, perr.Storage(err, path, "gharchive: open cached shard")
		}
		c.maybeCleanup()
		return f, nil
	}

	if err := os.MkdirAll(c.opts.Dir, 0o755); err != nil {
		return nil, perr.Storage(err, c.opts.Dir, "gharchive: create cache dir")
	}
	if err := c.checkDisk(); err != nil {
		return nil, err
	}

	part := path + ".part"
	meta, err := c.fetchWithRetry(ctx, hour, part)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(part, path); err != nil {
		return nil, perr.Storage(err, path, "gharchive: move download into place")
	}
	meta.FetchedAt = time.Now().UTC()
	if err := saveMeta(path+".meta", &meta); err != nil {
		c.log.Warn().Err(err).Str("hour", hour.String()).Msg("gharchive: write meta sidecar")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Storage(err, path, "gharchive: open downloaded shard")
	}
	c.maybeCleanup()
	// fresh downloads hide Name so callers can tell them from cache hits
	return &fileBody{f: f}, nil
}

// intact reports whether a cached file matches the size its sidecar recorded.
// A mismatch means the file was damaged after download and is fetched again
func (c *CachedFetcher) intact(path string, size int64) bool {
	meta, err := loadMeta(path + ".meta")
	if err != nil || meta.Size == 0 || meta.Size == size {
		return true
	}
	c.log.Warn().Str("path", path).Int64("want", meta.Size).Int64("got", size).Msg("gharchive: cached shard size mismatch, refetching")
	_ = os.Remove(path)
	return false
}

// Evict drops the cached copy of hour and its sidecar so the next Fetch
// downloads it again. Missing files are not an error
func (c *CachedFetcher) Evict(hour HourRef) error {
	path := cachePath(c.opts.Dir, hour)
	for _, p := range []string{path, path + ".meta"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return perr.Storage(err, p, "gharchive: evict cached shard")
		}
	}
	return nil
}

// IsCacheHit reports whether rc came straight from the cache
func IsCacheHit(rc io.ReadCloser) bool {
	_, ok := rc.(interface{ Name() string })
	return ok
}

// fileBody wraps *os.File but hides the Name method
type fileBody struct{ f *os.File }

func (b *fileBody) Read(p []byte) (int, error) { return b.f.Read(p) }
func (b *fileBody) Close() error               { return b.f.Close() }

// checkDisk refuses to start a download when the cache volume is nearly full
func (c *CachedFetcher) checkDisk() error {
	if c.opts.MinFreeBytes == 0 || c.diskFree == nil {
		return nil
	}
	free, err := c.diskFree(c.opts.Dir)
	if err != nil {
		c.log.Debug().Err(err).Str("dir", c.opts.Dir).Msg("gharchive: disk usage unavailable")
		return nil
	}
	if free < c.opts.MinFreeBytes {
		return perr.Storage(
			fmt.Errorf("%d bytes free, need %d", free, c.opts.MinFreeBytes),
			c.opts.Dir, "gharchive: cache volume is full")
	}
	return nil
}

func freeBytes(path string) (uint64, error) {
	u, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return u.Free, nil
}

// loadMeta reads a sidecar json file
func loadMeta(path string) (*cacheMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m cacheMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// saveMeta writes the sidecar json atomically
func saveMeta(path string, m *cacheMeta) error {
	tmp := path + ".part"
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// maybeCleanup throttles retention cleanup to once per ten minutes
func (c *CachedFetcher) maybeCleanup() {
	if c.retainMaxAge <= 0 && c.retainMaxBytes <= 0 {
		return
	}
	now := time.Now().Unix()
	last := c.lastCleanupUnix.Load()
	if last != 0 && now-last < 600 {
		return
	}
	if !c.lastCleanupUnix.CompareAndSwap(last, now) {
		return
	}
	if err := c.cleanupOnce(time.Now()); err != nil {
		c.log.Warn().Err(err).Msg("gharchive: cache retention")
	}
}

// cleanupOnce applies age and size retention by fetch time, least recently
// fetched first. Archive hours are historical, so the hour itself says nothing
// about staleness. Partial downloads are left alone so they can resume
func (c *CachedFetcher) cleanupOnce(now time.Time) error {
	entries, err := os.ReadDir(c.opts.Dir)
	if err != nil {
		return err
	}
	type item struct {
		path    string
		size    int64
		fetched time.Time
	}
	var items []item
	var total int64
	cutoff := now.Add(-c.retainMaxAge)

	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json.gz") {
			continue
		}
		if _, ok := ParseHourRef(strings.TrimSuffix(name, ".json.gz")); !ok {
			continue
		}
		full := filepath.Join(c.opts.Dir, name)
		fi, err := e.Info()
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		fetched := fi.ModTime()
		if m, err := loadMeta(full + ".meta"); err == nil && !m.FetchedAt.IsZero() {
			fetched = m.FetchedAt
		}
		if c.retainMaxAge > 0 && fetched.Before(cutoff) {
			_ = os.Remove(full)
			_ = os.Remove(full + ".meta")
			continue
		}
		items = append(items, item{path: full, size: fi.Size(), fetched: fetched})
		total += fi.Size()
	}

	if c.retainMaxBytes > 0 && total > c.retainMaxBytes {
		sort.SliceStable(items, func(i, j int) bool { return items[i].fetched.Before(items[j].fetched) })
		for _, it := range items {
			if total <= c.retainMaxBytes {
				break
			}
			_ = os.Remove(it.path)
			_ = os.Remove(it.path + ".meta")
			total -= it.size
		}
	}
	return nil
}
