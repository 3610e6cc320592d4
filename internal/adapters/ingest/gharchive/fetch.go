package gharchive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	perr "appimagefinder/internal/platform/errors"
	"appimagefinder/internal/platform/logger"
)

const (
	// BaseURL is the public archive endpoint
	BaseURL = "https://data.gharchive.org"

	defaultUA        = "appimage-finder"
	defaultMaxRetry  = 4
	defaultRetryBase = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
)

// Fetcher returns a compressed stream for one archive hour
type Fetcher interface {
	Fetch(ctx context.Context, hour HourRef) (io.ReadCloser, error)
}

// Observer receives transfer events; implementations must be safe for concurrent use
type Observer interface {
	Downloaded(hour HourRef, bytes int64)
	Retried(hour HourRef, attempt int, err error)
}

// Options configures a CachedFetcher
type Options struct {
	BaseURL    string
	Dir        string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration

	// MinFreeBytes refuses new downloads when the cache volume has less room
	MinFreeBytes uint64
}

// download writes the remote object into part, resuming from its current size
func (c *CachedFetcher) download(ctx context.Context, hour HourRef, part string) (cacheMeta, error) {
	var meta cacheMeta
	var offset int64
	if fi, err := os.Stat(part); err == nil && fi.Mode().IsRegular() {
		offset = fi.Size()
	}

	url := hour.URL(c.opts.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return meta, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "gharchive: build request for %s", url)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return meta, ctx.Err()
		}
		return meta, perr.Wrapf(err, perr.ErrorCodeUnavailable, "gharchive: get %s", url)
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	meta.ETag = strings.TrimSpace(resp.Header.Get("ETag"))
	meta.LastModified = strings.TrimSpace(resp.Header.Get("Last-Modified"))

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusOK:
		flags |= os.O_TRUNC
		offset = 0
	case http.StatusPartialContent:
		if start, ok := contentRangeStart(resp.Header.Get("Content-Range")); !ok || start != offset {
			_ = os.Remove(part)
			return meta, perr.Unavailablef("gharchive: range mismatch for %s (want %d, got %q)",
				url, offset, resp.Header.Get("Content-Range"))
		}
		flags |= os.O_APPEND
	case http.StatusRequestedRangeNotSatisfiable:
		// the part already holds the whole object
		meta.Size = offset
		return meta, nil
	case http.StatusNotFound:
		return meta, perr.ShardUnavailablef("gharchive: %s not found", hour)
	default:
		return meta, perr.Unavailablef("gharchive: unexpected status %d for %s", resp.StatusCode, url)
	}

	out, err := os.OpenFile(part, flags, 0o644)
	if err != nil {
		return meta, perr.Storage(err, part, "gharchive: open partial download")
	}
	sw := &sinkWriter{w: out}
	n, copyErr := io.Copy(sw, resp.Body)
	closeErr := out.Close()
	if c.obs != nil && n > 0 {
		c.obs.Downloaded(hour, n)
	}

	switch {
	case sw.err != nil:
		return meta, perr.Storage(sw.err, part, "gharchive: write partial download")
	case closeErr != nil:
		return meta, perr.Storage(closeErr, part, "gharchive: close partial download")
	case copyErr != nil:
		if ctx.Err() != nil {
			return meta, ctx.Err()
		}
		return meta, perr.Wrapf(copyErr, perr.ErrorCodeUnavailable, "gharchive: body for %s cut at %d bytes", url, offset+n)
	}
	meta.Size = offset + n
	return meta, nil
}

// fetchWithRetry drives download until it succeeds or the budget runs out
func (c *CachedFetcher) fetchWithRetry(ctx context.Context, hour HourRef, part string) (cacheMeta, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			back := c.backoff(attempt - 1)
			if c.obs != nil {
				c.obs.Retried(hour, attempt, lastErr)
			}
			c.log.Warn().
				Str("hour", hour.String()).
				Int("attempt", attempt).
				Dur("retry_in", back).
				Err(lastErr).
				Msg("gharchive: transient fetch error, retrying")
			if err := c.sleep(ctx, back); err != nil {
				return cacheMeta{}, err
			}
		}

		meta, err := c.download(ctx, hour, part)
		if err == nil {
			return meta, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return cacheMeta{}, err
		}
		if !perr.Retryable(err) {
			return cacheMeta{}, err
		}
		lastErr = err
	}
	return cacheMeta{}, perr.Wrapf(lastErr, perr.ErrorCodeShardUnavailable,
		"gharchive: %s unavailable after %d attempts", hour, c.opts.MaxRetries+1)
}

// backoff is exponential from RetryBase, capped, with up to 50% jitter
func (c *CachedFetcher) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		d = maxBackoff
	}
	return d + c.jitter(d/2)
}

func defaultJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sinkWriter remembers write failures so they are not mistaken for network errors
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
	}
	return n, err
}

// contentRangeStart parses the first byte offset of "bytes X-Y/Z"
func contentRangeStart(v string) (int64, bool) {
	v = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "bytes"))
	dash := strings.IndexByte(v, '-')
	if dash <= 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v[:dash]), 10, 64)
	return n, err == nil
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 64*1024))
	return rc.Close()
}

func newLogger() *logger.Logger { return logger.Named("gharchive") }

func cachePath(dir string, hour HourRef) string { return filepath.Join(dir, hour.FileName()) }
