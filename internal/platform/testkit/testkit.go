// Package testkit provides testing helpers shared across packages:
// panic and output assertions, seam swapping, and synthetic archive shards
package testkit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// MustPanic asserts that fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

// MustNotPanic asserts that fn does not panic
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}

// MustContain asserts that haystack contains needle. On failure the haystack is written under t.TempDir
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		tmpfile := filepath.Join(t.TempDir(), "test_output.txt")
		_ = os.WriteFile(tmpfile, []byte(haystack), 0o600)
		t.Fatalf("expected output to contain %q\n\nfull output written to %s", needle, tmpfile)
	}
}

var seamMu sync.Mutex

// Swap replaces a package-level variable for the duration of the test
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial runs the rest of the test under a global lock so seam swaps do not interleave
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(func() { seamMu.Unlock() })
}

// Asset describes one release attachment for ReleaseLine
type Asset struct {
	Name string
	URL  string
}

// ReleaseLine renders a single archive line for a published release named after its tag
func ReleaseLine(t *testing.T, repo, tag, publishedAt string, assets ...Asset) string {
	t.Helper()
	return NamedReleaseLine(t, repo, tag, tag, publishedAt, assets...)
}

// NamedReleaseLine is ReleaseLine with a release title distinct from the tag
func NamedReleaseLine(t *testing.T, repo, name, tag, publishedAt string, assets ...Asset) string {
	t.Helper()
	as := make([]map[string]any, 0, len(assets))
	for _, a := range assets {
		url := a.URL
		if url == "" {
			url = "https://github.com/" + repo + "/releases/download/" + tag + "/" + a.Name
		}
		as = append(as, map[string]any{"name": a.Name, "browser_download_url": url})
	}
	ev := map[string]any{
		"id":         "1",
		"type":       "ReleaseEvent",
		"repo":       map[string]any{"id": 1, "name": repo},
		"created_at": publishedAt,
		"payload": map[string]any{
			"action": "published",
			"release": map[string]any{
				"name":         name,
				"tag_name":     tag,
				"published_at": publishedAt,
				"assets":       as,
			},
		},
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal release line: %v", err)
	}
	return string(b)
}

// GzipLines joins lines with newlines and gzips them like an hourly shard
func GzipLines(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	for _, l := range lines {
		if _, err := zw.Write([]byte(l + "\n")); err != nil {
			t.Fatalf("gzip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}
