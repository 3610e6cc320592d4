// Package domain holds the data structures and ports of the finder
package domain

import (
	"time"

	"appimagefinder/internal/adapters/ingest/gharchive"
	"appimagefinder/internal/core/appimage"
	"appimagefinder/internal/core/dedup"
	"appimagefinder/internal/core/window"
)

// EventEnvelope re-exports the archive event shape used by the reader
type EventEnvelope = gharchive.EventEnvelope

// HourRef is one archive hour
type HourRef = gharchive.HourRef

// Record is one AppImage asset of one qualifying release. Field order is the
// column order of every output format
type Record struct {
	Repo         string `json:"repo" parquet:"repo"`
	ReleaseName  string `json:"release_name" parquet:"release_name"`
	TagName      string `json:"tag_name" parquet:"tag_name"`
	PublishedAt  string `json:"published_at" parquet:"published_at"`
	AppImageName string `json:"appimage_name" parquet:"appimage_name"`
	DownloadURL  string `json:"download_url" parquet:"download_url"`
	Architecture string `json:"architecture" parquet:"architecture"`
	PackageName  string `json:"package_name" parquet:"package_name"`
	Version      string `json:"version" parquet:"version"`
}

// Columns are the serialized field names in declaration order
var Columns = []string{
	"repo", "release_name", "tag_name", "published_at", "appimage_name",
	"download_url", "architecture", "package_name", "version",
}

// Values returns the fields in Columns order
func (r Record) Values() []string {
	return []string{
		r.Repo, r.ReleaseName, r.TagName, r.PublishedAt, r.AppImageName,
		r.DownloadURL, r.Architecture, r.PackageName, r.Version,
	}
}

// DedupKey implements dedup.Item
func (r Record) DedupKey() dedup.Key { return dedup.Key{Repo: r.Repo, Arch: r.Architecture} }

// PublishedTime implements dedup.Item
func (r Record) PublishedTime() time.Time { return dedup.ParseInstant(r.PublishedAt) }

// Request is one scan
type Request struct {
	Window           window.TimeRange
	Target           appimage.Arch
	IncludeChecksums bool
	KeepAll          bool
	Policy           appimage.ContinuousPolicy
}

// Shard outcomes as written to the ledger and the shards_total metric
const (
	ShardOK          = "ok"
	ShardUnavailable = "unavailable"
	ShardError       = "error"
)

// Run outcomes
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunEmpty   = "empty"
	RunPartial = "partial"
	RunFailed  = "failed"
)

// ShardStats counts what one archive hour produced
type ShardStats struct {
	Lines             int
	Malformed         int
	ReleaseEvents     int
	OutOfWindow       int
	NoAssets          int
	ContinuousDropped int
	MalformedRepos    int
	Records           int
	Bytes             int64
}

// Add folds o into s
func (s *ShardStats) Add(o ShardStats) {
	s.Lines += o.Lines
	s.Malformed += o.Malformed
	s.ReleaseEvents += o.ReleaseEvents
	s.OutOfWindow += o.OutOfWindow
	s.NoAssets += o.NoAssets
	s.ContinuousDropped += o.ContinuousDropped
	s.MalformedRepos += o.MalformedRepos
	s.Records += o.Records
	s.Bytes += o.Bytes
}

// ShardFinish is the ledger row for one processed hour
type ShardFinish struct {
	Hour     time.Time
	Status   string
	CacheHit bool
	Stats    ShardStats
	FetchMS  int
	ReadMS   int
	ErrText  string
}

// RunStats summarizes a whole scan
type RunStats struct {
	ShardStats

	Shards            int
	ShardsOK          int
	ShardsUnavailable int
	ShardsFailed      int
	CacheHits         int
	Collapsed         int
	Elapsed           time.Duration
}

// RunStart is the ledger row written when a scan begins
type RunStart struct {
	ID               string
	Start, End       time.Time
	Target           string
	IncludeChecksums bool
	KeepAll          bool
	Workers          int
	StartedAt        time.Time
}

// RunFinish closes a ledger run row
type RunFinish struct {
	Status     string
	Records    int
	Stats      RunStats
	FinishedAt time.Time
	ErrText    string
}

// Result is what a scan returns. Empty and Partial are outcomes, not errors
type Result struct {
	RunID   string
	Target  appimage.Arch
	Records []Record
	Stats   RunStats
	Empty   bool
	Partial bool
}

// ByArch groups records by architecture, keeping record order within a group
// and the order architectures first appear in
func (r Result) ByArch() (archs []string, groups map[string][]Record) {
	groups = make(map[string][]Record)
	for _, rec := range r.Records {
		if _, ok := groups[rec.Architecture]; !ok {
			archs = append(archs, rec.Architecture)
		}
		groups[rec.Architecture] = append(groups[rec.Architecture], rec)
	}
	return archs, groups
}
