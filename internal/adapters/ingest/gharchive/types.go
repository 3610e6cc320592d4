package gharchive

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HourRef identifies a GH Archive hour (UTC)
type HourRef struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// NewHourRef creates an HourRef from a time.Time, converting to UTC
func NewHourRef(t time.Time) HourRef {
	ut := t.UTC()
	return HourRef{Year: ut.Year(), Month: int(ut.Month()), Day: ut.Day(), Hour: ut.Hour()}
}

// String returns the hour in GH Archive format: YYYY-MM-DD-H (hour not zero padded)
func (h HourRef) String() string {
	return fmt.Sprintf("%04d-%02d-%02d-%d", h.Year, h.Month, h.Day, h.Hour)
}

// FileName is the archive object name and the local cache file name
func (h HourRef) FileName() string { return h.String() + ".json.gz" }

// URL joins the archive base with the object name
func (h HourRef) URL(base string) string {
	return strings.TrimRight(base, "/") + "/" + h.FileName()
}

// Time returns the first instant of the hour
func (h HourRef) Time() time.Time {
	return time.Date(h.Year, time.Month(h.Month), h.Day, h.Hour, 0, 0, 0, time.UTC)
}

// ParseHourRef parses YYYY-MM-DD-H as used in cache file names (hour may be zero padded)
func ParseHourRef(s string) (HourRef, bool) {
	var h HourRef
	if _, err := fmt.Sscanf(s, "%d-%d-%d-%d", &h.Year, &h.Month, &h.Day, &h.Hour); err != nil {
		return HourRef{}, false
	}
	if h.Hour < 0 || h.Hour > 23 || NewHourRef(h.Time()) != h {
		return HourRef{}, false
	}
	padded := fmt.Sprintf("%04d-%02d-%02d-%02d", h.Year, h.Month, h.Day, h.Hour)
	if s != h.String() && s != padded {
		return HourRef{}, false
	}
	return h, true
}

// EventEnvelope is the outer event format GH Archive stores per line.
// Only the fields the finder reads are modelled; Payload stays raw until the type is known
type EventEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Repo      Repo            `json:"repo"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

// Repo is the repository the event occurred in
type Repo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"` // owner/name
}

// ReleaseEventType is the event type carrying published releases
const ReleaseEventType = "ReleaseEvent"

// ReleasePayload is the ReleaseEvent payload
type ReleasePayload struct {
	Action  string  `json:"action"`
	Release Release `json:"release"`
}

// Release is the subset of a GitHub release the finder uses
type Release struct {
	Name        string  `json:"name"`
	TagName     string  `json:"tag_name"`
	PublishedAt string  `json:"published_at"`
	Prerelease  bool    `json:"prerelease"`
	Draft       bool    `json:"draft"`
	Assets      []Asset `json:"assets"`
}

// Asset is one file attached to a release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// CreatedTime parses created_at as RFC 3339
func (e EventEnvelope) CreatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.CreatedAt)
}

// DecodeRelease decodes the payload of a ReleaseEvent
func (e EventEnvelope) DecodeRelease() (ReleasePayload, error) {
	var p ReleasePayload
	if len(e.Payload) == 0 {
		return p, fmt.Errorf("gharchive: empty payload for event %s", e.ID)
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("gharchive: decode release payload: %w", err)
	}
	return p, nil
}
