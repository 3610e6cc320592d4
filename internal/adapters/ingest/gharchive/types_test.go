package gharchive

import (
	"testing"
	"time"
)

func TestHourRefNaming(t *testing.T) {
	h := NewHourRef(time.Date(2025, 6, 9, 5, 30, 0, 0, time.FixedZone("X", 2*3600)))
	if h != (HourRef{2025, 6, 9, 3}) {
		t.Fatalf("NewHourRef should convert to UTC, got %+v", h)
	}
	if h.String() != "2025-06-09-3" {
		t.Fatalf("String = %q", h.String())
	}
	if h.FileName() != "2025-06-09-3.json.gz" {
		t.Fatalf("FileName = %q", h.FileName())
	}
	if got := h.URL("https://data.gharchive.org/"); got != "https://data.gharchive.org/2025-06-09-3.json.gz" {
		t.Fatalf("URL = %q", got)
	}
	if !h.Time().Equal(time.Date(2025, 6, 9, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("Time = %v", h.Time())
	}
}

func TestParseHourRef(t *testing.T) {
	cases := []struct {
		in   string
		want HourRef
		ok   bool
	}{
		{"2025-06-09-3", HourRef{2025, 6, 9, 3}, true},
		{"2025-06-09-03", HourRef{2025, 6, 9, 3}, true},
		{"2025-06-09-23", HourRef{2025, 6, 9, 23}, true},
		{"2025-06-09-24", HourRef{}, false},
		{"2025-02-30-1", HourRef{}, false},
		{"2025-06-09", HourRef{}, false},
		{"2025-06-09-3x", HourRef{}, false},
	}
	for _, c := range cases {
		got, ok := ParseHourRef(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseHourRef(%q) = %+v,%v want %+v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestDecodeRelease(t *testing.T) {
	env := EventEnvelope{
		ID:        "7",
		Type:      ReleaseEventType,
		CreatedAt: "2024-01-01T05:00:00Z",
		Payload: []byte(`{"action":"published","release":{"name":"App 1.2","tag_name":"v1.2",
			"published_at":"2024-01-01T05:00:00Z","assets":[{"name":"App.AppImage","browser_download_url":"u","size":10}]}}`),
	}
	p, err := env.DecodeRelease()
	if err != nil {
		t.Fatalf("DecodeRelease: %v", err)
	}
	if p.Release.TagName != "v1.2" || len(p.Release.Assets) != 1 || p.Release.Assets[0].BrowserDownloadURL != "u" {
		t.Fatalf("payload = %+v", p)
	}
	ts, err := env.CreatedTime()
	if err != nil || !ts.Equal(time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)) {
		t.Fatalf("CreatedTime = %v, %v", ts, err)
	}

	if _, err := (EventEnvelope{ID: "8"}).DecodeRelease(); err == nil {
		t.Fatalf("empty payload should fail")
	}
	if _, err := (EventEnvelope{Payload: []byte(`{"release":{"assets":"nope"}}`)}).DecodeRelease(); err == nil {
		t.Fatalf("schema drift should fail")
	}
}
