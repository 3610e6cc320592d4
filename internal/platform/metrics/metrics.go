// Package metrics holds the prometheus collectors a scan updates and can
// dump them to a node_exporter textfile when the process exits
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "appimage_finder"

// Finder groups the collectors for one process on a private registry
type Finder struct {
	Registry *prometheus.Registry

	Shards        *prometheus.CounterVec
	CacheHits     prometheus.Counter
	FetchBytes    prometheus.Counter
	FetchRetries  prometheus.Counter
	Lines         prometheus.Counter
	Malformed     prometheus.Counter
	ReleaseEvents prometheus.Counter
	Records       *prometheus.CounterVec
	PhaseSeconds  *prometheus.HistogramVec
	LastRun       prometheus.Gauge
}

// New builds and registers all collectors
func New() *Finder {
	f := &Finder{
		Registry: prometheus.NewRegistry(),
		Shards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shards_total",
			Help:      "Archive hours processed, by outcome",
		}, []string{"status"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shard_cache_hits_total",
			Help:      "Archive hours served from the local cache",
		}),
		FetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Compressed bytes downloaded from the archive",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Download attempts beyond the first",
		}),
		Lines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Archive lines read",
		}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_lines_total",
			Help:      "Archive lines skipped because they failed to decode",
		}),
		ReleaseEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "release_events_total",
			Help:      "Release events in the window with at least one asset",
		}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Release records extracted before de-duplication",
		}, []string{"arch"}),
		PhaseSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shard_phase_seconds",
			Help:      "Time spent per archive hour, by phase",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last scan finished",
		}),
	}
	f.Registry.MustRegister(
		f.Shards, f.CacheHits, f.FetchBytes, f.FetchRetries, f.Lines, f.Malformed,
		f.ReleaseEvents, f.Records, f.PhaseSeconds, f.LastRun,
	)
	return f
}

// ObservePhase records how long a phase took
func (f *Finder) ObservePhase(phase string, d time.Duration) {
	f.PhaseSeconds.WithLabelValues(phase).Observe(d.Seconds())
}

// Finish stamps the completion gauge
func (f *Finder) Finish(at time.Time) {
	f.LastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in text exposition format; empty path is a no-op
func (f *Finder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, f.Registry)
}
