package service

import (
	"appimagefinder/internal/adapters/ingest/gharchive"
	"appimagefinder/internal/core/window"
	"appimagefinder/internal/services/finder/domain"
)

type verdict uint8

const (
	keep verdict = iota
	notRelease
	malformed
	outOfWindow
	noAssets
)

// classify decides whether env is a release published inside w that has
// something to look at
func classify(env domain.EventEnvelope, w window.TimeRange) (gharchive.Release, verdict) {
	if env.Type != gharchive.ReleaseEventType {
		return gharchive.Release{}, notRelease
	}
	created, err := env.CreatedTime()
	if err != nil {
		return gharchive.Release{}, malformed
	}
	if !w.Contains(created) {
		return gharchive.Release{}, outOfWindow
	}
	p, err := env.DecodeRelease()
	if err != nil {
		return gharchive.Release{}, malformed
	}
	if len(p.Release.Assets) == 0 {
		return p.Release, noAssets
	}
	return p.Release, keep
}
