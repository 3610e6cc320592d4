// Package version reports the build stamp of the binary
package version

import (
	"fmt"
	"runtime"
)

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Set with -ldflags "-X 'appimagefinder/internal/core/version.version=v0.1.0'
// -X 'appimagefinder/internal/core/version.commit=abcd' -X 'appimagefinder/internal/core/version.date=2025-06-09'"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information
func Info() BuildInfo {
	return BuildInfo{
		Service:   "appimage-finder",
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
	}
}

// String renders the one line form used by --version
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", b.Service, b.Version, b.Commit, b.Date, b.GoVersion)
}
