// Package version reports the build stamped into the binary
//
//	go build -ldflags "-X lasrouter/internal/core/version.version=v0.3.0 -X lasrouter/internal/core/version.commit=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// BuildInfo is served by /meta/version and printed by lasrouter --version
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the stamped build
func Info() BuildInfo {
	return BuildInfo{Service: "lasrouter", Version: version, Commit: commit, Date: date}
}

// String renders "v0.3.0 (abc1234, 2026-01-02)"
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", b.Version, b.Commit, b.Date)
}
