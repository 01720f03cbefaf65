// Package version reports build information stamped in at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/aiosforge/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/aiosforge/internal/version.Commit=abc123
//	  -X github.com/soyeahso/aiosforge/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is the machine-readable form of Info.
type BuildInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Date     string `json:"date"`
	Platform string `json:"platform"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("aiosforge %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// Build returns the current build information.
func Build() BuildInfo {
	return BuildInfo{
		Version:  Version,
		Commit:   short(Commit),
		Date:     Date,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
