// Package buildinfo carries the identifiers stamped in with -ldflags.
package buildinfo

import "fmt"

// Set at build time via -ldflags "-X picoheld/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for titles and log banners.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		if len(Commit) > 12 {
			return Commit[:12]
		}
		return Commit
	}
	return "dev"
}

// Long returns every identifier.
func Long() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
