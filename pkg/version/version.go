// Package version holds build information stamped in through ldflags, e.g.
//
//	-ldflags "-X github.com/rzbill/navlaunch/pkg/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release of navlaunch.
	Version = "dev"

	// BuildTime is the time when the binary was built.
	BuildTime = "unknown"

	// Commit is the git commit SHA that the binary was built from.
	Commit = "unknown"
)

// ShortCommit returns the first eight characters of Commit.
func ShortCommit() string {
	if len(Commit) > 8 {
		return Commit[:8]
	}
	return Commit
}

// Info returns version information as a formatted string.
func Info() string {
	return fmt.Sprintf("navlaunch %s (%s) built %s with %s %s/%s",
		Version,
		ShortCommit(),
		BuildTime,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// Map returns version information as a map.
func Map() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"buildTime": BuildTime,
		"goVersion": runtime.Version(),
		"os":        runtime.GOOS,
		"arch":      runtime.GOARCH,
	}
}
