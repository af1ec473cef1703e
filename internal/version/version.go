// Package version holds build metadata set through ldflags:
//
//	go build -ldflags "-X github.com/frontedward/dictator/internal/version.Version=v1.0.0"
package version

import "fmt"

// Version is the release version, "unknown" for development builds.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version line printed by --version.
func String() string {
	if GitCommit == "unknown" {
		return "dictator " + Version
	}
	return fmt.Sprintf("dictator %s (%s, built %s)", Version, GitCommit, BuildTime)
}
