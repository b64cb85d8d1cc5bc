// Package buildinfo contains build-time information embedded via ldflags.
package buildinfo

// Version is the application version, set at build time via ldflags.
// Example: go build -ldflags "-X github.com/atzentis/atzentis/internal/buildinfo.Version=v1.0.0"
var Version = "dev"

// Commit is the git commit hash, set at build time via ldflags.
var Commit = "unknown"

// GetVersion returns the current version, with "dev" as the default for
// development builds.
func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
