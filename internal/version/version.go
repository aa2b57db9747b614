// Package version carries build metadata stamped in with -ldflags -X.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String describes the build for -version output and the startup log.
func String() string {
	return fmt.Sprintf("limbspeed %s (%s, built %s)", Version, GitSHA, BuildTime)
}
