// Package version provides version information for fixkit.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build information set by ldflags during build.
// These are set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

// Info returns formatted version information.
func Info() string {
	return fmt.Sprintf("fixkit %s (commit: %s, built: %s, %s)",
		Short(), Commit, Date, GoVersion)
}

// Short returns just the version string. Binaries installed with go install
// report their module version when no ldflags were given.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}
