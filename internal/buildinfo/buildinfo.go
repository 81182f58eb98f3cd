// Package buildinfo holds build metadata for the scm binary. The linker
// injects values into cmd/scm; main() forwards them here through Set.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

const (
	unsetCommit  = "none"
	unsetBuilder = "unknown"
)

var (
	version = "dev"
	commit  = unsetCommit
	date    = "unknown"
	builtBy = unsetBuilder
)

// Set stores the build metadata received from linker-injected variables.
func Set(v, c, d, b string) {
	version, commit, date, builtBy = v, c, d, b
}

// Version returns the build version string.
func Version() string { return version }

// Commit returns the build commit hash.
func Commit() string { return commit }

// Date returns the build date string.
func Date() string { return date }

// BuiltBy returns the build agent string.
func BuiltBy() string { return builtBy }

// Enrich fills a missing commit from the embedded VCS revision and a missing
// builder from the Go toolchain version.
func Enrich() {
	if commit != unsetCommit && builtBy != unsetBuilder {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if commit == unsetCommit {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				commit = setting.Value
			}
		}
	}
	if builtBy == unsetBuilder {
		builtBy = info.GoVersion
	}
}

// Summary renders the metadata the way `scm version` prints it.
func Summary() string {
	return fmt.Sprintf("scm version %s\ncommit: %s\nbuilt at: %s\nbuilt by: %s\n", version, commit, date, builtBy)
}
