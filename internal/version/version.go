// Package version holds the build version, set at link time with
// -ldflags "-X github.com/hashicorp-forge/uidcrack/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the semantic version of the build.
	Version = "0.1.0"

	// Prerelease is a pre-release marker such as "dev".
	Prerelease = "dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = ""
)

// String returns the full human readable version.
func String() string {
	v := Version
	if Prerelease != "" {
		v += "-" + Prerelease
	}
	if GitCommit != "" {
		v += fmt.Sprintf(" (%s)", GitCommit)
	}
	return v
}
