package buildinfo

import "fmt"

// Set via -ldflags at build time:
//
//	-X 'github.com/uthef/QrBot/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/uthef/QrBot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/uthef/QrBot/core/buildinfo.Date=2026-01-01T12:00:00Z'
var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders the build identity for startup logs and the health endpoint.
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
