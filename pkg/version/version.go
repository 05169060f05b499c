// Package version holds build information set through -ldflags, e.g.
//
//	go build -ldflags "-X github.com/alex-ilgayev/adaptogen/pkg/version.Version=v0.2.0"
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build information for --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
