// Package version exposes build metadata stamped at link time with
// -ldflags "-X github.com/kailas-cloud/crossdex/internal/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
