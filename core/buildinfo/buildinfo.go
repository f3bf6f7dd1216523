// Package buildinfo carries version stamps injected at link time, e.g.
//
//	go build -ldflags "-X github.com/m3rciful/rentbot/core/buildinfo.Version=v0.3.0 \
//	  -X github.com/m3rciful/rentbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

var (
	Version = "dev"
	Commit  = "local"
	// Date is the RFC3339 build time; empty for local builds.
	Date = ""
)
