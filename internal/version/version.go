// Package version carries build metadata for the dashboard binary.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/cbmooners/dashboard/internal/version.Version=1.0.0 \
//	                   -X github.com/cbmooners/dashboard/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/cbmooners/dashboard/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/dashboard
package version

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// UserAgent is sent with every backend request.
func UserAgent() string {
	return "cbmooners-dashboard/" + Version
}
