package version

import "fmt"

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/pagemod/internal/version.Version=...
	Commit  = "unknown" // -X github.com/arthur-debert/pagemod/internal/version.Commit=...
	Date    = "unknown" // -X github.com/arthur-debert/pagemod/internal/version.Date=...
)

// String formats the build information for logs
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
