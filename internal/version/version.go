package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/Dima-369/dotty/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/Dima-369/dotty/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/Dima-369/dotty/internal/version.Date={{.Date}}
)
