package buildinfo

// Set with -ldflags "-X github.com/josh-kwaku/bizledger/internal/buildinfo.Version=..." at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
