package config

// Build information, set with -ldflags "-X .../internal/config.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// VersionString describes the running build
func VersionString() string {
	if Commit == "unknown" {
		return Version
	}
	return Version + " (" + Commit + ", " + Date + ")"
}
