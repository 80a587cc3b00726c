package app

import "fmt"

// Version and Commit can be overridden at build time:
// go build -ldflags "-X wsnav/internal/app.Version=v0.1.1 -X wsnav/internal/app.Commit=abcdef0" ./cmd/wsnav
var (
	Version = "v0.1.0"
	Commit  = "dev"
)

func VersionString() string {
	return fmt.Sprintf("wsnav %s (%s)", Version, Commit)
}
