// Package version holds build information injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/longkey1/legalc/internal/version.Version=v1.0.0"
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildTime = "unknown"
)

// Short returns the version number only
func Short() string {
	return Version
}

// Info returns the full version description
func Info() string {
	return fmt.Sprintf("legalc %s\n  commit:     %s\n  built:      %s\n  go version: %s\n  platform:   %s/%s",
		Version, CommitSHA, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
