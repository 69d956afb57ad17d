// Package version carries build metadata stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/techtribe/techtribe/internal/version.Version=1.0.0
//	  -X github.com/techtribe/techtribe/internal/version.Commit=abc123
//	  -X github.com/techtribe/techtribe/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns the long form printed by `techtribe version`.
func Info() string {
	return fmt.Sprintf("techtribe %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// Product returns a compact product token such as "TechTribe/1.0.0", used in
// the Server header and as the IRC client version.
func Product() string {
	return "TechTribe/" + Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
