// Package vars carries build information injected with -ldflags.
package vars

import (
	"fmt"
	"runtime"
)

// Set at build time, e.g. -ldflags "-X .../internal/vars.Version=v1.0.0".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns a one-line version description.
func String() string {
	return fmt.Sprintf("mw-randomizer %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Print writes the version information to stdout.
func Print() {
	fmt.Println(String())
}
