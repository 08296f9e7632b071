// Package version holds build-time version information for the checkversion
// binary itself. The variables in this package are populated at build time
// via -ldflags:
//
//	go build -ldflags="-X github.com/ilove8790/nextplay/internal/version.Version=1.2.261014 \
//	                    -X github.com/ilove8790/nextplay/internal/version.Commit=abc1234 \
//	                    -X github.com/ilove8790/nextplay/internal/version.BuildDate=2026-10-14"
//
// When built without ldflags, Commit and BuildDate fall back to the VCS
// settings the Go toolchain embeds, then to "unknown".
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the version of the binary. Defaults to "dev" for local builds.
var Version = "dev"

// Commit is the short git SHA of the commit the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC date the binary was built.
var BuildDate = "unknown"

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info is the resolved build metadata.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	Dirty     bool
}

// Get returns the build metadata, filling gaps from embedded build info.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildDate: BuildDate}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String formats info for `checkversion version`.
func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("checkversion %s (commit: %s, built: %s)", i.Version, commit, i.BuildDate)
}

// shortRevision truncates a full SHA to seven characters.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
