// Package version reports the build identity of the lineage binary.
package version

import (
	"runtime/debug"
)

const (
	unknown       = "unknown"
	shortRevision = 12

	settingRevision = "vcs.revision"
	settingTime     = "vcs.time"
	settingModified = "vcs.modified"
	dirtySuffix     = "-dirty"
	develVersion    = "(devel)"
)

// Set at link time with -ldflags "-X". Anything left at the default is
// filled from the embedded build info by InitBinaryVersion.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Version, Commit and Date from the module build
// info when they were not set at link time.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != develVersion {
		Version = info.Main.Version
	}

	var modified bool

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingRevision:
			if Commit == unknown {
				Commit = setting.Value
				if len(Commit) > shortRevision {
					Commit = Commit[:shortRevision]
				}
			}
		case settingTime:
			if Date == unknown {
				Date = setting.Value
			}
		case settingModified:
			modified = setting.Value == "true"
		}
	}

	if modified && Commit != unknown {
		Commit += dirtySuffix
	}
}
