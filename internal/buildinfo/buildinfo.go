// Package buildinfo stores build-time metadata shared across packages.
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// Set via ldflags during build.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the build metadata reported by `clawdash version`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata, filling the commit from the embedded VCS
// stamp when ldflags did not set it.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if info.Commit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					info.Commit = s.Value[:7]
				}
			}
		}
	}

	return info
}
