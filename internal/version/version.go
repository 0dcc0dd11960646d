// Package version holds build metadata injected with -ldflags "-X".
package version

var (
	Version   = "0.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Current returns the build metadata of the running binary.
func Current() Build {
	return Build{Version: Version, Commit: GitCommit, BuildDate: BuildDate}
}

// String formats the build as "<version> (<commit>, <date>)".
func (b Build) String() string {
	return b.Version + " (" + b.Commit + ", " + b.BuildDate + ")"
}
