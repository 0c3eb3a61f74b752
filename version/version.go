package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Product is the User-Agent product token.
const Product = "sessionkit"

var (
	// Set at build time using -ldflags.
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes the running build.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date,omitzero"`
	IsDirty   bool      `json:"is_dirty"`
}

// IsRelease reports whether the build carries a real version.
func (i *Info) IsRelease() bool {
	return i.Version != "dev" && !i.IsDirty
}

// Get returns the build information. VCS settings embedded by the go tool
// fill the commit and date when ldflags did not.
func Get() *Info {
	info := &Info{Version: Version, GitCommit: GitCommit, GoVersion: runtime.Version()}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildDate = t
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = shortCommit(s.Value)
			}
		case "vcs.modified":
			info.IsDirty = s.Value == "true"
		case "vcs.time":
			if info.BuildDate.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuildDate = t
				}
			}
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String returns "version-commit[-dirty]", or the version alone without a
// commit.
func (i *Info) String() string {
	s := i.Version
	if i.GitCommit != "" {
		s += "-" + i.GitCommit
	}
	if i.IsDirty {
		s += "-dirty"
	}
	return s
}

// UserAgent returns "sessionkit/<version> (<go version>; <os>/<arch>)".
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s/%s)", Product, Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
