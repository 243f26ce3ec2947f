// Package version reports the build version of the binaries.
package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

// Version and Commit may be set at link time with
// -ldflags "-X github.com/larsks/inputbridge/internal/version.Version=...".
var (
	Version = ""
	Commit  = ""
)

// Info is the version information of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"goVersion"`
}

// Get returns the link-time version, falling back to the module build info.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "" {
			info.Version = bi.Main.Version
		}
		if info.Commit == "" {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" {
					info.Commit = s.Value
				}
			}
		}
	}
	if info.Version == "" || info.Version == "(devel)" {
		info.Version = "dev"
	}
	return info
}

func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		commit := i.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		s += " (" + commit + ")"
	}
	return s + " " + i.GoVersion
}

// Write prints the program name and version to w.
func Write(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", filepath.Base(os.Args[0]), Get())
}

// ShowVersion prints the version to stdout.
func ShowVersion() {
	Write(os.Stdout)
}
