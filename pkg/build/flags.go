// SPDX-License-Identifier: MIT
//
// Package build provides functionality to manage and retrieve build information
// for a Go application. It allows embedding metadata such as the application
// name, build timestamp, Git commit hash, and semantic version into the binary
// at compile time using linker flags:
//
//	go build -ldflags "-X audiodemo/pkg/build.buildName=audiodemo \
//	  -X audiodemo/pkg/build.buildVersion=0.1.0 ..."
//
// Development builds carry no linker flags; their information is read from
// the module build info instead.
package build

import (
	"fmt"
	"path"
	"runtime/debug"
)

const (
	defaultName        = "audiodemo"
	defaultDescription = "Hosts small real-time audio demo apps with four buttons and four LEDs"
	unknown            = "unknown"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation. Default values of "unknown" are used during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}

	readBuildInfo = debug.ReadBuildInfo
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. This must be called early in program startup
// to ensure all build information is properly set. When no flags were given
// at all the module build info is used; a partial set is an error.
func Initialize() error {
	if buildName == "" && buildTime == "" && buildCommit == "" && buildVersion == "" {
		fromBuildInfo()
		return nil
	}

	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

func fromBuildInfo() {
	info, ok := readBuildInfo()
	if !ok {
		return
	}
	if info.Path != "" {
		buildFlags.Name = path.Base(info.Path)
	}
	if v := info.Main.Version; v != "" {
		buildFlags.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			buildFlags.Commit = s.Value
		case "vcs.time":
			buildFlags.Time = s.Value
		}
	}
}

// GetBuildFlags returns the current build information. Initialize()
// must be called before this function to ensure the build information
// is valid. This function is safe to call after initialization.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String formats the build information for --version output.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
