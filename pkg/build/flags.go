// SPDX-License-Identifier: MIT
//
// Package build provides functionality to manage and retrieve build information
// for a Go application. It allows embedding metadata such as the application
// name, build timestamp, Git commit hash, and semantic version into the binary
// at compile time using linker flags:
//
//	go build -ldflags "-X rhythm/pkg/build.buildName=rhythm -X rhythm/pkg/build.buildVersion=0.1.0 ..."
package build

import (
	"fmt"
	"runtime"
)

// Description is the one-line summary shown by the CLI.
const Description = "Real-time multi-band beat detection and hit timing"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String formats the build for `version` output.
func (f ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s/%s)",
		f.Name, f.Version, f.Commit, f.Time, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation. Default values are used during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "rhythm",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. Returns an error if any required build flag is
// missing; the development defaults stay in place in that case.
func Initialize() error {
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

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
