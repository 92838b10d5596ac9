// Package version reports the build version of the restpilot binary and
// checks a collection file's optional minimum-engine-version constraint
// against it.
package version

import (
	"fmt"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"
)

var Version string = "0.0.0"

// BuildVersionString constructs a version string from the build metadata
// injected by `go build`/`go install`, falling back to Version when the
// binary wasn't built from a module with VCS info.
func BuildVersionString() string {
	versionNumber, buildTime, gitSha, isDirtySuffix := Version, "local", "unknown", ""
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			versionNumber = info.Main.Version
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.time":
				buildTime = setting.Value
			case "vcs.revision":
				gitSha = setting.Value
			case "vcs.modified":
				if setting.Value == "true" {
					isDirtySuffix = "-dirty"
				}
			}
		}
	}
	return fmt.Sprintf("%s (build: %s, sha: %s%s)", versionNumber, buildTime, gitSha, isDirtySuffix)
}

// AssertEngineVersion checks current against constraint, a semver
// constraint string such as ">=1.2.0" or "^1.2". A collection file may
// declare such a constraint to refuse loading under an incompatible
// engine build.
func AssertEngineVersion(constraint string, current string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("current version is missing or invalid %q: %w", current, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("current version %s does not satisfy required constraint %q", current, constraint)
	}
	return nil
}
