// Package versions exposes build-time version information for the dsc
// engine binary and the host-compatibility gate used by the Configurator.
package versions

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

const unknownStr = "unknown"

// Version, Commit and BuildDate are populated via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = unknownStr
	BuildDate = unknownStr
)

// VersionInfo is the fully resolved, display-ready version of the engine.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
}

// GetVersionInfo resolves the package-level build variables into a
// VersionInfo, normalizing "dev" builds to a short "build-<commit>" label
// and reformatting parseable build dates into a UTC display string.
func GetVersionInfo() VersionInfo {
	version := Version
	if version == "dev" {
		commit := Commit
		if commit == unknownStr {
			commit = unknownStr
		}
		version = "build-" + commit
	}

	buildDate := BuildDate
	if t, err := time.Parse(time.RFC3339, BuildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 UTC")
	}

	return VersionInfo{
		Version:   version,
		Commit:    Commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// HostVersion parses Version as a semantic version for comparison against a
// configuration document's directives.version gate. It tolerates the "dev"
// and "build-*" forms produced by unreleased builds by falling back to
// 0.0.0, which satisfies no minimum-version requirement but never errors.
func HostVersion() *semver.Version {
	if v, err := semver.NewVersion(Version); err == nil {
		return v
	}
	return semver.MustParse("0.0.0")
}

// CheckDirectiveVersion reports an error if the host engine version does not
// satisfy the supplied Cargo-style constraint string (e.g. ">=3.0.0").
func CheckDirectiveVersion(constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return dscerror.New(dscerror.KindSetting, fmt.Sprintf("invalid directives.version constraint %q", constraint), err)
	}
	if !c.Check(HostVersion()) {
		return dscerror.New(dscerror.KindValidation,
			fmt.Sprintf("engine version %s does not satisfy directives.version %q", Version, constraint), nil)
	}
	return nil
}
