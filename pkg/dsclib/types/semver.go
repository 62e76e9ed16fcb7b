// Package types defines the value types shared across the engine: semantic
// versions and version requirements, the resource-version sum type, and the
// fully qualified type name used to key every manifest lookup.
package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// segmentPattern matches a single major/minor/patch segment: either the
// literal "0" or a non-zero digit followed by any digits (no leading
// zeroes).
const segmentPattern = `(?:0|[1-9]\d*)`

// subsegmentPattern matches one prerelease/build-metadata subsegment: either
// a plain numeric segment or any combination of digits/letters/hyphens that
// contains at least one non-digit.
const subsegmentPattern = `(?:` + segmentPattern + `|\d*[a-zA-Z-][0-9a-zA-Z-]*)`

var (
	buildSubsegmentPattern = `[0-9a-zA-Z-]+`
	versionPattern         = regexp.MustCompile(
		`^(?P<major>` + segmentPattern + `)\.` +
			`(?P<minor>` + segmentPattern + `)\.` +
			`(?P<patch>` + segmentPattern + `)` +
			`(?:-(?P<pre>` + subsegmentPattern + `(?:\.` + subsegmentPattern + `)*))?` +
			`(?:\+(?P<build>` + buildSubsegmentPattern + `(?:\.` + buildSubsegmentPattern + `)*))?$`,
	)
	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// SemanticVersion is a strictly-parsed (major, minor, patch, pre, build)
// tuple following semver.org precedence rules. Unlike general-purpose
// semver libraries, leading zeroes are rejected in every numeric segment
// (including prerelease identifiers), matching the closed invariant in the
// version-requirement specification.
type SemanticVersion struct {
	Major, Minor, Patch uint64
	Pre                 string
	Build               string
}

// ParseSemanticVersion parses a strict semver string, rejecting leading
// zeroes and any character outside [0-9A-Za-z-] in prerelease/build
// identifiers.
func ParseSemanticVersion(value string) (SemanticVersion, error) {
	m := versionPattern.FindStringSubmatch(value)
	if m == nil {
		return SemanticVersion{}, dscerror.SemVer(fmt.Sprintf("%q is not a valid semantic version", value))
	}
	names := versionPattern.SubexpNames()
	groups := make(map[string]string, len(names))
	for i, name := range names {
		if name != "" {
			groups[name] = m[i]
		}
	}

	if pre := groups["pre"]; pre != "" {
		for _, id := range strings.Split(pre, ".") {
			if digitsOnly.MatchString(id) && len(id) > 1 && id[0] == '0' {
				return SemanticVersion{}, dscerror.SemVer(
					fmt.Sprintf("prerelease identifier %q in %q has a leading zero", id, value))
			}
		}
	}

	major, _ := strconv.ParseUint(groups["major"], 10, 64)
	minor, _ := strconv.ParseUint(groups["minor"], 10, 64)
	patch, _ := strconv.ParseUint(groups["patch"], 10, 64)

	return SemanticVersion{
		Major: major,
		Minor: minor,
		Patch: patch,
		Pre:   groups["pre"],
		Build: groups["build"],
	}, nil
}

// String renders the version back to its canonical semver.org string form.
func (v SemanticVersion) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Compare returns -1, 0, or 1 following semver precedence: major, minor,
// patch, then prerelease (stable > prerelease), then build metadata as a
// final tiebreaker (present > absent). Build metadata is otherwise ignored
// for requirement matching but participates in ordering, per spec.
func (v SemanticVersion) Compare(other SemanticVersion) int {
	if c := compareUint(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareUint(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareUint(v.Patch, other.Patch); c != 0 {
		return c
	}
	if c := comparePrerelease(v.Pre, other.Pre); c != 0 {
		return c
	}
	return compareIdentifiers(v.Build, other.Build)
}

// LessThan reports whether v orders strictly before other.
func (v SemanticVersion) LessThan(other SemanticVersion) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other are identical, including build metadata.
func (v SemanticVersion) Equal(other SemanticVersion) bool { return v.Compare(other) == 0 }

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePrerelease orders a stable version (empty pre) above any
// prerelease, and otherwise compares identifier-by-identifier.
func comparePrerelease(a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	return compareIdentifiers(a, b)
}

// compareIdentifiers compares dot-separated prerelease/build identifier
// lists per semver.org precedence rule 11: numeric identifiers compare
// numerically and are always lower than alphanumeric ones; a larger set of
// fields wins when all shared fields are equal.
func compareIdentifiers(a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareIdentifier(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return compareUint(uint64(len(as)), uint64(len(bs)))
}

func compareIdentifier(a, b string) int {
	aNum, aIsNum := isNumericIdentifier(a)
	bNum, bIsNum := isNumericIdentifier(b)
	switch {
	case aIsNum && bIsNum:
		return compareUint(aNum, bNum)
	case aIsNum:
		return -1
	case bIsNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func isNumericIdentifier(s string) (uint64, bool) {
	if !digitsOnly.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
