package types

import "strings"

// ResourceVersion is the sum type a discovered manifest's version string
// resolves to: either a strictly-parsed SemanticVersion, or an Arbitrary
// string for manifests whose version doesn't parse as semver. Semantic
// versions always order above arbitrary ones; arbitrary strings compare
// lexicographically among themselves.
type ResourceVersion struct {
	semantic  SemanticVersion
	arbitrary string
	isSemver  bool
}

// ParseResourceVersion resolves a raw version string, preferring a strict
// semantic-version parse and falling back to an arbitrary string.
func ParseResourceVersion(raw string) ResourceVersion {
	if v, err := ParseSemanticVersion(raw); err == nil {
		return ResourceVersion{semantic: v, isSemver: true}
	}
	return ResourceVersion{arbitrary: raw}
}

// IsSemantic reports whether the version parsed as a SemanticVersion.
func (r ResourceVersion) IsSemantic() bool { return r.isSemver }

// Semantic returns the parsed SemanticVersion and true, or the zero value
// and false if this is an Arbitrary version.
func (r ResourceVersion) Semantic() (SemanticVersion, bool) { return r.semantic, r.isSemver }

// String renders the version's original textual form.
func (r ResourceVersion) String() string {
	if r.isSemver {
		return r.semantic.String()
	}
	return r.arbitrary
}

// Compare orders r against other: semantic versions order by semver
// precedence and always above arbitrary versions; two arbitrary versions
// compare lexicographically.
func (r ResourceVersion) Compare(other ResourceVersion) int {
	switch {
	case r.isSemver && other.isSemver:
		return r.semantic.Compare(other.semantic)
	case r.isSemver && !other.isSemver:
		return 1
	case !r.isSemver && other.isSemver:
		return -1
	default:
		return strings.Compare(r.arbitrary, other.arbitrary)
	}
}
