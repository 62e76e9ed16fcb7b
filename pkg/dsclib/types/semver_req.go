package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// comparatorOp is the operator of a single comparator inside a requirement.
type comparatorOp int

// The operator set from the version-requirement specification, plus the two
// implicit operators (caret, wildcard) selected when none is written.
const (
	opCaret comparatorOp = iota
	opTilde
	opExact
	opLess
	opLessEq
	opGreater
	opGreaterEq
	opWildcard
)

var comparatorPattern = regexp.MustCompile(
	`^(\^|~|=|<=|>=|<|>)?` +
		`(\d+|\*)` +
		`(?:\.(\d+|\*))?` +
		`(?:\.(\d+|\*))?` +
		`(?:-([0-9A-Za-z.-]+))?$`,
)

// Comparator is a single "(operator, partial version)" pair inside a
// SemanticVersionReq.
type Comparator struct {
	op             comparatorOp
	major          uint64
	minor          *uint64
	patch          *uint64
	pre            string
	raw            string
	explicitOpText string
}

// SemanticVersionReq is a conjunction of comparators: a SemanticVersion
// matches the requirement only if it matches every comparator.
type SemanticVersionReq struct {
	comparators []Comparator
	raw         string
}

// ParseSemanticVersionReq parses a comma-separated list of comparators.
// Build metadata is always rejected (SemVerReqWithBuildMetadata); the
// wildcard character is restricted to '*'; a wildcard minor forbids a
// literal patch; a prerelease suffix is only valid on a fully literal
// major.minor.patch comparator.
func ParseSemanticVersionReq(value string) (SemanticVersionReq, error) {
	if strings.Contains(value, "+") {
		return SemanticVersionReq{}, dscerror.SemVerReqWithBuildMetadata(
			fmt.Sprintf("version requirement %q must not include build metadata", value))
	}

	parts := strings.Split(value, ",")
	comparators := make([]Comparator, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return SemanticVersionReq{}, dscerror.Parser(fmt.Sprintf("empty comparator in requirement %q", value))
		}
		c, err := parseComparator(part)
		if err != nil {
			return SemanticVersionReq{}, err
		}
		comparators = append(comparators, c)
	}

	return SemanticVersionReq{comparators: comparators, raw: value}, nil
}

func parseComparator(raw string) (Comparator, error) {
	m := comparatorPattern.FindStringSubmatch(raw)
	if m == nil {
		return Comparator{}, dscerror.Parser(fmt.Sprintf("%q is not a valid version requirement comparator", raw))
	}

	opText, majorText, minorText, patchText, preText := m[1], m[2], m[3], m[4], m[5]

	if majorText == "*" {
		return Comparator{}, dscerror.Parser(
			fmt.Sprintf("comparator %q must define a major version segment, not a wildcard", raw))
	}
	major, err := strconv.ParseUint(majorText, 10, 64)
	if err != nil {
		return Comparator{}, dscerror.Parser(fmt.Sprintf("invalid major version segment in %q", raw))
	}

	var minor, patch *uint64
	minorWildcard := minorText == "*"
	if minorText != "" && !minorWildcard {
		v, err := strconv.ParseUint(minorText, 10, 64)
		if err != nil {
			return Comparator{}, dscerror.Parser(fmt.Sprintf("invalid minor version segment in %q", raw))
		}
		minor = &v
	}

	patchWildcard := patchText == "*"
	if minorWildcard && patchText != "" && !patchWildcard {
		return Comparator{}, dscerror.Parser(
			fmt.Sprintf("comparator %q: patch must be absent or wildcard when minor is a wildcard", raw))
	}
	if patchText != "" && !patchWildcard {
		v, err := strconv.ParseUint(patchText, 10, 64)
		if err != nil {
			return Comparator{}, dscerror.Parser(fmt.Sprintf("invalid patch version segment in %q", raw))
		}
		patch = &v
	}

	literalVersion := minor != nil && patch != nil
	if preText != "" && !literalVersion {
		return Comparator{}, dscerror.Parser(
			fmt.Sprintf("comparator %q: a prerelease is only permitted on a fully literal version", raw))
	}

	op := textToOp(opText)
	wildcardPresent := minorWildcard || patchWildcard
	if opText == "" {
		if wildcardPresent {
			op = opWildcard
		} else {
			op = opCaret
		}
	}

	return Comparator{
		op:             op,
		major:          major,
		minor:          minor,
		patch:          patch,
		pre:            preText,
		raw:            raw,
		explicitOpText: opText,
	}, nil
}

func textToOp(s string) comparatorOp {
	switch s {
	case "^":
		return opCaret
	case "~":
		return opTilde
	case "=":
		return opExact
	case "<":
		return opLess
	case "<=":
		return opLessEq
	case ">":
		return opGreater
	case ">=":
		return opGreaterEq
	default:
		return opCaret
	}
}

func (c Comparator) minorOrZero() uint64 {
	if c.minor == nil {
		return 0
	}
	return *c.minor
}

func (c Comparator) patchOrZero() uint64 {
	if c.patch == nil {
		return 0
	}
	return *c.patch
}

// comparatorVersion is the literal version the comparator is anchored to,
// treating omitted segments as zero. It's the inclusive lower bound for
// caret/tilde and the anchor for the relational operators; =/wildcard match
// through matchesLiteralSegments instead.
func (c Comparator) comparatorVersion() SemanticVersion {
	return SemanticVersion{Major: c.major, Minor: c.minorOrZero(), Patch: c.patchOrZero(), Pre: c.pre}
}

// Matches reports whether v satisfies this single comparator.
func (c Comparator) Matches(v SemanticVersion) bool {
	if v.Pre != "" {
		// A prerelease version can only ever satisfy a comparator that pins
		// the exact same major.minor.patch and itself defines a prerelease.
		if v.Major != c.major || v.Minor != c.minorOrZero() || v.Patch != c.patchOrZero() || c.pre == "" {
			return false
		}
	}

	cv := c.comparatorVersion()
	switch c.op {
	case opExact, opWildcard:
		return c.matchesLiteralSegments(v)
	case opGreater:
		return v.Compare(cv) > 0
	case opGreaterEq:
		return v.Compare(cv) >= 0
	case opLess:
		return v.Compare(cv) < 0
	case opLessEq:
		return v.Compare(cv) <= 0
	case opTilde:
		upper := c.tildeUpperBound()
		return v.Compare(cv) >= 0 && v.Compare(upper) < 0
	case opCaret:
		upper := c.caretUpperBound()
		return v.Compare(cv) >= 0 && v.Compare(upper) < 0
	default:
		return false
	}
}

// matchesLiteralSegments implements =/wildcard semantics: segments the
// comparator specified literally must match exactly; wildcard or omitted
// trailing segments match any value.
func (c Comparator) matchesLiteralSegments(v SemanticVersion) bool {
	if v.Major != c.major {
		return false
	}
	if c.minor != nil && v.Minor != *c.minor {
		return false
	}
	if c.patch != nil && v.Patch != *c.patch {
		return false
	}
	if c.pre != "" && v.Pre != c.pre {
		return false
	}
	return true
}

// caretUpperBound implements the Cargo-style caret rule: updates are
// allowed that preserve the left-most non-zero segment.
func (c Comparator) caretUpperBound() SemanticVersion {
	switch {
	case c.major > 0:
		return SemanticVersion{Major: c.major + 1}
	case c.minor == nil:
		return SemanticVersion{Major: 1}
	case *c.minor > 0:
		return SemanticVersion{Minor: *c.minor + 1}
	case c.patch == nil:
		return SemanticVersion{Minor: 1}
	default:
		return SemanticVersion{Patch: *c.patch + 1}
	}
}

// tildeUpperBound implements the tilde rule: patch-level changes are
// allowed if minor is specified, otherwise minor-level changes are allowed.
func (c Comparator) tildeUpperBound() SemanticVersion {
	if c.minor == nil {
		return SemanticVersion{Major: c.major + 1}
	}
	return SemanticVersion{Major: c.major, Minor: *c.minor + 1}
}

// String renders the comparator back to its original written form.
func (c Comparator) String() string { return c.raw }

// Matches reports whether v satisfies every comparator in the requirement.
func (r SemanticVersionReq) Matches(v SemanticVersion) bool {
	for _, c := range r.comparators {
		if !c.Matches(v) {
			return false
		}
	}
	return true
}

// String renders the requirement back to its original written form.
func (r SemanticVersionReq) String() string { return r.raw }

// Comparators exposes the parsed comparator list, primarily for tests.
func (r SemanticVersionReq) Comparators() []Comparator { return r.comparators }
