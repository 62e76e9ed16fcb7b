package types

import (
	"strings"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// FullyQualifiedTypeName is the "namespace/name" identifier for a resource,
// adapter, or extension, e.g. "Microsoft.Windows/Registry". Equality is
// case-insensitive; parsing rejects empty segments.
type FullyQualifiedTypeName struct {
	Namespace string
	Name      string
}

// ParseFullyQualifiedTypeName splits "namespace/name", rejecting inputs
// without exactly one separator or with an empty segment.
func ParseFullyQualifiedTypeName(s string) (FullyQualifiedTypeName, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
		return FullyQualifiedTypeName{}, dscerror.Parser("resource type name must be \"namespace/name\": " + s)
	}
	return FullyQualifiedTypeName{Namespace: parts[0], Name: parts[1]}, nil
}

// String renders the canonical "namespace/name" form, preserving the
// original casing it was parsed with.
func (t FullyQualifiedTypeName) String() string {
	return t.Namespace + "/" + t.Name
}

// Lowercased returns the case-folded form used as the discovery index key.
func (t FullyQualifiedTypeName) Lowercased() string {
	return strings.ToLower(t.String())
}

// Equal reports case-insensitive equality.
func (t FullyQualifiedTypeName) Equal(other FullyQualifiedTypeName) bool {
	return t.Lowercased() == other.Lowercased()
}

// MarshalText implements encoding.TextMarshaler so the type round-trips as
// a plain JSON/YAML string.
func (t FullyQualifiedTypeName) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FullyQualifiedTypeName) UnmarshalText(b []byte) error {
	parsed, err := ParseFullyQualifiedTypeName(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
