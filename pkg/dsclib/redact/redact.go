// Package redact walks JSON-like values replacing secure properties with a
// placeholder before they're stored in before-states or diff output.
package redact

const Placeholder = "<secureString>"

// Predicate reports whether a property name is secure and must be redacted.
type Predicate func(propertyName string) bool

// Walk returns a copy of v with every map value whose key satisfies
// isSecure replaced by Placeholder, recursing into nested maps and slices.
func Walk(v interface{}, isSecure Predicate) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if isSecure(k) {
				out[k] = Placeholder
				continue
			}
			out[k] = Walk(item, isSecure)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Walk(item, isSecure)
		}
		return out
	default:
		return v
	}
}
