package invoke

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// splitLines breaks a provider's newline-delimited stdout into individual
// JSON values, skipping blank lines. Used for `export` (one instance per
// line) and `set` with returns=StateAndDiff (after-state then diff array).
func splitLines(stdout []byte) []json.RawMessage {
	var out []json.RawMessage
	for _, line := range bytes.Split(stdout, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		cp := make([]byte, len(trimmed))
		copy(cp, trimmed)
		out = append(out, json.RawMessage(cp))
	}
	return out
}

// diffPropertyNames reports which top-level properties of desired are
// either absent from actual or hold a different value, per the synthetic
// test-via-get comparison rule.
func diffPropertyNames(desired, actual json.RawMessage) []string {
	if len(desired) == 0 {
		return nil
	}
	var desiredObj, actualObj map[string]json.RawMessage
	if err := json.Unmarshal(desired, &desiredObj); err != nil {
		return nil
	}
	if err := json.Unmarshal(actual, &actualObj); err != nil {
		actualObj = map[string]json.RawMessage{}
	}

	var diffs []string
	for name, want := range desiredObj {
		if name == "_exist" || name == "_inDesiredState" {
			continue
		}
		got, ok := actualObj[name]
		if !ok || !jsonEqual(want, got) {
			diffs = append(diffs, name)
		}
	}
	return diffs
}

func jsonEqual(a, b json.RawMessage) bool {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}
