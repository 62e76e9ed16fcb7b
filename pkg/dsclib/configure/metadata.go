package configure

import (
	"encoding/json"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
)

// attachMetadata implements §4.4's metadata-attachment rule. For adapter
// providers invoked with AdapterInputKind.Full, the Microsoft.DSC
// configuration-context block plus the resource's own metadata.other is
// merged under properties.metadata. Otherwise, if the resource declares
// metadata.other, it is added under properties._metadata. invokeResource
// sends the augmented properties as they are and makes no second attempt
// without _metadata, so a provider whose schema rejects the extra key fails
// that resource with the Schema error.
func attachMetadata(r configdoc.Resource, properties map[string]interface{}, isAdapterFull bool) map[string]interface{} {
	out := make(map[string]interface{}, len(properties)+1)
	for k, v := range properties {
		out[k] = v
	}

	other := map[string]interface{}{}
	if r.Metadata != nil {
		other = r.Metadata.Other
	}

	if isAdapterFull {
		block := map[string]interface{}{"Microsoft.DSC": map[string]interface{}{"context": "configuration"}}
		for k, v := range other {
			block[k] = v
		}
		out["metadata"] = block
		return out
	}

	if len(other) > 0 {
		out["_metadata"] = other
	}
	return out
}

// stripMetadata removes the per-result _metadata key a provider may have
// echoed back in its output, returning it separately so the caller can
// fold restartRequired entries into the global context.
func stripMetadata(state json.RawMessage) (json.RawMessage, map[string]interface{}) {
	if len(state) == 0 {
		return state, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(state, &obj); err != nil {
		return state, nil
	}
	raw, ok := obj["_metadata"]
	if !ok {
		return state, nil
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return state, nil
	}
	delete(obj, "_metadata")
	cleaned, err := json.Marshal(obj)
	if err != nil {
		return state, meta
	}
	return cleaned, meta
}

// restartRequiredFrom extracts a "restartRequired" array of strings from a
// per-result metadata block, if present.
func restartRequiredFrom(meta map[string]interface{}) []string {
	raw, ok := meta["restartRequired"]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
