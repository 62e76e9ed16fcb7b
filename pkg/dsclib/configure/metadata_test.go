package configure

import (
	"encoding/json"
	"testing"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
)

func TestAttachMetadata_AdapterFullMergesMicrosoftDscBlock(t *testing.T) {
	r := configdoc.Resource{
		Name:     "r",
		Metadata: &configdoc.Metadata{Other: map[string]interface{}{"owner": "team-a"}},
	}
	out := attachMetadata(r, map[string]interface{}{"value": 1}, true)

	meta, ok := out["metadata"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected metadata block, got %v", out["metadata"])
	}
	dsc, ok := meta["Microsoft.DSC"].(map[string]interface{})
	if !ok || dsc["context"] != "configuration" {
		t.Fatalf("expected Microsoft.DSC.context=configuration, got %v", meta["Microsoft.DSC"])
	}
	if meta["owner"] != "team-a" {
		t.Fatalf("expected owner=team-a folded in, got %v", meta["owner"])
	}
	if out["value"] != 1 {
		t.Fatalf("expected original property preserved, got %v", out["value"])
	}
}

func TestAttachMetadata_PlainUsesUnderscoreMetadataKey(t *testing.T) {
	r := configdoc.Resource{
		Name:     "r",
		Metadata: &configdoc.Metadata{Other: map[string]interface{}{"owner": "team-a"}},
	}
	out := attachMetadata(r, map[string]interface{}{"value": 1}, false)

	meta, ok := out["_metadata"].(map[string]interface{})
	if !ok || meta["owner"] != "team-a" {
		t.Fatalf("expected _metadata.owner=team-a, got %v", out["_metadata"])
	}
	if _, ok := out["metadata"]; ok {
		t.Fatal("did not expect a plain 'metadata' key for non-adapter-full invocation")
	}
}

func TestAttachMetadata_NoDeclaredMetadataAddsNothing(t *testing.T) {
	r := configdoc.Resource{Name: "r"}
	out := attachMetadata(r, map[string]interface{}{"value": 1}, false)

	if _, ok := out["_metadata"]; ok {
		t.Fatal("did not expect _metadata key when resource declares no metadata.other")
	}
	if len(out) != 1 {
		t.Fatalf("expected only the original property, got %v", out)
	}
}

func TestStripMetadata_RemovesAndReturnsBlock(t *testing.T) {
	state := json.RawMessage(`{"value": 1, "_metadata": {"restartRequired": ["service"]}}`)

	cleaned, meta := stripMetadata(state)

	var obj map[string]interface{}
	if err := json.Unmarshal(cleaned, &obj); err != nil {
		t.Fatalf("unmarshal cleaned: %v", err)
	}
	if _, ok := obj["_metadata"]; ok {
		t.Fatal("expected _metadata stripped from cleaned state")
	}
	if obj["value"] != float64(1) {
		t.Fatalf("expected value preserved, got %v", obj["value"])
	}

	restart := restartRequiredFrom(meta)
	if len(restart) != 1 || restart[0] != "service" {
		t.Fatalf("expected restartRequired=[service], got %v", restart)
	}
}

func TestStripMetadata_NoMetadataIsNoop(t *testing.T) {
	state := json.RawMessage(`{"value": 1}`)
	cleaned, meta := stripMetadata(state)
	if string(cleaned) != string(state) {
		t.Fatalf("expected state unchanged, got %s", cleaned)
	}
	if meta != nil {
		t.Fatalf("expected nil metadata, got %v", meta)
	}
}
