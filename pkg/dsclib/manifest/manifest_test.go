package manifest

import (
	"encoding/json"
	"testing"
)

func TestParseResource_Minimal(t *testing.T) {
	text := []byte(`{
		"type": "Test/Thing",
		"version": "1.0.0",
		"get": {"executable": "thing", "args": [{"Literal": "get"}]}
	}`)
	r, err := ParseResource("manifest.json", text)
	if err != nil {
		t.Fatalf("ParseResource: %v", err)
	}
	if r.Type.String() != "Test/Thing" {
		t.Errorf("type = %q", r.Type.String())
	}
	if r.Get == nil || r.Get.Executable != "thing" {
		t.Fatalf("expected get.executable=thing, got %+v", r.Get)
	}
	if len(r.Get.Args) != 1 || r.Get.Args[0].Kind != ArgLiteral || r.Get.Args[0].Literal != "get" {
		t.Errorf("unexpected args: %+v", r.Get.Args)
	}
	if r.Path != "manifest.json" {
		t.Errorf("Path = %q", r.Path)
	}
}

func TestParseResource_MissingTypeRejected(t *testing.T) {
	if _, err := ParseResource("m.json", []byte(`{"version": "1.0.0"}`)); err == nil {
		t.Fatal("expected error for missing type")
	}
}

func TestParseResource_InvalidYAMLRejected(t *testing.T) {
	if _, err := ParseResource("m.json", []byte(`not: [valid`)); err == nil {
		t.Fatal("expected error for malformed manifest")
	}
}

func TestResource_EffectiveKind(t *testing.T) {
	plain := Resource{}
	if plain.EffectiveKind() != KindResource {
		t.Errorf("expected default EffectiveKind=Resource, got %v", plain.EffectiveKind())
	}

	withAdapter := Resource{Adapter: &AdapterDef{}}
	if withAdapter.EffectiveKind() != KindAdapter {
		t.Errorf("expected adapter block to imply EffectiveKind=Adapter, got %v", withAdapter.EffectiveKind())
	}

	explicit := Resource{Kind: KindGroup}
	if explicit.EffectiveKind() != KindGroup {
		t.Errorf("expected explicit Kind to win, got %v", explicit.EffectiveKind())
	}
}

func TestResource_IsAdapterAndIsGroup(t *testing.T) {
	if !(Resource{Adapter: &AdapterDef{}}).IsAdapter() {
		t.Error("expected IsAdapter=true")
	}
	if !(Resource{Kind: KindGroup}).IsGroup() {
		t.Error("expected IsGroup=true")
	}
	if (Resource{}).IsAdapter() {
		t.Error("expected plain resource IsAdapter=false")
	}
}

func TestResource_ExitCodeReason(t *testing.T) {
	r := Resource{ExitCodes: map[string]string{"2": "already exists"}}
	reason, ok := r.ExitCodeReason(2)
	if !ok || reason != "already exists" {
		t.Errorf("ExitCodeReason(2) = (%q, %v)", reason, ok)
	}
	if _, ok := r.ExitCodeReason(99); ok {
		t.Error("expected ok=false for unmapped code")
	}
}

func TestArgKind_RoundTrip(t *testing.T) {
	cases := []ArgKind{
		{Kind: ArgLiteral, Literal: "get"},
		{Kind: ArgJSON, Flag: "--input", Mandatory: true},
		{Kind: ArgResourceType, Flag: "--type"},
		{Kind: ArgResourcePath, Flag: "--path"},
		{Kind: ArgWhatIf, Flag: "--what-if"},
	}
	for _, c := range cases {
		data, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("Marshal(%+v): %v", c, err)
		}
		var back ArgKind
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if back != c {
			t.Errorf("round trip mismatch: got %+v, want %+v", back, c)
		}
	}
}

func TestParseExtension(t *testing.T) {
	text := []byte(`{
		"type": "Test/Discover",
		"version": "1.0.0",
		"capabilities": ["Discover"],
		"discover": {"executable": "finder"}
	}`)
	e, err := ParseExtension("ext.json", text)
	if err != nil {
		t.Fatalf("ParseExtension: %v", err)
	}
	if !e.HasCapability(CapabilityDiscover) {
		t.Error("expected Discover capability")
	}
	if e.HasCapability(CapabilitySecret) {
		t.Error("did not expect Secret capability")
	}
}

func TestParseBundle(t *testing.T) {
	text := []byte(`{
		"resources": [{"type": "Test/A", "version": "1.0.0"}],
		"adaptedResources": [{"type": "Test/B", "version": "1.0.0"}],
		"extensions": [{"type": "Test/Ext", "version": "1.0.0"}]
	}`)
	b, err := ParseBundle("bundle.json", text)
	if err != nil {
		t.Fatalf("ParseBundle: %v", err)
	}
	if len(b.Resources) != 1 || len(b.AdaptedResources) != 1 || len(b.Extensions) != 1 {
		t.Fatalf("unexpected bundle shape: %+v", b)
	}
	for _, r := range b.Resources {
		if r.Path != "bundle.json" {
			t.Errorf("resource Path = %q", r.Path)
		}
	}
}

func TestResource_ParsedVersion_FallsBackToArbitrary(t *testing.T) {
	r := Resource{Version: "not-semver"}
	v := r.ParsedVersion()
	if v.String() == "" {
		t.Error("expected arbitrary version fallback to still render a string")
	}
}
