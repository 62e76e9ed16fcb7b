package invoke

import (
	"encoding/json"
	"testing"

	"github.com/open-dsc/dsc/pkg/dsclib/manifest"
	"github.com/open-dsc/dsc/pkg/dsclib/types"
)

func mustType(t *testing.T, s string) types.FullyQualifiedTypeName {
	t.Helper()
	tn, err := types.ParseFullyQualifiedTypeName(s)
	if err != nil {
		t.Fatalf("ParseFullyQualifiedTypeName(%q): %v", s, err)
	}
	return tn
}

func TestBuildGetArgs(t *testing.T) {
	template := []manifest.ArgKind{
		{Kind: manifest.ArgLiteral, Literal: "get"},
		{Kind: manifest.ArgResourceType, Flag: "--type"},
		{Kind: manifest.ArgJSON, Flag: "--input", Mandatory: true},
	}
	ctx := ArgContext{TypeName: mustType(t, "Microsoft.Windows/Registry"), Input: json.RawMessage(`{"a":1}`)}

	args, err := BuildGetArgs(template, ctx)
	if err != nil {
		t.Fatalf("BuildGetArgs: %v", err)
	}
	want := []string{"get", "--type", "Microsoft.Windows/Registry", "--input", `{"a":1}`}
	if len(args) != len(want) {
		t.Fatalf("got %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildGetArgs_OptionalJSONSkippedWhenEmpty(t *testing.T) {
	template := []manifest.ArgKind{
		{Kind: manifest.ArgLiteral, Literal: "list"},
		{Kind: manifest.ArgJSON, Flag: "--input"},
	}
	args, err := BuildGetArgs(template, ArgContext{})
	if err != nil {
		t.Fatalf("BuildGetArgs: %v", err)
	}
	if len(args) != 1 || args[0] != "list" {
		t.Errorf("expected optional json arg to be skipped, got %v", args)
	}
}

func TestBuildGetArgs_ResourcePathSkippedWhenAbsent(t *testing.T) {
	template := []manifest.ArgKind{
		{Kind: manifest.ArgResourcePath, Flag: "--manifest"},
	}
	args, err := BuildGetArgs(template, ArgContext{})
	if err != nil {
		t.Fatalf("BuildGetArgs: %v", err)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildGetArgs_WhatIfRejected(t *testing.T) {
	template := []manifest.ArgKind{{Kind: manifest.ArgWhatIf, Flag: "--what-if"}}
	if _, err := BuildGetArgs(template, ArgContext{}); err == nil {
		t.Fatal("expected error for WhatIf arg on a get-style template")
	}
}

func TestBuildSetDeleteArgs_WhatIfAware(t *testing.T) {
	template := []manifest.ArgKind{
		{Kind: manifest.ArgLiteral, Literal: "set"},
		{Kind: manifest.ArgWhatIf, Flag: "--what-if"},
	}

	args, aware, err := BuildSetDeleteArgs(template, ArgContext{WhatIf: true})
	if err != nil {
		t.Fatalf("BuildSetDeleteArgs: %v", err)
	}
	if !aware {
		t.Fatal("expected whatIfAware=true")
	}
	if len(args) != 2 || args[1] != "--what-if" {
		t.Errorf("expected --what-if flag present, got %v", args)
	}

	args, aware, err = BuildSetDeleteArgs(template, ArgContext{WhatIf: false})
	if err != nil {
		t.Fatalf("BuildSetDeleteArgs: %v", err)
	}
	if !aware {
		t.Fatal("expected whatIfAware=true regardless of WhatIf value")
	}
	if len(args) != 1 {
		t.Errorf("expected flag omitted when WhatIf=false, got %v", args)
	}
}

func TestBuildSetDeleteArgs_NotWhatIfAware(t *testing.T) {
	template := []manifest.ArgKind{{Kind: manifest.ArgLiteral, Literal: "set"}}
	_, aware, err := BuildSetDeleteArgs(template, ArgContext{})
	if err != nil {
		t.Fatalf("BuildSetDeleteArgs: %v", err)
	}
	if aware {
		t.Fatal("expected whatIfAware=false")
	}
}

func TestMarshalEnv(t *testing.T) {
	input := json.RawMessage(`{"name":"foo","count":3,"enabled":true,"tags":["a","b"],"ratio":1.5}`)
	env, err := MarshalEnv(input)
	if err != nil {
		t.Fatalf("MarshalEnv: %v", err)
	}
	want := map[string]string{
		"name":    "foo",
		"count":   "3",
		"enabled": "true",
		"tags":    "a,b",
		"ratio":   "1.5",
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("env[%q] = %q, want %q", k, env[k], v)
		}
	}
}

func TestMarshalEnv_RejectsNestedObject(t *testing.T) {
	input := json.RawMessage(`{"nested":{"a":1}}`)
	if _, err := MarshalEnv(input); err == nil {
		t.Fatal("expected error for nested object in env input")
	}
}

func TestMarshalEnv_RejectsNonObjectTopLevel(t *testing.T) {
	input := json.RawMessage(`[1,2,3]`)
	if _, err := MarshalEnv(input); err == nil {
		t.Fatal("expected error for non-object top-level env input")
	}
}

func TestMarshalEnv_Empty(t *testing.T) {
	env, err := MarshalEnv(nil)
	if err != nil {
		t.Fatalf("MarshalEnv(nil): %v", err)
	}
	if env != nil {
		t.Errorf("expected nil map for empty input, got %v", env)
	}
}
