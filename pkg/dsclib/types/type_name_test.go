package types

import "testing"

func TestParseFullyQualifiedTypeName(t *testing.T) {
	got, err := ParseFullyQualifiedTypeName("Microsoft.Windows/Registry")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := FullyQualifiedTypeName{Namespace: "Microsoft.Windows", Name: "Registry"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseFullyQualifiedTypeName_Invalid(t *testing.T) {
	tests := []string{"", "NoSlash", "/Name", "Namespace/", "a/b/c"}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseFullyQualifiedTypeName(in); err == nil {
				t.Errorf("ParseFullyQualifiedTypeName(%q) expected error", in)
			}
		})
	}
}

func TestFullyQualifiedTypeName_EqualCaseInsensitive(t *testing.T) {
	a, _ := ParseFullyQualifiedTypeName("Microsoft.Windows/Registry")
	b, _ := ParseFullyQualifiedTypeName("microsoft.windows/registry")
	if !a.Equal(b) {
		t.Error("expected case-insensitive equality")
	}
	c, _ := ParseFullyQualifiedTypeName("Microsoft.Windows/OtherResource")
	if a.Equal(c) {
		t.Error("expected different names to not be equal")
	}
}

func TestFullyQualifiedTypeName_String(t *testing.T) {
	n := FullyQualifiedTypeName{Namespace: "Test", Name: "Echo"}
	if got, want := n.String(), "Test/Echo"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFullyQualifiedTypeName_TextMarshalling(t *testing.T) {
	n := FullyQualifiedTypeName{Namespace: "Test", Name: "Echo"}
	b, err := n.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "Test/Echo" {
		t.Errorf("MarshalText() = %q, want %q", b, "Test/Echo")
	}

	var round FullyQualifiedTypeName
	if err := round.UnmarshalText(b); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if round != n {
		t.Errorf("round-tripped %+v, want %+v", round, n)
	}

	var bad FullyQualifiedTypeName
	if err := bad.UnmarshalText([]byte("invalid")); err == nil {
		t.Error("UnmarshalText expected error for invalid input")
	}
}
