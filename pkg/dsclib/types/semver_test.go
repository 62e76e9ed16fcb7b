package types

import "testing"

func TestParseSemanticVersion_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want SemanticVersion
	}{
		{"1.2.3", SemanticVersion{Major: 1, Minor: 2, Patch: 3}},
		{"0.0.0", SemanticVersion{}},
		{"1.2.3-alpha", SemanticVersion{Major: 1, Minor: 2, Patch: 3, Pre: "alpha"}},
		{"1.2.3-alpha.1", SemanticVersion{Major: 1, Minor: 2, Patch: 3, Pre: "alpha.1"}},
		{"1.2.3+build.5", SemanticVersion{Major: 1, Minor: 2, Patch: 3, Build: "build.5"}},
		{"1.2.3-rc.1+build.5", SemanticVersion{Major: 1, Minor: 2, Patch: 3, Pre: "rc.1", Build: "build.5"}},
		{"10.20.30", SemanticVersion{Major: 10, Minor: 20, Patch: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSemanticVersion(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSemanticVersion(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSemanticVersion_Invalid(t *testing.T) {
	tests := []string{
		"1.2",
		"1",
		"v1.2.3",
		"01.2.3",
		"1.02.3",
		"1.2.03",
		"1.2.3-01",
		"1.2.3-alpha_under",
		"1.2.3+",
		"",
		"1.2.3.4",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseSemanticVersion(in); err == nil {
				t.Errorf("ParseSemanticVersion(%q) expected error, got nil", in)
			}
		})
	}
}

func TestSemanticVersion_String(t *testing.T) {
	v := SemanticVersion{Major: 1, Minor: 2, Patch: 3, Pre: "rc.1", Build: "build.5"}
	if got, want := v.String(), "1.2.3-rc.1+build.5"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSemanticVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.1.0", -1},
		{"1.1.0", "1.0.1", 1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0", "1.0.0-alpha", 1},
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-alpha.1", "1.0.0-alpha.beta", -1},
		{"1.0.0-alpha.beta", "1.0.0-beta", -1},
		{"1.0.0-beta", "1.0.0-beta.2", -1},
		{"1.0.0-beta.2", "1.0.0-beta.11", -1},
		{"1.0.0-beta.11", "1.0.0-rc.1", -1},
		{"1.0.0-rc.1", "1.0.0", -1},
		{"1.0.0+build1", "1.0.0+build2", -1},
		{"1.0.0", "1.0.0+build2", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			a, err := ParseSemanticVersion(tt.a)
			if err != nil {
				t.Fatalf("parse a: %v", err)
			}
			b, err := ParseSemanticVersion(tt.b)
			if err != nil {
				t.Fatalf("parse b: %v", err)
			}
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSemanticVersion_LessThanEqual(t *testing.T) {
	a, _ := ParseSemanticVersion("1.0.0")
	b, _ := ParseSemanticVersion("1.0.1")
	if !a.LessThan(b) {
		t.Error("expected 1.0.0 < 1.0.1")
	}
	if b.LessThan(a) {
		t.Error("expected 1.0.1 not < 1.0.0")
	}
	c, _ := ParseSemanticVersion("1.0.0")
	if !a.Equal(c) {
		t.Error("expected 1.0.0 == 1.0.0")
	}
}
