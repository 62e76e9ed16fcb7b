package configdoc

import (
	"testing"

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
