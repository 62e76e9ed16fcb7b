package configure

import (
	"strings"
	"testing"

	"github.com/open-dsc/dsc/pkg/dsclib/expr"
)

func newTestContext() *Context {
	return newContext(expr.DefaultEvaluator{})
}

func TestBind_CoercesAndValidatesParameters(t *testing.T) {
	doc := mustParseDoc(t, `{
		"parameters": {"name": {"type": "string", "minLength": 3}},
		"resources": []
	}`)

	c := newTestContext()
	if err := c.bind(doc, map[string]interface{}{"name": "abcd"}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	v, ok := c.Parameter("name")
	if !ok || v != "abcd" {
		t.Fatalf("expected bound parameter 'abcd', got %v (ok=%v)", v, ok)
	}
}

func TestBind_RejectsShortString(t *testing.T) {
	doc := mustParseDoc(t, `{
		"parameters": {"name": {"type": "string", "minLength": 3}},
		"resources": []
	}`)

	c := newTestContext()
	if err := c.bind(doc, map[string]interface{}{"name": "ab"}); err == nil {
		t.Fatal("expected minLength violation error")
	}
}

func TestBind_SecureParameterIsNotLoggedVerbatim(t *testing.T) {
	doc := mustParseDoc(t, `{
		"parameters": {"secret": {"type": "secureString"}},
		"resources": []
	}`)

	c := newTestContext()
	if err := c.bind(doc, map[string]interface{}{"secret": "hunter2"}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	v, ok := c.Parameter("secret")
	if !ok || v != "hunter2" {
		t.Fatalf("secure parameter should still be bound internally, got %v", v)
	}
}

func TestResolveDefaults_FixedPointAcrossPasses(t *testing.T) {
	doc := mustParseDoc(t, `{
		"parameters": {
			"a": {"type": "int", "defaultValue": 1},
			"b": {"type": "int", "defaultValue": "[parameters('a')]"}
		},
		"resources": []
	}`)

	c := newTestContext()
	if err := c.bind(doc, nil); err != nil {
		t.Fatalf("bind: %v", err)
	}
	b, ok := c.Parameter("b")
	if !ok {
		t.Fatal("expected b to resolve")
	}
	if f, ok := b.(float64); !ok || f != 1 {
		t.Fatalf("expected b=1, got %v", b)
	}
}

func TestResolveDefaults_CircularDependencyFails(t *testing.T) {
	doc := mustParseDoc(t, `{
		"parameters": {
			"a": {"type": "int", "defaultValue": "[parameters('b')]"},
			"b": {"type": "int", "defaultValue": "[parameters('a')]"}
		},
		"resources": []
	}`)

	c := newTestContext()
	err := c.bind(doc, nil)
	if err == nil {
		t.Fatal("expected circularDependency error")
	}
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Errorf("expected error to name the stuck parameters a and b, got: %v", err)
	}
}

func TestEvaluateVariables(t *testing.T) {
	doc := mustParseDoc(t, `{
		"variables": {"greeting": "hello"},
		"resources": []
	}`)

	c := newTestContext()
	if err := c.bind(doc, nil); err != nil {
		t.Fatalf("bind: %v", err)
	}
	v, ok := c.Variable("greeting")
	if !ok || v != "hello" {
		t.Fatalf("expected variable 'hello', got %v", v)
	}
}

func TestRegisterFunctions_RequiresNamespace(t *testing.T) {
	doc := mustParseDoc(t, `{
		"functions": {"noNamespace": "[1]"},
		"resources": []
	}`)

	c := newTestContext()
	if err := c.bind(doc, nil); err == nil {
		t.Fatal("expected error for function missing <namespace>.<name> form")
	}
}

func TestRegisterFunctions_ValidNamespace(t *testing.T) {
	doc := mustParseDoc(t, `{
		"functions": {"myLib.double": "[1]"},
		"resources": []
	}`)

	c := newTestContext()
	if err := c.bind(doc, nil); err != nil {
		t.Fatalf("bind: %v", err)
	}
}

func TestSetCopyBinding(t *testing.T) {
	c := newTestContext()
	c.SetCopyBinding("i", 2)
	v, ok := c.Variable("i")
	if !ok || v != float64(2) {
		t.Fatalf("expected copy binding 2, got %v", v)
	}
}
