package expr

import "testing"

type fakeContext struct {
	params    map[string]Value
	variables map[string]Value
	refs      map[string]Value
}

func (f fakeContext) Parameter(name string) (Value, bool) { v, ok := f.params[name]; return v, ok }
func (f fakeContext) Variable(name string) (Value, bool)  { v, ok := f.variables[name]; return v, ok }
func (f fakeContext) Reference(key string) (Value, bool)  { v, ok := f.refs[key]; return v, ok }

func TestDefaultEvaluator_LiteralPassthrough(t *testing.T) {
	got, err := DefaultEvaluator{}.ParseAndExecute("plain text", fakeContext{})
	if err != nil {
		t.Fatalf("ParseAndExecute: %v", err)
	}
	if got != "plain text" {
		t.Errorf("got %v", got)
	}
}

func TestDefaultEvaluator_Parameters(t *testing.T) {
	ctx := fakeContext{params: map[string]Value{"name": "value1"}}
	got, err := DefaultEvaluator{}.ParseAndExecute("[parameters('name')]", ctx)
	if err != nil {
		t.Fatalf("ParseAndExecute: %v", err)
	}
	if got != "value1" {
		t.Errorf("got %v", got)
	}
}

func TestDefaultEvaluator_UndefinedParameter(t *testing.T) {
	if _, err := (DefaultEvaluator{}).ParseAndExecute("[parameters('missing')]", fakeContext{}); err == nil {
		t.Fatal("expected error for undefined parameter")
	}
}

func TestDefaultEvaluator_Variables(t *testing.T) {
	ctx := fakeContext{variables: map[string]Value{"v": 42.0}}
	got, err := DefaultEvaluator{}.ParseAndExecute("[variables('v')]", ctx)
	if err != nil {
		t.Fatalf("ParseAndExecute: %v", err)
	}
	if got != 42.0 {
		t.Errorf("got %v", got)
	}
}

func TestDefaultEvaluator_Reference(t *testing.T) {
	ctx := fakeContext{refs: map[string]Value{"test::thing": map[string]interface{}{"a": 1.0}}}
	got, err := DefaultEvaluator{}.ParseAndExecute("[reference('Test/Thing')]", ctx)
	if err != nil {
		t.Fatalf("ParseAndExecute: %v", err)
	}
	m, ok := got.(map[string]interface{})
	if !ok || m["a"] != 1.0 {
		t.Errorf("got %v", got)
	}
}

func TestDefaultEvaluator_UnsupportedFunction(t *testing.T) {
	if _, err := (DefaultEvaluator{}).ParseAndExecute("[concat('a')]", fakeContext{}); err == nil {
		t.Fatal("expected error for unsupported expression function")
	}
}

func TestDefaultEvaluator_MalformedBracketExpression(t *testing.T) {
	if _, err := (DefaultEvaluator{}).ParseAndExecute("[not a call]", fakeContext{}); err == nil {
		t.Fatal("expected error for malformed bracket expression")
	}
}

func TestReferencedParameters(t *testing.T) {
	got := ReferencedParameters("[parameters('foo')]")
	if len(got) != 1 || got[0] != "foo" {
		t.Errorf("got %v", got)
	}
	if got := ReferencedParameters("[variables('v')]"); len(got) != 0 {
		t.Errorf("expected no referenced parameters for a variables() call, got %v", got)
	}
	if got := ReferencedParameters("plain text"); len(got) != 0 {
		t.Errorf("expected no referenced parameters for plain text, got %v", got)
	}
}
