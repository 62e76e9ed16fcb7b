package redact

import (
	"reflect"
	"testing"
)

func isSecure(name string) bool { return name == "password" || name == "secret" }

func TestWalk_RedactsTopLevelSecureProperty(t *testing.T) {
	in := map[string]interface{}{"user": "alice", "password": "hunter2"}
	got := Walk(in, isSecure)
	want := map[string]interface{}{"user": "alice", "password": Placeholder}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_RecursesIntoNestedObjects(t *testing.T) {
	in := map[string]interface{}{
		"outer": map[string]interface{}{"secret": "shh", "keep": 1.0},
	}
	got := Walk(in, isSecure)
	outer := got.(map[string]interface{})["outer"].(map[string]interface{})
	if outer["secret"] != Placeholder {
		t.Errorf("expected nested secret redacted, got %v", outer["secret"])
	}
	if outer["keep"] != 1.0 {
		t.Errorf("expected non-secure nested value preserved, got %v", outer["keep"])
	}
}

func TestWalk_RecursesIntoArrays(t *testing.T) {
	in := []interface{}{
		map[string]interface{}{"secret": "a"},
		map[string]interface{}{"secret": "b"},
	}
	got := Walk(in, isSecure).([]interface{})
	for i, item := range got {
		if item.(map[string]interface{})["secret"] != Placeholder {
			t.Errorf("element %d not redacted: %v", i, item)
		}
	}
}

func TestWalk_ScalarsPassThroughUnchanged(t *testing.T) {
	if got := Walk("plain string", isSecure); got != "plain string" {
		t.Errorf("got %v", got)
	}
	if got := Walk(5.0, isSecure); got != 5.0 {
		t.Errorf("got %v", got)
	}
	if got := Walk(nil, isSecure); got != nil {
		t.Errorf("got %v", got)
	}
}
