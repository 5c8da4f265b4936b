package broadcast

import "testing"

func TestGroupKey(t *testing.T) {
	if got := GroupKey("call-1"); got != "call_call-1" {
		t.Errorf("expected call_call-1, got %q", got)
	}
}

func TestIsGlobalStatus(t *testing.T) {
	globals := []string{"ringing", "stream_started", "in-progress", "initiated", "RINGING"}
	for _, s := range globals {
		if !IsGlobalStatus(s) {
			t.Errorf("expected %q to be a global status", s)
		}
	}

	nonGlobals := []string{"completed", "busy", "failed", ""}
	for _, s := range nonGlobals {
		if IsGlobalStatus(s) {
			t.Errorf("expected %q to not be a global status", s)
		}
	}
}
