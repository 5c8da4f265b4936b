package transcript

import "testing"

func TestAccumulator_AppendAndJoin(t *testing.T) {
	a := New()
	a.Append("call-1", "hello")
	a.Append("call-1", "world")

	if got := a.Join("call-1"); got != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}
}

func TestAccumulator_JoinEmpty(t *testing.T) {
	a := New()
	if got := a.Join("unknown"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestAccumulator_Clear(t *testing.T) {
	a := New()
	a.Append("call-1", "hello")
	a.Clear("call-1")

	if got := a.Join("call-1"); got != "" {
		t.Errorf("expected empty after clear, got %q", got)
	}
}

func TestAccumulator_IsolatesCalls(t *testing.T) {
	a := New()
	a.Append("call-1", "first")
	a.Append("call-2", "second")

	if got := a.Join("call-1"); got != "first" {
		t.Errorf("call-1: expected %q, got %q", "first", got)
	}
	if got := a.Join("call-2"); got != "second" {
		t.Errorf("call-2: expected %q, got %q", "second", got)
	}
}
