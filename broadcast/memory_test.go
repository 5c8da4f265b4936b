package broadcast

import (
	"testing"
	"time"
)

func waitForEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
		return Event{}
	}
}

func TestInMemoryBroadcaster_TranscriptUpdate_DeliversToGroup(t *testing.T) {
	b := NewInMemoryBroadcaster()
	received := make(chan Event, 1)
	b.Subscribe(GroupKey("call-1"), func(e Event) { received <- e })

	b.BroadcastTranscriptUpdate("call-1", "hello", false)

	event := waitForEvent(t, received)
	if event.Kind != "transcript_update" {
		t.Errorf("expected transcript_update kind, got %q", event.Kind)
	}
	if event.Payload["text"] != "hello" {
		t.Errorf("expected text=hello, got %v", event.Payload["text"])
	}
}

func TestInMemoryBroadcaster_CallStatus_GlobalStatusReachesAllListeners(t *testing.T) {
	b := NewInMemoryBroadcaster()
	received := make(chan Event, 1)
	b.SubscribeAll(func(e Event) { received <- e })

	b.BroadcastCallStatusUpdate("call-1", "ringing")

	event := waitForEvent(t, received)
	if event.Kind != "call_status" {
		t.Errorf("expected call_status kind, got %q", event.Kind)
	}
	if event.Group != "" {
		t.Errorf("expected global status to have empty group, got %q", event.Group)
	}
}

func TestInMemoryBroadcaster_CallStatus_NonGlobalGoesToGroupOnly(t *testing.T) {
	b := NewInMemoryBroadcaster()
	groupReceived := make(chan Event, 1)
	globalReceived := make(chan Event, 1)
	b.Subscribe(GroupKey("call-1"), func(e Event) { groupReceived <- e })
	b.SubscribeAll(func(e Event) { globalReceived <- e })

	b.BroadcastCallStatusUpdate("call-1", "completed")

	event := waitForEvent(t, groupReceived)
	if event.Group != GroupKey("call-1") {
		t.Errorf("expected group %q, got %q", GroupKey("call-1"), event.Group)
	}

	// Global listeners also receive every event regardless of group.
	waitForEvent(t, globalReceived)
}

func TestInMemoryBroadcaster_LocationUpdate(t *testing.T) {
	b := NewInMemoryBroadcaster()
	received := make(chan Event, 1)
	b.Subscribe(GroupKey("call-1"), func(e Event) { received <- e })

	b.BroadcastLocationUpdate("call-1", 37.0, -122.0, "1 Main St")

	event := waitForEvent(t, received)
	if event.Payload["address"] != "1 Main St" {
		t.Errorf("expected address in payload, got %v", event.Payload["address"])
	}
}

func TestInMemoryBroadcaster_SummaryUpdate(t *testing.T) {
	b := NewInMemoryBroadcaster()
	received := make(chan Event, 1)
	b.Subscribe(GroupKey("call-1"), func(e Event) { received <- e })

	b.BroadcastSummaryUpdate("call-1", "summary text", []string{"finding1"})

	event := waitForEvent(t, received)
	if event.Payload["summary"] != "summary text" {
		t.Errorf("expected summary in payload, got %v", event.Payload["summary"])
	}
}

func TestInMemoryBroadcaster_DeliveryIsOrderedPerCall(t *testing.T) {
	b := NewInMemoryBroadcaster()
	received := make(chan Event, 64)
	b.Subscribe(GroupKey("call-1"), func(e Event) { received <- e })

	const n = 50
	for i := 0; i < n; i++ {
		b.BroadcastTranscriptUpdate("call-1", string(rune('a'+i%26)), false)
	}

	var texts []string
	for i := 0; i < n; i++ {
		event := waitForEvent(t, received)
		texts = append(texts, event.Payload["text"].(string))
	}

	for i := 0; i < n; i++ {
		want := string(rune('a' + i%26))
		if texts[i] != want {
			t.Fatalf("event %d out of order: got %q, want %q", i, texts[i], want)
		}
	}
}

func TestInMemoryBroadcaster_PanickingListenerDoesNotCrashPublisher(t *testing.T) {
	b := NewInMemoryBroadcaster()
	received := make(chan Event, 1)
	b.Subscribe(GroupKey("call-1"), func(Event) { panic("boom") })
	b.Subscribe(GroupKey("call-1"), func(e Event) { received <- e })

	b.BroadcastTranscriptUpdate("call-1", "still works", false)

	waitForEvent(t, received)
}
