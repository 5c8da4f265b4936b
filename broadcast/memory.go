package broadcast

import "sync"

// Event is one push-channel notification. Kind identifies the method
// that produced it (e.g. "transcript_update"); Group is "" for events
// broadcast to all subscribers.
type Event struct {
	Kind    string
	Group   string
	CallID  string
	Payload map[string]any
}

// Listener handles one broadcast Event.
type Listener func(Event)

// InMemoryBroadcaster implements Broadcaster with an in-process
// subscriber fan-out, grounded on the same async-publish-with-recover
// discipline as the pipeline's other pub/sub primitives: a panicking
// listener must never take down the publisher. Delivery for one call is
// serialized through a per-call queue so events published in order (e.g.
// successive transcript chunks) are always delivered in that order, even
// though publish itself never blocks the caller.
type InMemoryBroadcaster struct {
	mu              sync.RWMutex
	groupListeners  map[string][]Listener
	globalListeners []Listener

	queuesMu sync.Mutex
	queues   map[string]*callQueue
}

// callQueue serializes delivery of every event published for one CallID.
// A single worker goroutine drains it at a time; publish appends and, if
// no worker is currently draining, starts one. The worker exits once the
// queue is empty rather than blocking forever, so an idle call leaves no
// goroutine behind.
type callQueue struct {
	mu      sync.Mutex
	pending []queuedDelivery
	running bool
}

type queuedDelivery struct {
	event     Event
	listeners []Listener
}

// NewInMemoryBroadcaster creates an empty InMemoryBroadcaster.
func NewInMemoryBroadcaster() *InMemoryBroadcaster {
	return &InMemoryBroadcaster{
		groupListeners: make(map[string][]Listener),
		queues:         make(map[string]*callQueue),
	}
}

// Subscribe registers a listener for one call's subscriber group.
func (b *InMemoryBroadcaster) Subscribe(group string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groupListeners[group] = append(b.groupListeners[group], listener)
}

// SubscribeAll registers a listener for every broadcast event regardless
// of group.
func (b *InMemoryBroadcaster) SubscribeAll(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.globalListeners = append(b.globalListeners, listener)
}

func (b *InMemoryBroadcaster) publish(event Event) {
	b.mu.RLock()
	group := append([]Listener(nil), b.groupListeners[event.Group]...)
	global := append([]Listener(nil), b.globalListeners...)
	b.mu.RUnlock()

	listeners := make([]Listener, 0, len(group)+len(global))
	listeners = append(listeners, group...)
	listeners = append(listeners, global...)

	b.queueFor(event.CallID).enqueue(queuedDelivery{event: event, listeners: listeners})
}

// queueFor returns the callQueue for callID, creating it on first use.
func (b *InMemoryBroadcaster) queueFor(callID string) *callQueue {
	b.queuesMu.Lock()
	defer b.queuesMu.Unlock()
	q, ok := b.queues[callID]
	if !ok {
		q = &callQueue{}
		b.queues[callID] = q
	}
	return q
}

func (q *callQueue) enqueue(d queuedDelivery) {
	q.mu.Lock()
	q.pending = append(q.pending, d)
	alreadyRunning := q.running
	q.running = true
	q.mu.Unlock()

	if !alreadyRunning {
		go q.drain()
	}
}

func (q *callQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		for _, l := range next.listeners {
			safeInvoke(l, next.event)
		}
	}
}

func safeInvoke(listener Listener, event Event) {
	defer func() { _ = recover() }()
	listener(event)
}

// BroadcastTranscriptUpdate implements Broadcaster.
func (b *InMemoryBroadcaster) BroadcastTranscriptUpdate(callID, text string, isFinal bool) {
	b.publish(Event{
		Kind:   "transcript_update",
		Group:  GroupKey(callID),
		CallID: callID,
		Payload: map[string]any{
			"text":     text,
			"is_final": isFinal,
		},
	})
}

// BroadcastCallStatusUpdate implements Broadcaster. Certain statuses are
// broadcast to every subscriber rather than just the call's group.
func (b *InMemoryBroadcaster) BroadcastCallStatusUpdate(callID, status string) {
	group := GroupKey(callID)
	if IsGlobalStatus(status) {
		group = ""
	}
	b.publish(Event{
		Kind:    "call_status",
		Group:   group,
		CallID:  callID,
		Payload: map[string]any{"status": status},
	})
}

// BroadcastLocationUpdate implements Broadcaster.
func (b *InMemoryBroadcaster) BroadcastLocationUpdate(callID string, lat, lng float64, address string) {
	b.publish(Event{
		Kind:   "location_update",
		Group:  GroupKey(callID),
		CallID: callID,
		Payload: map[string]any{
			"latitude":  lat,
			"longitude": lng,
			"address":   address,
		},
	})
}

// BroadcastSummaryUpdate implements Broadcaster.
func (b *InMemoryBroadcaster) BroadcastSummaryUpdate(callID, summary string, keyFindings []string) {
	b.publish(Event{
		Kind:   "summary_update",
		Group:  GroupKey(callID),
		CallID: callID,
		Payload: map[string]any{
			"summary":      summary,
			"key_findings": keyFindings,
		},
	})
}

var _ Broadcaster = (*InMemoryBroadcaster)(nil)
