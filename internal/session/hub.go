package session

import (
	"sync"
	"time"
)

// Event is one entry in a session's progress feed. Seq starts at 1 and
// increases by one per event within a session.
type Event struct {
	Event     string         `json:"event"`
	SessionID string         `json:"sessionId"`
	Seq       uint64         `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Progress event names emitted over a session's lifetime.
const (
	EventPlanning             = "planning"
	EventMerchantsDiscovered  = "merchants_discovered"
	EventSearching            = "searching"
	EventProductsFound        = "products_found"
	EventComparing            = "comparing"
	EventComparisonReady      = "comparison_ready"
	EventOptimizing           = "optimizing"
	EventOptimizationReady    = "optimization_ready"
	EventAwaitingConfirmation = "awaiting_confirmation"
	EventCheckingOut          = "checking_out"
	EventCheckoutProgress     = "checkout_progress"
	EventCompleted            = "completed"
	EventCancelled            = "cancelled"
	EventError                = "error"
)

// terminalEvents end a session's feed; the hub closes subscriber channels
// after delivering one.
var terminalEvents = map[string]bool{
	EventCompleted: true,
	EventCancelled: true,
	EventError:     true,
}

// subscriberBuffer is the extra channel capacity beyond history replay.
const subscriberBuffer = 64

// Hub fans progress events out to per-session subscribers and keeps the full
// per-session history so late subscribers replay from the start.
// Delivery is at-least-once for live subscribers with adequate buffer; a
// subscriber that falls behind has events dropped rather than blocking the
// publisher.
type Hub struct {
	mu      sync.Mutex
	history map[string][]Event
	subs    map[string]map[chan Event]struct{}
	closed  map[string]bool
}

// NewHub returns an initialized Hub.
func NewHub() *Hub {
	return &Hub{
		history: make(map[string][]Event),
		subs:    make(map[string]map[chan Event]struct{}),
		closed:  make(map[string]bool),
	}
}

// Publish appends an event to the session's feed, assigns it the next
// sequence number, and delivers it to live subscribers. Returns the
// published event. Publishing a terminal event closes the feed.
func (h *Hub) Publish(sessionID, name string, data map[string]any) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ev := Event{
		Event:     name,
		SessionID: sessionID,
		Seq:       uint64(len(h.history[sessionID]) + 1),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	h.history[sessionID] = append(h.history[sessionID], ev)

	for ch := range h.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; drop rather than block the pipeline.
		}
	}

	if terminalEvents[name] {
		h.closeLocked(sessionID)
	}
	return ev
}

// Subscribe returns a channel that first replays the session's history, then
// receives live events. The channel is closed after a terminal event or when
// cancel is called. cancel is idempotent.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	hist := h.history[sessionID]
	ch := make(chan Event, len(hist)+subscriberBuffer)
	for _, ev := range hist {
		ch <- ev
	}

	if h.closed[sessionID] {
		close(ch)
		return ch, func() {}
	}

	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan Event]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[sessionID][ch]; ok {
				delete(h.subs[sessionID], ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// History returns a copy of the session's event feed so far.
func (h *Hub) History(sessionID string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.history[sessionID]...)
}

// closeLocked closes all subscriber channels for the session. Caller holds
// h.mu.
func (h *Hub) closeLocked(sessionID string) {
	for ch := range h.subs[sessionID] {
		close(ch)
	}
	delete(h.subs, sessionID)
	h.closed[sessionID] = true
}
