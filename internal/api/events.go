package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/MarcoLSC/echo-emergent/internal/types"
	"github.com/gorilla/websocket"
)

// Event types pushed to stream subscribers.
const (
	EventInterpretation      = "interpretation"
	EventInterpretationError = "interpretation_error"
)

// Event is one message delivered over the event stream.
type Event struct {
	Type    string                      `json:"type"`
	Result  *types.InterpretationResult `json:"result,omitempty"`
	Message string                      `json:"message,omitempty"`
}

// Hub fans interpretation outcomes out to every connected event-stream
// subscriber. Slow subscribers lose events rather than block publishers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Publish delivers the event to every subscriber whose buffer has room.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up; drop the event for it.
		}
	}
}

// PublishResult publishes an interpretation outcome.
func (h *Hub) PublishResult(result types.InterpretationResult) {
	h.Publish(Event{Type: EventInterpretation, Result: &result})
}

// PublishError publishes an interpretation failure message.
func (h *Hub) PublishError(message string) {
	h.Publish(Event{Type: EventInterpretationError, Message: message})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The demo interface is served from arbitrary local origins.
		return true
	},
}

// Events handles GET /api/v1/events: upgrades to a websocket and streams
// interpretation events until the client disconnects.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events := h.hub.Subscribe()
	defer h.hub.Unsubscribe(events)

	// Drain the read side to notice disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event := <-events:
			if err := conn.WriteJSON(event); err != nil {
				slog.Debug("event stream write failed", "error", err)
				return
			}
		}
	}
}
