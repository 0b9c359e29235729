package notify

import (
	"fmt"
	"sync"
)

// Kind classifies an event.
type Kind int

const (
	// KindStateChanged signals that runner or checker state moved and any
	// attached view should re-render. Message is empty.
	KindStateChanged Kind = iota
	KindInfo
	KindWarning
	KindError
)

// String returns the lowercase label for the kind.
func (k Kind) String() string {
	switch k {
	case KindStateChanged:
		return "state"
	case KindInfo:
		return "info"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single notification.
type Event struct {
	Kind    Kind
	Message string
}

// Hub fans events out to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(Event))}
}

// Subscribe registers a callback for all subsequent events and returns a
// function that removes it.
func (h *Hub) Subscribe(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish delivers an event to every subscriber. Delivery order across
// subscribers is unspecified; callbacks run on the caller's goroutine.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// StateChanged publishes a re-render signal.
func (h *Hub) StateChanged() {
	h.Publish(Event{Kind: KindStateChanged})
}

// Infof publishes a formatted informational message.
func (h *Hub) Infof(format string, args ...any) {
	h.Publish(Event{Kind: KindInfo, Message: fmt.Sprintf(format, args...)})
}

// Warnf publishes a formatted warning message.
func (h *Hub) Warnf(format string, args ...any) {
	h.Publish(Event{Kind: KindWarning, Message: fmt.Sprintf(format, args...)})
}

// Errorf publishes a formatted error message.
func (h *Hub) Errorf(format string, args ...any) {
	h.Publish(Event{Kind: KindError, Message: fmt.Sprintf(format, args...)})
}
