package websocket

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/session"
)

// SubscriberBuffer is how many events a slow subscriber may lag behind
// before events are dropped for it.
const SubscriberBuffer = 32

// Hub fans session events out to stream subscribers. It is a
// session.Observer and never blocks the session.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan session.Event]struct{}
	closed bool
	log    zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[chan session.Event]struct{}),
		log:  log.With().Str("component", "ws_hub").Logger(),
	}
}

// Subscribe returns a channel of events and a function that releases it.
// The channel is closed on release or when the hub closes.
func (h *Hub) Subscribe() (<-chan session.Event, func()) {
	ch := make(chan session.Event, SubscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// OnEvent implements session.Observer.
func (h *Hub) OnEvent(ev session.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn().Str("type", string(ev.Type)).Msg("Subscriber lagging, event dropped")
		}
	}
}

// Subscribers reports how many streams are attached.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
