package session

import (
	"sync"
	"time"

	domain "github.com/wodoame/smecs/internal/domain/session"
)

// Event is the change signal. Session is nil after a logout.
type Event struct {
	Device  string          `json:"-"`
	Session *domain.Session `json:"session"`
	At      time.Time       `json:"at"`
}

func (e Event) LoggedIn() bool {
	return e.Session != nil
}

// Hub fans session events out to subscribers. A subscriber bound to a device
// sees only that device; an empty device sees every event.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
	onDrop func(Event)
}

type subscriber struct {
	device string
	ch     chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscriber)}
}

// OnDrop registers a callback for events a full subscriber could not take.
func (h *Hub) OnDrop(fn func(Event)) {
	h.mu.Lock()
	h.onDrop = fn
	h.mu.Unlock()
}

func (h *Hub) Subscribe(device string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = subscriber{device: device, ch: ch}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Len is the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish never blocks. Each subscriber receives its own copy of the session.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if s.device != "" && s.device != ev.Device {
			continue
		}
		out := ev
		if ev.Session != nil {
			cp := ev.Session.Clone()
			out.Session = &cp
		}
		select {
		case s.ch <- out:
		default:
			if h.onDrop != nil {
				h.onDrop(out)
			}
		}
	}
}
