package events

import (
	"sync"
	"time"
)

// Handler processes a single event. Handlers run on the bus dispatch
// goroutine, so a slow handler delays everything behind it.
type Handler func(Event)

// Bus distributes events to subscribed handlers. Delivery is ordered:
// a single dispatch goroutine invokes handlers in emit order.
type Bus struct {
	mu       sync.Mutex // guards handlers
	handlers []Handler

	closeMu sync.RWMutex // guards closed; held shared across each send
	closed  bool

	events chan Event
	done   chan struct{}
}

const defaultBusCapacity = 64

// NewBus creates an event bus with the specified buffer capacity.
// A non-positive capacity falls back to the default.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = defaultBusCapacity
	}
	b := &Bus{
		events: make(chan Event, capacity),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	for e := range b.events {
		for _, h := range b.snapshot() {
			h(e)
		}
	}
	close(b.done)
}

func (b *Bus) snapshot() []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	return handlers
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Emit stamps the event time and queues it for delivery. Blocks when
// the buffer is full; emitting on a closed bus is a no-op.
func (b *Bus) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return
	}
	b.events <- e
}

// Close stops the bus after delivering everything already emitted.
// Safe to call more than once.
func (b *Bus) Close() error {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return nil
	}
	b.closed = true
	b.closeMu.Unlock()

	close(b.events)
	<-b.done
	return nil
}
