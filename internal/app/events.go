package app

import (
	"sync"

	"quiz-progression-service/internal/domain"
)

// Listener receives events after the mutation that produced them has committed.
type Listener func(domain.Event)

type registeredListener struct {
	id int
	fn Listener
}

// EventBus fans committed events out to listeners and channel subscribers.
type EventBus struct {
	mu          sync.Mutex
	nextID      int
	listeners   []registeredListener
	subscribers map[chan domain.Event]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// OnStateChanged registers fn and returns a function that unregisters it.
func (b *EventBus) OnStateChanged(fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, registeredListener{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}
}

// Subscribe returns a buffered channel of events.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *EventBus) Subscribe(buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan domain.Event, buffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *EventBus) publish(events ...domain.Event) {
	if len(events) == 0 {
		return
	}

	b.mu.Lock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l.fn)
	}
	for _, ev := range events {
		for ch := range b.subscribers {
			select {
			case ch <- ev:
			default:
				// Slow subscriber: drop its oldest event rather than block the engine.
				select {
				case <-ch:
				default:
				}
				ch <- ev
			}
		}
	}
	b.mu.Unlock()

	// Listeners run outside the lock so they may call back into the engine.
	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}
