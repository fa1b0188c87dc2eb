// Package bus implements a small bounded publish/subscribe bus with typed
// payloads. It replaces the ad hoc listener arrays the UI layers used to
// share: every event kind gets its own Topic, so subscribers never have to
// type-assert.
package bus

import "sync"

// Topic is a bounded fan-out channel for values of type T.
//
// Publish never blocks: when a subscriber's buffer is full the event is
// dropped for that subscriber. Slow consumers lose events rather than
// stalling producers (the producers here are timers and network callbacks).
type Topic[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

// NewTopic creates an empty topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a subscriber with the given buffer size and returns
// the receive channel plus an unsubscribe function. The channel is closed
// on unsubscribe.
func (t *Topic[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}

	t.mu.Lock()
	id := t.next
	t.next++
	ch := make(chan T, buffer)
	t.subs[id] = ch
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers v to every subscriber whose buffer has room.
// It returns the number of subscribers that received the event.
func (t *Topic[T]) Publish(v T) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	delivered := 0
	for _, ch := range t.subs {
		select {
		case ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the current number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
