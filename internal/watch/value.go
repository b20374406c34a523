// Package watch provides a single-value change stream: the latest value is
// replayed to every new subscriber and each later publish is delivered to
// all live subscribers.
//
// Slow subscribers never block publishers. A subscriber that has not yet
// consumed the previous value sees only the most recent one.
package watch

import (
	"context"
	"sync"
)

// Value holds the current value of type T and its subscribers.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	set     bool
	subs    map[*subscriber[T]]struct{}
}

type subscriber[T any] struct {
	ch chan T
}

// NewValue returns a Value with no current value. Subscribers receive
// nothing until the first Publish.
func NewValue[T any]() *Value[T] {
	return &Value[T]{subs: make(map[*subscriber[T]]struct{})}
}

// Publish replaces the current value and notifies subscribers.
func (v *Value[T]) Publish(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = value
	v.set = true
	for s := range v.subs {
		offer(s.ch, value)
	}
}

// Current returns the latest value and whether one has been published.
func (v *Value[T]) Current() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.set
}

// Subscribe returns a channel that first yields the current value (if any)
// and then every later value. The channel is closed when ctx is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	s := &subscriber[T]{ch: make(chan T, 1)}

	v.mu.Lock()
	if v.set {
		s.ch <- v.current
	}
	v.subs[s] = struct{}{}
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, s)
		close(s.ch)
		v.mu.Unlock()
	}()

	return s.ch
}

// Subscribers returns the number of live subscribers.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// offer delivers value, displacing an unconsumed older value. Callers hold
// the Value mutex, so the channel has a single producer.
func offer[T any](ch chan T, value T) {
	select {
	case ch <- value:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- value
}
