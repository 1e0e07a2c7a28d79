package store

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Store holds a single state value of type T and notifies subscribers when
// the value is replaced. All methods are safe for concurrent use.
//
// State values are treated as immutable snapshots: SetState replaces the
// whole value, and subscribers receive the value by copy. Callers that keep
// reference types (maps, slices) inside T are responsible for not mutating
// a snapshot they received.
type Store[T any] struct {
	state     T
	listeners map[string]func(T)
	order     []string
	mu        sync.RWMutex
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	immediate bool
}

// WithImmediate delivers the current state to the subscriber synchronously
// at subscription time, before any subsequent change notification.
func WithImmediate() SubscribeOption {
	return func(c *subscribeConfig) {
		c.immediate = true
	}
}

// New creates a store seeded with the given initial state.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		state:     initial,
		listeners: make(map[string]func(T)),
	}
}

// GetState returns the current state value.
func (s *Store[T]) GetState() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState replaces the state with the result of applying fn to the current
// state, then notifies all subscribers in registration order. Notification
// is synchronous with respect to the caller.
func (s *Store[T]) SetState(fn func(T) T) {
	s.mu.Lock()
	s.state = fn(s.state)
	next := s.state

	// Snapshot the listener list so callbacks can unsubscribe (or subscribe)
	// without deadlocking on the store mutex.
	fns := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// Subscribe registers fn to be called on every state change and returns a
// function that removes the subscription. The returned function is safe to
// call multiple times.
func (s *Store[T]) Subscribe(fn func(T), opts ...SubscribeOption) func() {
	cfg := subscribeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	id := uuid.New().String()
	s.listeners[id] = fn
	s.order = append(s.order, id)
	current := s.state
	s.mu.Unlock()

	if cfg.immediate {
		fn(current)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		for i, lid := range s.order {
			if lid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Select subscribes fn to a derived slice of the store's state. The selector
// is applied on every state change, and fn is invoked only when the selected
// value differs from the previously delivered one by deep equality, so
// consecutive identical selections never produce redundant notifications.
func Select[T, S any](s *Store[T], selector func(T) S, fn func(S), opts ...SubscribeOption) func() {
	cfg := subscribeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		mu        sync.Mutex
		delivered bool
		last      S
	)

	deliver := func(state T) {
		selected := selector(state)

		mu.Lock()
		if delivered && reflect.DeepEqual(last, selected) {
			mu.Unlock()
			return
		}
		delivered = true
		last = selected
		mu.Unlock()

		fn(selected)
	}

	unsub := s.Subscribe(deliver)
	if cfg.immediate {
		deliver(s.GetState())
	}
	return unsub
}
