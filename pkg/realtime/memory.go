package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryChannel is an in-process Channel implementation. Events published
// while connected are dispatched synchronously to every subscriber whose
// pattern matches the event topic; events published while disconnected are
// dropped. All methods are safe for concurrent use.
//
// MemoryChannel is the default transport for tests and single-process
// setups where the event source lives in the same binary as the consumer.
type MemoryChannel struct {
	subscribers map[string]*memorySubscription
	connected   bool
	mu          sync.RWMutex
}

type memorySubscription struct {
	pattern string
	fn      Handler
}

// NewMemoryChannel creates a disconnected in-memory channel.
func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{
		subscribers: make(map[string]*memorySubscription),
	}
}

func (c *MemoryChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

func (c *MemoryChannel) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

func (c *MemoryChannel) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Subscribe registers a handler for matching topics. Subscriptions persist
// across disconnects; delivery simply pauses while the channel is down.
func (c *MemoryChannel) Subscribe(pattern string, fn Handler) (func(), error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	c.mu.Lock()
	id := uuid.New().String()
	c.subscribers[id] = &memorySubscription{pattern: pattern, fn: fn}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}, nil
}

// Publish dispatches the event to matching subscribers. Returns
// ErrNotConnected when the channel is disconnected.
func (c *MemoryChannel) Publish(ctx context.Context, event Event) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}

	// Snapshot matching handlers so subscriber callbacks can subscribe or
	// unsubscribe without deadlocking.
	fns := make([]Handler, 0, len(c.subscribers))
	for _, sub := range c.subscribers {
		if MatchTopic(sub.pattern, event.Topic) {
			fns = append(fns, sub.fn)
		}
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
	return nil
}
