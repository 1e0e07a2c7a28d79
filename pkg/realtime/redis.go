package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/feedkit/pkg/logger"
)

// RedisChannel delivers events across processes using Redis pub/sub. Every
// client connected to the same Redis channel name receives every published
// event; local subscribers are then filtered by topic pattern.
//
// The underlying go-redis PubSub reconnects automatically on connection
// loss; RedisChannel adds bounded retries with exponential backoff around
// the initial subscription handshake.
type RedisChannel struct {
	client      *goredis.Client
	channelName string
	log         *slog.Logger
	backoff     ExponentialBackoff
	maxAttempts int

	subscribers map[string]*memorySubscription
	pubsub      *goredis.PubSub
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	connected   bool
	mu          sync.RWMutex
}

// RedisOption configures a RedisChannel.
type RedisOption func(*RedisChannel)

// WithRedisLogger sets the logger for the channel.
func WithRedisLogger(log *slog.Logger) RedisOption {
	return func(c *RedisChannel) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRedisBackoff sets the reconnect backoff strategy for the subscription
// handshake.
func WithRedisBackoff(b ExponentialBackoff) RedisOption {
	return func(c *RedisChannel) {
		c.backoff = b
	}
}

// WithRedisMaxAttempts sets how many times the subscription handshake is
// attempted before Connect gives up. Default is 3.
func WithRedisMaxAttempts(n int) RedisOption {
	return func(c *RedisChannel) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// NewRedisChannel creates a channel backed by the given Redis client,
// publishing and subscribing on channelName.
func NewRedisChannel(client *goredis.Client, channelName string, opts ...RedisOption) *RedisChannel {
	c := &RedisChannel{
		client:      client,
		channelName: channelName,
		log:         slog.Default(),
		backoff:     DefaultBackoff(),
		maxAttempts: 3,
		subscribers: make(map[string]*memorySubscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect subscribes to the Redis channel and starts the receive loop.
// Calling Connect while connected is a no-op.
func (c *RedisChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	pubsub := c.client.Subscribe(loopCtx, c.channelName)

	// Confirm the subscription before reporting connected, retrying the
	// handshake with backoff on transient failures.
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				cancel()
				_ = pubsub.Close()
				return ctx.Err()
			case <-time.After(c.backoff.NextInterval(attempt - 1)):
			}
		}
		if _, err = pubsub.Receive(ctx); err == nil {
			break
		}
		c.log.LogAttrs(ctx, slog.LevelWarn, "redis subscription handshake failed",
			logger.Component("realtime.redis"),
			slog.Int("attempt", attempt),
			logger.Error(err),
		)
	}
	if err != nil {
		cancel()
		_ = pubsub.Close()
		return err
	}

	c.pubsub = pubsub
	c.cancel = cancel
	c.connected = true

	c.wg.Add(1)
	go c.receiveLoop(loopCtx, pubsub.Channel())

	return nil
}

// Disconnect stops the receive loop and closes the Redis subscription.
// Calling Disconnect while disconnected is a no-op.
func (c *RedisChannel) Disconnect() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	cancel := c.cancel
	pubsub := c.pubsub
	c.cancel = nil
	c.pubsub = nil
	c.mu.Unlock()

	cancel()
	err := pubsub.Close()
	c.wg.Wait()
	return err
}

func (c *RedisChannel) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Subscribe registers a local handler for matching topics. Subscriptions
// persist across disconnect/reconnect cycles.
func (c *RedisChannel) Subscribe(pattern string, fn Handler) (func(), error) {
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

// Publish sends the event to the Redis channel. Returns ErrNotConnected
// when called on a disconnected channel.
func (c *RedisChannel) Publish(ctx context.Context, event Event) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, c.channelName, payload).Err()
}

func (c *RedisChannel) receiveLoop(ctx context.Context, msgs <-chan *goredis.Message) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				c.log.LogAttrs(ctx, slog.LevelWarn, "dropping malformed realtime event",
					logger.Component("realtime.redis"),
					logger.Error(err),
				)
				continue
			}

			c.dispatch(event)
		}
	}
}

func (c *RedisChannel) dispatch(event Event) {
	c.mu.RLock()
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
}
