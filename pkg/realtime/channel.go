package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a server-initiated message delivered over a persistent channel.
// The payload is kept as raw JSON so the channel stays agnostic of the
// domain types flowing through it; consumers decode Data into their own
// structures.
type Event struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent builds an event for the given topic, marshaling payload to JSON.
func NewEvent(topic string, payload any) (Event, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		data = b
	}
	return Event{
		ID:        uuid.New().String(),
		Topic:     topic,
		Data:      data,
		CreatedAt: time.Now(),
	}, nil
}

// Handler receives events matching a subscription pattern.
type Handler func(Event)

// Channel is a persistent real-time connection delivering named events to
// local subscribers. Connect and Disconnect are idempotent: connecting an
// already-connected channel and disconnecting an already-disconnected one
// are both no-ops.
type Channel interface {
	// Connect establishes the underlying connection. Repeated calls while
	// connected return nil.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down. Repeated calls while
	// disconnected return nil.
	Disconnect() error

	// IsConnected reports whether the channel is currently connected.
	IsConnected() bool

	// Subscribe registers a handler for events whose topic matches the
	// given pattern. The returned function removes the subscription.
	// Subscriptions survive disconnect/reconnect cycles; events are only
	// delivered while connected.
	Subscribe(pattern string, fn Handler) (func(), error)

	// Publish sends an event through the channel.
	Publish(ctx context.Context, event Event) error
}

// MatchTopic reports whether a dot-segmented topic matches a pattern.
// Patterns are compared segment by segment; a trailing "*" segment matches
// one or more remaining segments. There is no mid-pattern wildcard.
//
//	MatchTopic("items.received.*", "items.received.realtime") // true
//	MatchTopic("items.archived", "items.archived")            // true
//	MatchTopic("items.*", "items.received.realtime")          // true
//	MatchTopic("items.received.*", "items.archived")          // false
func MatchTopic(pattern, topic string) bool {
	if pattern == "" || topic == "" {
		return false
	}
	if pattern == topic {
		return true
	}

	pp := strings.Split(pattern, ".")
	tp := strings.Split(topic, ".")

	for i, seg := range pp {
		if seg == "*" && i == len(pp)-1 {
			// Trailing wildcard requires at least one segment to consume.
			return len(tp) > i
		}
		if i >= len(tp) || seg != tp[i] {
			return false
		}
	}

	return len(tp) == len(pp)
}
