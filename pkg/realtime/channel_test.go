package realtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/feedkit/pkg/realtime"
)

func TestMatchTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		topic   string
		want    bool
	}{
		{"exact match", "items.archived", "items.archived", true},
		{"exact mismatch", "items.archived", "items.unarchived", false},
		{"trailing wildcard single segment", "items.received.*", "items.received.realtime", true},
		{"trailing wildcard multiple segments", "items.*", "items.received.realtime", true},
		{"wildcard requires a segment", "items.received.*", "items.received", false},
		{"prefix mismatch with wildcard", "items.received.*", "items.archived", false},
		{"pattern longer than topic", "items.received.realtime", "items.received", false},
		{"topic longer than pattern", "items.received", "items.received.realtime", false},
		{"empty pattern", "", "items.archived", false},
		{"empty topic", "items.*", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, realtime.MatchTopic(tt.pattern, tt.topic))
		})
	}
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	ev, err := realtime.NewEvent("items.received.realtime", map[string]string{"id": "item_1"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "items.received.realtime", ev.Topic)
	assert.JSONEq(t, `{"id":"item_1"}`, string(ev.Data))
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestMemoryChannel_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ch := realtime.NewMemoryChannel()

	assert.False(t, ch.IsConnected())

	require.NoError(t, ch.Connect(ctx))
	assert.True(t, ch.IsConnected())

	// Connect is idempotent.
	require.NoError(t, ch.Connect(ctx))
	assert.True(t, ch.IsConnected())

	require.NoError(t, ch.Disconnect())
	assert.False(t, ch.IsConnected())

	// Disconnect is idempotent.
	require.NoError(t, ch.Disconnect())
	assert.False(t, ch.IsConnected())
}

func TestMemoryChannel_Publish(t *testing.T) {
	t.Parallel()

	t.Run("delivers to matching subscribers only", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		ch := realtime.NewMemoryChannel()
		require.NoError(t, ch.Connect(ctx))

		var received, archived []string
		unsub1, err := ch.Subscribe("items.received.*", func(ev realtime.Event) {
			received = append(received, ev.Topic)
		})
		require.NoError(t, err)
		defer unsub1()

		unsub2, err := ch.Subscribe("items.archived", func(ev realtime.Event) {
			archived = append(archived, ev.Topic)
		})
		require.NoError(t, err)
		defer unsub2()

		ev, err := realtime.NewEvent("items.received.realtime", nil)
		require.NoError(t, err)
		require.NoError(t, ch.Publish(ctx, ev))

		ev, err = realtime.NewEvent("items.archived", nil)
		require.NoError(t, err)
		require.NoError(t, ch.Publish(ctx, ev))

		assert.Equal(t, []string{"items.received.realtime"}, received)
		assert.Equal(t, []string{"items.archived"}, archived)
	})

	t.Run("publish while disconnected fails", func(t *testing.T) {
		t.Parallel()

		ch := realtime.NewMemoryChannel()
		ev, err := realtime.NewEvent("items.archived", nil)
		require.NoError(t, err)

		err = ch.Publish(context.Background(), ev)
		assert.ErrorIs(t, err, realtime.ErrNotConnected)
	})

	t.Run("subscriptions survive reconnect", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		ch := realtime.NewMemoryChannel()
		require.NoError(t, ch.Connect(ctx))

		calls := 0
		unsub, err := ch.Subscribe("items.*", func(realtime.Event) { calls++ })
		require.NoError(t, err)
		defer unsub()

		require.NoError(t, ch.Disconnect())
		require.NoError(t, ch.Connect(ctx))

		ev, err := realtime.NewEvent("items.seen", nil)
		require.NoError(t, err)
		require.NoError(t, ch.Publish(ctx, ev))

		assert.Equal(t, 1, calls)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		ch := realtime.NewMemoryChannel()
		require.NoError(t, ch.Connect(ctx))

		calls := 0
		unsub, err := ch.Subscribe("items.*", func(realtime.Event) { calls++ })
		require.NoError(t, err)
		unsub()

		ev, err := realtime.NewEvent("items.seen", nil)
		require.NoError(t, err)
		require.NoError(t, ch.Publish(ctx, ev))

		assert.Zero(t, calls)
	})

	t.Run("empty pattern rejected", func(t *testing.T) {
		t.Parallel()

		ch := realtime.NewMemoryChannel()
		_, err := ch.Subscribe("", func(realtime.Event) {})
		assert.ErrorIs(t, err, realtime.ErrEmptyPattern)
	})
}

func TestExponentialBackoff_NextInterval(t *testing.T) {
	t.Parallel()

	b := realtime.ExponentialBackoff{JitterFactor: 0}

	assert.Equal(t, int64(0), int64(b.NextInterval(0)))
	assert.Equal(t, int64(1e9), int64(b.NextInterval(1)))
	assert.Equal(t, int64(2e9), int64(b.NextInterval(2)))
	assert.Equal(t, int64(4e9), int64(b.NextInterval(3)))
	// Capped at the 30s default max.
	assert.Equal(t, int64(30e9), int64(b.NextInterval(10)))
}
