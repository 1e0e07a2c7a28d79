package feed_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dmitrymomot/feedkit/pkg/feed"
	"github.com/dmitrymomot/feedkit/pkg/realtime"
	"github.com/dmitrymomot/feedkit/pkg/store"
)

// staticFeed serves one canned page; real deployments use api.Client.
type staticFeed struct{}

func (staticFeed) FetchFeed(ctx context.Context, req feed.FeedRequest) (*feed.FeedResponse, error) {
	return &feed.FeedResponse{
		Entries: []feed.Item{
			{ID: "item_1"},
			{ID: "item_2"},
		},
		Meta: feed.Metadata{TotalCount: 2, UnreadCount: 2, UnseenCount: 2},
	}, nil
}

func (staticFeed) UpdateStatus(ctx context.Context, update feed.StatusUpdate) (*feed.StatusResponse, error) {
	return &feed.StatusResponse{}, nil
}

func ExampleClient_Fetch() {
	ctx := context.Background()

	client, err := feed.New(staticFeed{})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	if err := client.Fetch(ctx, feed.Query{Status: feed.StatusUnread}); err != nil {
		log.Fatal(err)
	}

	s := client.GetState()
	fmt.Printf("cached %d items, %d unread\n", len(s.Items), s.Metadata.UnreadCount)
	// Output: cached 2 items, 2 unread
}

func ExampleClient_MarkRead() {
	ctx := context.Background()

	client, err := feed.New(staticFeed{})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	if err := client.Fetch(ctx, feed.Query{}); err != nil {
		log.Fatal(err)
	}

	// The stamp lands in the cache before the call resolves and rolls back
	// only if the platform rejects it.
	if err := client.MarkRead(ctx, "item_1"); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("unread after marking: %d\n", client.GetState().Metadata.UnreadCount)
	// Output: unread after marking: 1
}

func ExampleClient_Connect() {
	ctx := context.Background()

	channel := realtime.NewMemoryChannel()

	client, err := feed.New(staticFeed{}, feed.WithChannel(channel))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		log.Fatal(err)
	}

	// A server-side publisher pushes a new item; the cache picks it up
	// without a refetch.
	ev, _ := realtime.NewEvent(feed.TopicItemsReceivedRealtime, feed.EventPayload{
		Items: []feed.Item{{ID: "item_3", InsertedAt: time.Now()}},
	})
	if err := channel.Publish(ctx, ev); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("cached items: %d\n", len(client.GetState().Items))
	// Output: cached items: 1
}

func ExampleSelect() {
	ctx := context.Background()

	client, err := feed.New(staticFeed{})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	if err := client.Fetch(ctx, feed.Query{}); err != nil {
		log.Fatal(err)
	}

	// Selector subscriptions fire only when the derived value changes.
	unsub := store.Select(client.Store(),
		func(s feed.State) int { return s.Metadata.UnreadCount },
		func(unread int) { fmt.Printf("unread: %d\n", unread) },
		store.WithImmediate(),
	)
	defer unsub()

	if err := client.MarkRead(ctx, "item_1"); err != nil {
		log.Fatal(err)
	}

	// Output:
	// unread: 2
	// unread: 1
}
