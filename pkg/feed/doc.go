// Package feed maintains a consistent, incrementally updated local cache
// of notification feed items, reconciling two independent update sources
// (paginated HTTP fetches and real-time push events) into one normalized
// store with query-scoped read views.
//
// # Architecture
//
//   - Item: the domain record, stored once in a flat id-keyed map.
//   - Query / QueryResult: parameterized views holding ordered item ID
//     references into the flat map, never copies, so one mutation is
//     visible through every view.
//   - Client: the synchronizer. Fetches pages, applies push events,
//     executes optimistic status mutations with field-level rollback, and
//     exposes the cache through a reactive store.
//
// Updates merge by identity: fields absent from a payload never erase
// locally known state, which keeps interleavings of in-flight fetches and
// push events safe. Items are never deleted: archiving is a flag, and only
// query membership changes.
//
// # Basic usage
//
//	apiClient, _ := api.New(baseURL, apiKey, userID, feedID)
//	client, err := feed.New(apiClient,
//	    feed.WithChannel(channel),
//	    feed.WithPageSize(25),
//	)
//	if err != nil {
//	    // handle error
//	}
//	defer client.Close()
//
//	if err := client.Connect(ctx); err != nil {
//	    // realtime unavailable; fetch-only operation still works
//	}
//
//	q := feed.Query{Status: feed.StatusUnread}
//	if err := client.Fetch(ctx, q); err != nil {
//	    // handle error
//	}
//
//	unsub := client.Subscribe(func(s feed.State) {
//	    rec := s.Queries[q.Key()]
//	    // render rec.ItemIDs against s.Items
//	})
//	defer unsub()
//
// Mutations are optimistic: the stamp lands in the cache before the
// network call resolves, and rolls back field-by-field if it fails:
//
//	if err := client.MarkRead(ctx, "item_1"); err != nil {
//	    // read_at reverted to its prior value
//	}
package feed
