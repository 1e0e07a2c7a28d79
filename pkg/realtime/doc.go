// Package realtime abstracts the persistent push connection that delivers
// feed events to the client.
//
// A Channel carries named events (dot-segmented topics such as
// "items.received.realtime") to local subscribers registered with a topic
// pattern. Patterns support a trailing "*" wildcard matched per segment;
// there is no eval-style dispatch, just split-and-compare.
//
// Two implementations are provided:
//
//   - MemoryChannel: in-process dispatch for tests and single-binary setups.
//   - RedisChannel: cross-process delivery over Redis pub/sub, with
//     exponential backoff around the subscription handshake.
//
// Both honor the same lifecycle contract: Connect and Disconnect are
// idempotent, subscriptions survive reconnect cycles, and delivery pauses
// while the channel is down.
//
// # Usage
//
//	ch := realtime.NewMemoryChannel()
//	if err := ch.Connect(ctx); err != nil {
//	    // handle error
//	}
//	defer ch.Disconnect()
//
//	unsub, _ := ch.Subscribe("items.received.*", func(ev realtime.Event) {
//	    // decode ev.Data and apply
//	})
//	defer unsub()
package realtime
