// Package visibility minimizes held real-time connections for backgrounded
// surfaces without thrashing the connection on brief focus changes.
//
// The Manager watches a Source for hidden/visible transitions. When the
// surface hides, a timer is armed for a configurable delay (DefaultDelay,
// 2s). If the surface is still hidden when the timer fires, the managed
// Conn is disconnected and the manager remembers that it caused the
// disconnect. When the surface becomes visible again the manager reconnects
// only if it was the one that disconnected; a connection that dropped for
// any other reason is left alone so the failure stays observable.
//
// In execution contexts with no visibility primitive the Source reports
// ErrUnavailable and Start degrades to a no-op instead of failing.
//
// # Usage
//
//	mgr := visibility.New(conn, source, visibility.WithDelay(30*time.Second))
//	if err := mgr.Start(); err != nil {
//	    // handle error
//	}
//	defer mgr.Stop()
package visibility
