package feed

import "errors"

var (
	// ErrClosed is returned by operations on a client that has been closed.
	ErrClosed = errors.New("feed: client is closed")

	// ErrNilFetchClient is returned by New when no fetch client is given.
	ErrNilFetchClient = errors.New("feed: fetch client is required")

	// ErrNoChannel is returned by Connect when the client was built without
	// a real-time channel.
	ErrNoChannel = errors.New("feed: no realtime channel configured")

	// ErrUnknownMutation is returned for a mutation kind the client does
	// not recognize.
	ErrUnknownMutation = errors.New("feed: unknown mutation kind")
)
