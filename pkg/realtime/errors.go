package realtime

import "errors"

var (
	// ErrChannelClosed is returned when operations are attempted on a
	// channel that has been permanently closed.
	ErrChannelClosed = errors.New("realtime: channel is closed")

	// ErrNotConnected is returned by Publish when the channel is not
	// connected.
	ErrNotConnected = errors.New("realtime: channel is not connected")

	// ErrEmptyPattern is returned by Subscribe when the topic pattern is
	// empty.
	ErrEmptyPattern = errors.New("realtime: subscription pattern cannot be empty")
)
