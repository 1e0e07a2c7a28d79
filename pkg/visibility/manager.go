package visibility

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/feedkit/pkg/logger"
)

// ErrUnavailable is reported by a Source whose underlying visibility
// primitive does not exist in the current execution context (for example a
// headless process with no page lifecycle). The manager degrades to a no-op
// when it sees this error.
var ErrUnavailable = errors.New("visibility: source unavailable")

// State identifies the manager's position in its connection lifecycle.
type State string

const (
	StateConnected         State = "connected"
	StatePendingDisconnect State = "pending_disconnect"
	StateDisconnected      State = "disconnected"
)

// Source observes foreground/background transitions of the consuming
// surface.
type Source interface {
	// Visible reports the current visibility.
	Visible() bool

	// Watch registers fn to be called on every visibility transition and
	// returns a function that removes the registration. Implementations
	// backed by an unavailable primitive return ErrUnavailable.
	Watch(fn func(visible bool)) (func(), error)
}

// Conn is the connection the manager opens and closes. Implementations must
// tolerate repeated Connect calls while connected and repeated Disconnect
// calls while disconnected.
type Conn interface {
	Connect() error
	Disconnect() error
	IsConnected() bool
}

// DefaultDelay is the canonical debounce before a hidden surface's
// connection is torn down. Two seconds keeps brief tab switches from
// thrashing the connection while still releasing resources quickly;
// deployments that prefer a much lazier teardown (30s is common) set it
// via WithDelay.
const DefaultDelay = 2 * time.Second

// Manager tears down a real-time connection when the observed surface stays
// hidden past a configurable delay, and re-establishes it when the surface
// returns, but only when the manager itself caused the disconnect, so a
// connection that failed for other reasons is never silently masked by a
// visibility-driven reconnect.
type Manager struct {
	conn   Conn
	source Source
	delay  time.Duration
	log    *slog.Logger

	state            State
	causedDisconnect bool
	timer            *time.Timer
	unwatch          func()
	started          bool
	mu               sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithDelay overrides the debounce delay before disconnecting a hidden
// surface. Non-positive values are ignored.
func WithDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the logger for the Manager.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// New creates a manager for the given connection and visibility source.
// The source may be nil, in which case Start is a no-op.
func New(conn Conn, source Source, opts ...Option) *Manager {
	m := &Manager{
		conn:   conn,
		source: source,
		delay:  DefaultDelay,
		log:    slog.Default(),
		state:  StateConnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start registers the visibility watcher. It is idempotent, and a no-op
// when no visibility source is available.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if m.source == nil {
		m.log.LogAttrs(context.Background(), slog.LevelDebug, "no visibility source, manager disabled",
			logger.Component("visibility"),
		)
		return nil
	}

	unwatch, err := m.source.Watch(m.onVisibility)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			m.log.LogAttrs(context.Background(), slog.LevelDebug, "visibility source unavailable, manager disabled",
				logger.Component("visibility"),
			)
			return nil
		}
		return err
	}

	m.unwatch = unwatch
	m.started = true
	if m.conn.IsConnected() {
		m.state = StateConnected
	} else {
		m.state = StateDisconnected
	}
	return nil
}

// Stop removes the visibility watcher and cancels any pending disconnect.
// Safe to call multiple times and from any state.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.unwatch != nil {
		m.unwatch()
		m.unwatch = nil
	}
	m.started = false
}

func (m *Manager) onVisibility(visible bool) {
	if visible {
		m.onVisible()
	} else {
		m.onHidden()
	}
}

func (m *Manager) onHidden() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected {
		return
	}

	m.state = StatePendingDisconnect
	m.timer = time.AfterFunc(m.delay, m.onDeadline)
}

func (m *Manager) onDeadline() {
	m.mu.Lock()
	if m.state != StatePendingDisconnect {
		// Visibility returned between the timer firing and this callback
		// acquiring the lock.
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.causedDisconnect = true
	m.timer = nil
	conn := m.conn
	m.mu.Unlock()

	// The state transition above stands even when the action fails; the
	// manager never retries on its own.
	if err := conn.Disconnect(); err != nil {
		m.log.LogAttrs(context.Background(), slog.LevelError, "failed to disconnect hidden surface",
			logger.Component("visibility"),
			logger.Error(err),
		)
	}
}

func (m *Manager) onVisible() {
	m.mu.Lock()

	switch m.state {
	case StatePendingDisconnect:
		if m.timer != nil {
			m.timer.Stop()
			m.timer = nil
		}
		m.state = StateConnected
		m.mu.Unlock()
		return

	case StateDisconnected:
		if !m.causedDisconnect {
			// The connection went down for another reason; forcing a
			// reconnect here would mask the real failure.
			m.mu.Unlock()
			return
		}
		m.causedDisconnect = false
		m.state = StateConnected
		conn := m.conn
		m.mu.Unlock()

		if err := conn.Connect(); err != nil {
			m.log.LogAttrs(context.Background(), slog.LevelError, "failed to reconnect visible surface",
				logger.Component("visibility"),
				logger.Error(err),
			)
		}
		return
	}

	m.mu.Unlock()
}
