package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/feedkit/pkg/logger"
	"github.com/dmitrymomot/feedkit/pkg/realtime"
	"github.com/dmitrymomot/feedkit/pkg/store"
	"github.com/dmitrymomot/feedkit/pkg/visibility"
)

const (
	// DefaultPageSize is the page size applied to queries that do not set
	// their own.
	DefaultPageSize = 50

	// DefaultOrder is the pagination order applied to queries that do not
	// set their own. Newest first matches the platform default.
	DefaultOrder = OrderDesc
)

// Client is the store synchronizer: a single authoritative in-memory cache
// reconciling paginated fetches and real-time push events into one
// consistent view per query scope, with race-free application of status
// mutations.
//
// Clients are caller-constructed with an explicit lifecycle (New, Connect,
// Close); multiple independent clients can coexist in one process.
type Client struct {
	api     FetchClient
	channel realtime.Channel
	st      *store.Store[State]
	log     *slog.Logger

	pageSize int
	order    Order

	visSource visibility.Source
	autoDisc  bool
	discDelay time.Duration
	vis       *visibility.Manager

	// queries tracks every query that has been fetched at least once, by
	// canonical key, so real-time events and mutations can re-evaluate
	// per-query membership.
	queries map[string]Query
	unsub   func()
	closed  bool
	mu      sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithChannel attaches a real-time channel. Without one the client is
// fetch-only and Connect returns ErrNoChannel.
func WithChannel(ch realtime.Channel) Option {
	return func(c *Client) {
		c.channel = ch
	}
}

// WithLogger sets the logger for the Client.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPageSize sets the default page size for queries that do not specify
// one. Non-positive values are ignored.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithOrder sets the default pagination order for queries that do not
// specify one.
func WithOrder(o Order) Option {
	return func(c *Client) {
		if o == OrderAsc || o == OrderDesc {
			c.order = o
		}
	}
}

// WithVisibilitySource attaches a visibility source so the client can drop
// the channel connection for backgrounded surfaces.
func WithVisibilitySource(src visibility.Source) Option {
	return func(c *Client) {
		c.visSource = src
	}
}

// WithAutoDisconnect toggles visibility-driven disconnects. Enabled by
// default; it only takes effect when a visibility source is attached.
func WithAutoDisconnect(enabled bool) Option {
	return func(c *Client) {
		c.autoDisc = enabled
	}
}

// WithAutoDisconnectDelay overrides the debounce before a hidden surface's
// connection is torn down. Default is visibility.DefaultDelay.
func WithAutoDisconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.discDelay = d
		}
	}
}

// New creates a feed client on top of the given fetch client.
func New(api FetchClient, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, ErrNilFetchClient
	}

	c := &Client{
		api:       api,
		st:        store.New(newState()),
		log:       slog.Default(),
		pageSize:  DefaultPageSize,
		order:     DefaultOrder,
		autoDisc:  true,
		discDelay: visibility.DefaultDelay,
		queries:   make(map[string]Query),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// channelConn adapts a realtime.Channel to the visibility manager's Conn
// contract.
type channelConn struct {
	ch realtime.Channel
}

func (c channelConn) Connect() error    { return c.ch.Connect(context.Background()) }
func (c channelConn) Disconnect() error { return c.ch.Disconnect() }
func (c channelConn) IsConnected() bool { return c.ch.IsConnected() }

// Connect establishes the real-time channel, subscribes the client to feed
// events, and starts the visibility-driven connection manager when one is
// configured. Idempotent.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.channel == nil {
		return ErrNoChannel
	}

	if err := c.channel.Connect(ctx); err != nil {
		return fmt.Errorf("feed: connect channel: %w", err)
	}

	if c.unsub == nil {
		unsub, err := c.channel.Subscribe("items.*", c.handleEvent)
		if err != nil {
			return fmt.Errorf("feed: subscribe channel: %w", err)
		}
		c.unsub = unsub
	}

	if c.vis == nil && c.autoDisc && c.visSource != nil {
		c.vis = visibility.New(channelConn{c.channel}, c.visSource,
			visibility.WithDelay(c.discDelay),
			visibility.WithLogger(c.log),
		)
		if err := c.vis.Start(); err != nil {
			c.log.LogAttrs(ctx, slog.LevelWarn, "visibility manager failed to start",
				logger.Component("feed"),
				logger.Error(err),
			)
			c.vis = nil
		}
	}

	return nil
}

// Disconnect tears the real-time channel down without discarding cached
// state or subscriptions. Safe to call when already disconnected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return nil
	}
	return c.channel.Disconnect()
}

// Close releases the client: the visibility manager is stopped, the event
// subscription removed, and the channel disconnected. Further operations
// return ErrClosed. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.vis != nil {
		c.vis.Stop()
		c.vis = nil
	}
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	if c.channel != nil {
		return c.channel.Disconnect()
	}
	return nil
}

// GetState returns the current cache snapshot.
func (c *Client) GetState() State {
	return c.st.GetState()
}

// Subscribe registers fn for every state change; see store.Store.Subscribe.
func (c *Client) Subscribe(fn func(State), opts ...store.SubscribeOption) func() {
	return c.st.Subscribe(fn, opts...)
}

// Store exposes the underlying reactive store for selector subscriptions
// via store.Select.
func (c *Client) Store() *store.Store[State] {
	return c.st
}

// Fetch loads the first page for the query, replacing the query's cached
// ID list while merging returned items into the flat map. The query's
// network status is NetworkStatusLoading while the request is in flight.
func (c *Client) Fetch(ctx context.Context, q Query) error {
	q, key, err := c.registerQuery(q)
	if err != nil {
		return err
	}
	return c.fetchPage(ctx, q, key, "")
}

// FetchNextPage continues the query from its stored "after" cursor,
// appending to the cached ID list. Without a stored cursor it behaves like
// Fetch. The query's network status is NetworkStatusFetchMore while the
// request is in flight.
func (c *Client) FetchNextPage(ctx context.Context, q Query) error {
	q, key, err := c.registerQuery(q)
	if err != nil {
		return err
	}

	after := ""
	if rec, ok := c.st.GetState().Queries[key]; ok {
		after = rec.PageInfo.After
	}
	return c.fetchPage(ctx, q, key, after)
}

func (c *Client) registerQuery(q Query) (Query, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return q, "", ErrClosed
	}

	q = q.normalize(c.pageSize, c.order)
	key := q.Key()
	c.queries[key] = q
	return q, key, nil
}

func (c *Client) fetchPage(ctx context.Context, q Query, key, after string) error {
	inflight := NetworkStatusLoading
	if after != "" {
		inflight = NetworkStatusFetchMore
	}

	c.st.SetState(func(s State) State {
		s = s.clone()
		rec := s.Queries[key]
		rec.NetworkStatus = inflight
		s.Queries[key] = rec
		s.NetworkStatus = inflight
		return s
	})

	resp, err := c.api.FetchFeed(ctx, FeedRequest{Query: q, After: after})
	if err != nil {
		// Prior item and ID data stays untouched; only the status flips.
		c.st.SetState(func(s State) State {
			s = s.clone()
			rec := s.Queries[key]
			rec.NetworkStatus = NetworkStatusError
			s.Queries[key] = rec
			s.NetworkStatus = NetworkStatusError
			return s
		})
		c.log.LogAttrs(ctx, slog.LevelError, "feed fetch failed",
			logger.Component("feed"),
			logger.QueryKey(key),
			logger.Error(err),
		)
		return fmt.Errorf("feed: fetch: %w", err)
	}

	c.st.SetState(func(s State) State {
		s = s.clone()

		ids := make([]string, 0, len(resp.Entries))
		for _, entry := range resp.Entries {
			s.upsert(entry)
			ids = append(ids, entry.ID)
		}

		rec := s.Queries[key]
		if after == "" {
			// Re-fetching the first page replaces the ID list.
			rec.ItemIDs = ids
		} else {
			rec.ItemIDs = appendMissing(rec.ItemIDs, ids)
		}
		rec.PageInfo = resp.PageInfo
		rec.NetworkStatus = NetworkStatusReady
		s.Queries[key] = rec

		s.Metadata = resp.Meta
		s.NetworkStatus = NetworkStatusReady
		return s
	})

	return nil
}

// appendMissing appends the ids not already present in list, preserving
// order of both.
func appendMissing(list, ids []string) []string {
	seen := make(map[string]struct{}, len(list))
	for _, id := range list {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			list = append(list, id)
		}
	}
	return list
}

// MarkSeen applies the seen stamp to the items optimistically and confirms
// it with the platform, rolling back on failure.
func (c *Client) MarkSeen(ctx context.Context, itemIDs ...string) error {
	return c.mutate(ctx, MarkSeen, itemIDs)
}

// MarkRead applies the read stamp to the items optimistically and confirms
// it with the platform, rolling back on failure.
func (c *Client) MarkRead(ctx context.Context, itemIDs ...string) error {
	return c.mutate(ctx, MarkRead, itemIDs)
}

// MarkInteracted applies the interacted stamp to the items optimistically
// and confirms it with the platform, rolling back on failure.
func (c *Client) MarkInteracted(ctx context.Context, itemIDs ...string) error {
	return c.mutate(ctx, MarkInteracted, itemIDs)
}

// MarkArchived applies the archived stamp to the items optimistically and
// confirms it with the platform, rolling back on failure. Archived items
// stay in the flat map; only queries excluding archived items drop them.
func (c *Client) MarkArchived(ctx context.Context, itemIDs ...string) error {
	return c.mutate(ctx, MarkArchived, itemIDs)
}

// MarkLinkClicked applies the link-clicked stamp to the items
// optimistically and confirms it with the platform, rolling back on
// failure.
func (c *Client) MarkLinkClicked(ctx context.Context, itemIDs ...string) error {
	return c.mutate(ctx, MarkLinkClicked, itemIDs)
}

func (c *Client) mutate(ctx context.Context, kind MutationKind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if probe := (&Item{}).stamp(kind); probe == nil {
		return fmt.Errorf("%w: %q", ErrUnknownMutation, kind)
	}

	queries, err := c.activeQueries()
	if err != nil {
		return err
	}

	now := time.Now()

	// Field-level snapshot of the single stamp this mutation touches, so a
	// rollback cannot clobber a concurrent mutation of a different stamp on
	// the same item.
	prior := make(map[string]*time.Time, len(ids))
	var unseenDelta, unreadDelta int

	c.st.SetState(func(s State) State {
		s = s.clone()
		for _, id := range ids {
			item, ok := s.Items[id]
			if !ok {
				continue
			}
			before := item.stampValue(kind)
			prior[id] = before
			if before == nil {
				at := now
				*item.stamp(kind) = &at
				switch kind {
				case MarkSeen:
					if s.Metadata.UnseenCount > 0 {
						s.Metadata.UnseenCount--
						unseenDelta--
					}
				case MarkRead:
					if s.Metadata.UnreadCount > 0 {
						s.Metadata.UnreadCount--
						unreadDelta--
					}
				}
			}
			s.Items[id] = item
			for key, q := range queries {
				s.syncMembership(key, q, item)
			}
		}
		return s
	})

	resp, err := c.api.UpdateStatus(ctx, StatusUpdate{Kind: kind, ItemIDs: ids})
	if err != nil {
		// Roll back only what this mutation changed: the one stamp per
		// item and the counter deltas it applied.
		c.st.SetState(func(s State) State {
			s = s.clone()
			for id, before := range prior {
				item, ok := s.Items[id]
				if !ok {
					continue
				}
				*item.stamp(kind) = before
				s.Items[id] = item
				for key, q := range queries {
					s.syncMembership(key, q, item)
				}
			}
			s.Metadata.UnseenCount -= unseenDelta
			s.Metadata.UnreadCount -= unreadDelta
			return s
		})
		c.log.LogAttrs(ctx, slog.LevelError, "status mutation failed, rolled back",
			logger.Component("feed"),
			slog.String("mutation", string(kind)),
			slog.Int("item_count", len(ids)),
			logger.Error(err),
		)
		return fmt.Errorf("feed: %s mutation: %w", kind, err)
	}

	// Reconcile with the server's canonical items when it returns them.
	if resp != nil && len(resp.Items) > 0 {
		c.st.SetState(func(s State) State {
			s = s.clone()
			for _, item := range resp.Items {
				s.upsert(item)
				merged := s.Items[item.ID]
				for key, q := range queries {
					s.syncMembership(key, q, merged)
				}
			}
			return s
		})
	}

	return nil
}

func (c *Client) activeQueries() (map[string]Query, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	queries := make(map[string]Query, len(c.queries))
	for k, q := range c.queries {
		queries[k] = q
	}
	return queries, nil
}

// handleEvent applies a real-time push event to the store. Malformed
// payloads and unknown topics are logged and dropped, never raised.
func (c *Client) handleEvent(ev realtime.Event) {
	var payload EventPayload
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			c.log.LogAttrs(context.Background(), slog.LevelWarn, "dropping malformed feed event",
				logger.Component("feed"),
				logger.Topic(ev.Topic),
				logger.Error(err),
			)
			return
		}
	}

	queries, err := c.activeQueries()
	if err != nil {
		return
	}

	switch ev.Topic {
	case TopicItemsReceivedRealtime:
		c.applyReceived(payload, queries)

	case TopicItemsReceivedPage:
		if payload.Metadata == nil {
			return
		}
		c.st.SetState(func(s State) State {
			s = s.clone()
			s.Metadata = *payload.Metadata
			return s
		})

	default:
		st, ok := statusTopics[ev.Topic]
		if !ok {
			c.log.LogAttrs(context.Background(), slog.LevelDebug, "ignoring unknown feed topic",
				logger.Component("feed"),
				logger.Topic(ev.Topic),
			)
			return
		}
		c.applyStatusEvent(payload, st.kind, st.set, ev.CreatedAt, queries)
	}
}

func (c *Client) applyReceived(payload EventPayload, queries map[string]Query) {
	c.st.SetState(func(s State) State {
		s = s.clone()
		for _, item := range payload.Items {
			if item.ID == "" {
				continue
			}
			_, existed := s.Items[item.ID]
			s.upsert(item)
			merged := s.Items[item.ID]
			for key, q := range queries {
				s.syncMembership(key, q, merged)
			}

			// The push event is the counter's own source of truth for this
			// delta; adjust incrementally instead of forcing a refetch.
			if payload.Metadata == nil && !existed {
				s.Metadata.TotalCount++
				if merged.SeenAt == nil {
					s.Metadata.UnseenCount++
				}
				if merged.ReadAt == nil {
					s.Metadata.UnreadCount++
				}
			}
		}
		if payload.Metadata != nil {
			s.Metadata = *payload.Metadata
		}
		return s
	})
}

func (c *Client) applyStatusEvent(payload EventPayload, kind MutationKind, set bool, occurredAt time.Time, queries map[string]Query) {
	c.st.SetState(func(s State) State {
		s = s.clone()
		for _, delta := range payload.Items {
			if delta.ID == "" {
				continue
			}

			item, ok := s.Items[delta.ID]
			if !ok {
				// Out-of-order delivery: the status event beat the item it
				// refers to. Record a stub carrying only the known fields;
				// a later fetch or received event fills it in.
				item = Item{ID: delta.ID}
			}

			updated, changed := applyStatusDelta(item, delta, kind, set, occurredAt)
			s.Items[delta.ID] = updated
			for key, q := range queries {
				s.syncMembership(key, q, updated)
			}

			if changed && payload.Metadata == nil {
				switch kind {
				case MarkSeen:
					if set {
						if s.Metadata.UnseenCount > 0 {
							s.Metadata.UnseenCount--
						}
					} else {
						s.Metadata.UnseenCount++
					}
				case MarkRead:
					if set {
						if s.Metadata.UnreadCount > 0 {
							s.Metadata.UnreadCount--
						}
					} else {
						s.Metadata.UnreadCount++
					}
				}
			}
		}
		if payload.Metadata != nil {
			s.Metadata = *payload.Metadata
		}
		return s
	})
}
