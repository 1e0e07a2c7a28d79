package feed

import "context"

// FeedRequest is a single page request for a query. An empty cursor pair
// means the first page; After/Before continue pagination in the query's
// order.
type FeedRequest struct {
	Query  Query
	After  string
	Before string
}

// FeedResponse is one page of feed items plus cursors and authoritative
// counters.
type FeedResponse struct {
	Entries  []Item   `json:"entries"`
	PageInfo PageInfo `json:"page_info"`
	Meta     Metadata `json:"meta"`
}

// StatusUpdate asks the platform to apply one lifecycle mutation to a set
// of items.
type StatusUpdate struct {
	Kind    MutationKind
	ItemIDs []string
}

// StatusResponse acknowledges a status update. Items, when present, carry
// the server's canonical version of the mutated items for reconciling
// optimistic state; an empty slice is a bare acknowledgement.
type StatusResponse struct {
	Items []Item `json:"items,omitempty"`
}

// FetchClient is the network surface the synchronizer consumes: paginated
// feed fetches and status mutation calls. Implementations must be safe for
// concurrent use and must not retain the request structs.
type FetchClient interface {
	FetchFeed(ctx context.Context, req FeedRequest) (*FeedResponse, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) (*StatusResponse, error)
}
