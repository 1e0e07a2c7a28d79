package feed

// NetworkStatus distinguishes the request lifecycle phases UI loading
// indicators depend on: nothing in flight, an initial or replacing load,
// an appending next-page load, and a failed request.
type NetworkStatus string

const (
	NetworkStatusReady     NetworkStatus = "ready"
	NetworkStatusLoading   NetworkStatus = "loading"
	NetworkStatusFetchMore NetworkStatus = "fetch_more"
	NetworkStatusError     NetworkStatus = "error"
)

// PageInfo carries the pagination cursors of a query result.
type PageInfo struct {
	After  string `json:"after,omitempty"`
	Before string `json:"before,omitempty"`
}

// QueryResult is the per-query cached state: an ordered list of item ID
// references into the flat item map, the page cursors, and the query's own
// network status. It never holds item copies, so a status mutation applied
// to the flat map is visible through every query that references the item.
type QueryResult struct {
	ItemIDs       []string
	PageInfo      PageInfo
	NetworkStatus NetworkStatus
}

// Metadata carries the feed-level counters. They are authoritative from the
// latest fetch response or count-bearing realtime event, never derived by
// counting locally cached items, since the local set is usually a partial
// page.
type Metadata struct {
	TotalCount  int `json:"total_count"`
	UnreadCount int `json:"unread_count"`
	UnseenCount int `json:"unseen_count"`
}

// State is the complete synchronized cache: the flat item map, the
// per-query result records referencing it, the feed counters, and the
// status of the most recent network activity.
//
// Snapshots handed to subscribers share no mutable structure with the
// store: every update clones the maps and ID slices first.
type State struct {
	Items         map[string]Item
	Queries       map[string]QueryResult
	Metadata      Metadata
	NetworkStatus NetworkStatus
}

func newState() State {
	return State{
		Items:         make(map[string]Item),
		Queries:       make(map[string]QueryResult),
		NetworkStatus: NetworkStatusReady,
	}
}

// clone copies the state's maps and slices so the previous snapshot stays
// immutable for anyone still holding it.
func (s State) clone() State {
	items := make(map[string]Item, len(s.Items))
	for id, item := range s.Items {
		items[id] = item
	}

	queries := make(map[string]QueryResult, len(s.Queries))
	for key, rec := range s.Queries {
		rec.ItemIDs = append([]string(nil), rec.ItemIDs...)
		queries[key] = rec
	}

	s.Items = items
	s.Queries = queries
	return s
}

// upsert inserts the item or merges it into an existing entry by identity.
func (s *State) upsert(item Item) {
	if existing, ok := s.Items[item.ID]; ok {
		s.Items[item.ID] = existing.merge(item)
		return
	}
	s.Items[item.ID] = item
}

// syncMembership re-evaluates one item against one query result record:
// a matching item's ID is inserted (position decided by the query order)
// and a non-matching item's ID is removed. The item itself always stays in
// the flat map.
func (s *State) syncMembership(key string, q Query, item Item) {
	rec, ok := s.Queries[key]
	if !ok {
		return
	}

	idx := -1
	for i, id := range rec.ItemIDs {
		if id == item.ID {
			idx = i
			break
		}
	}

	if q.Matches(item) {
		if idx >= 0 {
			return
		}
		if q.Order == OrderAsc {
			rec.ItemIDs = append(rec.ItemIDs, item.ID)
		} else {
			rec.ItemIDs = append([]string{item.ID}, rec.ItemIDs...)
		}
	} else {
		if idx < 0 {
			return
		}
		rec.ItemIDs = append(rec.ItemIDs[:idx], rec.ItemIDs[idx+1:]...)
	}

	s.Queries[key] = rec
}
