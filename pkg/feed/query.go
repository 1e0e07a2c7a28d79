package feed

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Status filters a query by engagement state.
type Status string

const (
	StatusAll    Status = "all"
	StatusUnread Status = "unread"
	StatusUnseen Status = "unseen"
)

// ArchivedScope controls how archived items participate in a query.
type ArchivedScope string

const (
	ArchivedExclude ArchivedScope = "exclude"
	ArchivedInclude ArchivedScope = "include"
	ArchivedOnly    ArchivedScope = "only"
)

// Order is the pagination ordering of a query.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Query is a named, parameterized view over the item set. Two queries with
// equal parameters are the same view and share one cache entry, regardless
// of how the parameters were assembled.
type Query struct {
	Status             Status
	Tenant             string
	Archived           ArchivedScope
	WorkflowCategories []string
	TriggerData        map[string]string
	Order              Order
	PageSize           int
}

// normalize fills zero-valued fields with their documented defaults.
func (q Query) normalize(defaultPageSize int, defaultOrder Order) Query {
	if q.Status == "" {
		q.Status = StatusAll
	}
	if q.Archived == "" {
		q.Archived = ArchivedExclude
	}
	if q.Order == "" {
		q.Order = defaultOrder
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	return q
}

// Key produces a stable string key for the query. Parameters are serialized
// in a fixed order with list and map entries sorted, so logically identical
// queries collide to the same cache entry no matter how their options were
// ordered at construction.
func (q Query) Key() string {
	var b strings.Builder

	b.WriteString("status=")
	b.WriteString(string(q.Status))
	b.WriteString("|tenant=")
	b.WriteString(q.Tenant)
	b.WriteString("|archived=")
	b.WriteString(string(q.Archived))

	if len(q.WorkflowCategories) > 0 {
		cats := append([]string(nil), q.WorkflowCategories...)
		sort.Strings(cats)
		b.WriteString("|categories=")
		b.WriteString(strings.Join(cats, ","))
	}

	if len(q.TriggerData) > 0 {
		keys := make([]string, 0, len(q.TriggerData))
		for k := range q.TriggerData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("|trigger_data=")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte(':')
			b.WriteString(q.TriggerData[k])
		}
	}

	b.WriteString("|order=")
	b.WriteString(string(q.Order))
	b.WriteString("|page_size=")
	b.WriteString(strconv.Itoa(q.PageSize))

	return b.String()
}

// Matches reports whether the item satisfies the query's filter. Pagination
// parameters (order, page size) do not participate.
func (q Query) Matches(item Item) bool {
	switch q.Status {
	case StatusUnread:
		if item.ReadAt != nil {
			return false
		}
	case StatusUnseen:
		if item.SeenAt != nil {
			return false
		}
	}

	switch q.Archived {
	case ArchivedOnly:
		if item.ArchivedAt == nil {
			return false
		}
	case ArchivedInclude:
		// Archived state is irrelevant.
	default:
		if item.ArchivedAt != nil {
			return false
		}
	}

	if q.Tenant != "" && item.Tenant != q.Tenant {
		return false
	}

	if len(q.WorkflowCategories) > 0 {
		found := false
		for _, want := range q.WorkflowCategories {
			for _, have := range item.WorkflowCategories {
				if want == have {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}

	for k, want := range q.TriggerData {
		have, ok := item.Data[k]
		if !ok || fmt.Sprint(have) != want {
			return false
		}
	}

	return true
}
