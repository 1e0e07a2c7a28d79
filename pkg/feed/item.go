package feed

import (
	"time"
)

// Item is a single notification or in-app message tracked by the feed
// cache. Identity is the stable ID; Cursor is the opaque ordering token the
// platform assigns for pagination.
//
// Lifecycle stamps are nullable: a nil pointer means the transition has not
// happened. The cache records exactly what the server or an optimistic
// mutation supplied and does not derive one stamp from another.
type Item struct {
	ID                 string         `json:"id"`
	Cursor             string         `json:"__cursor,omitempty"`
	Tenant             string         `json:"tenant,omitempty"`
	Source             string         `json:"source,omitempty"`
	WorkflowCategories []string       `json:"workflow_categories,omitempty"`
	Data               map[string]any `json:"data,omitempty"`

	SeenAt        *time.Time `json:"seen_at"`
	ReadAt        *time.Time `json:"read_at"`
	InteractedAt  *time.Time `json:"interacted_at"`
	ArchivedAt    *time.Time `json:"archived_at"`
	LinkClickedAt *time.Time `json:"link_clicked_at"`

	InsertedAt time.Time `json:"inserted_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// merge returns the item updated with the non-empty fields of delta.
// Fields absent from the delta (zero values, nil stamps) are preserved, so
// partial payloads such as delta events and stale fetch responses can never
// erase state they do not carry. Merging the same delta twice is a no-op.
//
// Explicit stamp clearing (mark-unread and friends) does not go through
// merge; it is applied directly by the event handlers that know a nil is
// intentional.
func (i Item) merge(delta Item) Item {
	if delta.Cursor != "" {
		i.Cursor = delta.Cursor
	}
	if delta.Tenant != "" {
		i.Tenant = delta.Tenant
	}
	if delta.Source != "" {
		i.Source = delta.Source
	}
	if delta.WorkflowCategories != nil {
		i.WorkflowCategories = delta.WorkflowCategories
	}
	if delta.Data != nil {
		i.Data = delta.Data
	}

	if delta.SeenAt != nil {
		i.SeenAt = delta.SeenAt
	}
	if delta.ReadAt != nil {
		i.ReadAt = delta.ReadAt
	}
	if delta.InteractedAt != nil {
		i.InteractedAt = delta.InteractedAt
	}
	if delta.ArchivedAt != nil {
		i.ArchivedAt = delta.ArchivedAt
	}
	if delta.LinkClickedAt != nil {
		i.LinkClickedAt = delta.LinkClickedAt
	}

	if !delta.InsertedAt.IsZero() {
		i.InsertedAt = delta.InsertedAt
	}
	if !delta.UpdatedAt.IsZero() {
		i.UpdatedAt = delta.UpdatedAt
	}

	return i
}

// MutationKind identifies a lifecycle status mutation.
type MutationKind string

const (
	MarkSeen        MutationKind = "seen"
	MarkRead        MutationKind = "read"
	MarkInteracted  MutationKind = "interacted"
	MarkArchived    MutationKind = "archived"
	MarkLinkClicked MutationKind = "link_clicked"
)

// stamp returns a pointer to the lifecycle field the mutation kind touches,
// or nil for an unknown kind.
func (i *Item) stamp(kind MutationKind) **time.Time {
	switch kind {
	case MarkSeen:
		return &i.SeenAt
	case MarkRead:
		return &i.ReadAt
	case MarkInteracted:
		return &i.InteractedAt
	case MarkArchived:
		return &i.ArchivedAt
	case MarkLinkClicked:
		return &i.LinkClickedAt
	}
	return nil
}
