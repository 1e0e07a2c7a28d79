package feed

import "time"

// Event topics delivered over the real-time channel. Topics are
// dot-segmented; the client subscribes with the "items.*" pattern and
// dispatches on the exact topic.
const (
	TopicItemsReceivedRealtime = "items.received.realtime"
	TopicItemsReceivedPage     = "items.received.page"
	TopicItemsSeen             = "items.seen"
	TopicItemsUnseen           = "items.unseen"
	TopicItemsRead             = "items.read"
	TopicItemsUnread           = "items.unread"
	TopicItemsInteracted       = "items.interacted"
	TopicItemsArchived         = "items.archived"
	TopicItemsUnarchived       = "items.unarchived"
	TopicItemsLinkClicked      = "items.link_clicked"
)

// EventPayload is the body of a feed event. Status-delta events usually
// carry partial items (id plus the stamp that changed); received events
// carry full items. Metadata, when present, is an authoritative counter
// snapshot that replaces the local one.
type EventPayload struct {
	Items    []Item    `json:"items,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// statusTopics maps delta topics to the lifecycle mutation they confirm
// (set = true) or revert (set = false).
var statusTopics = map[string]struct {
	kind MutationKind
	set  bool
}{
	TopicItemsSeen:        {MarkSeen, true},
	TopicItemsUnseen:      {MarkSeen, false},
	TopicItemsRead:        {MarkRead, true},
	TopicItemsUnread:      {MarkRead, false},
	TopicItemsInteracted:  {MarkInteracted, true},
	TopicItemsArchived:    {MarkArchived, true},
	TopicItemsUnarchived:  {MarkArchived, false},
	TopicItemsLinkClicked: {MarkLinkClicked, true},
}

// applyStatusDelta applies a set/clear of one lifecycle stamp to an item,
// defaulting the stamp to occurredAt when the payload did not carry one.
// Returns the updated item and whether the stamp actually transitioned.
func applyStatusDelta(item Item, delta Item, kind MutationKind, set bool, occurredAt time.Time) (Item, bool) {
	merged := item.merge(delta)

	field := merged.stamp(kind)
	if field == nil {
		return item, false
	}

	if set {
		if *field == nil {
			at := occurredAt
			if at.IsZero() {
				at = time.Now()
			}
			*field = &at
		}
		changed := item.stampValue(kind) == nil
		return merged, changed
	}

	changed := item.stampValue(kind) != nil
	*field = nil
	return merged, changed
}

// stampValue reads the lifecycle field for a mutation kind.
func (i Item) stampValue(kind MutationKind) *time.Time {
	return *(&i).stamp(kind)
}
