package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// merge is unexported; these tests live in the package to exercise it
// directly.

func TestItem_Merge(t *testing.T) {
	t.Parallel()

	t.Run("preserves fields absent from the delta", func(t *testing.T) {
		t.Parallel()

		seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		item := Item{
			ID:     "a",
			Cursor: "cur_1",
			Tenant: "tenant_1",
			SeenAt: &seen,
			Data:   map[string]any{"k": "v"},
		}

		read := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
		merged := item.merge(Item{ID: "a", ReadAt: &read})

		require.NotNil(t, merged.ReadAt)
		assert.True(t, merged.ReadAt.Equal(read))
		require.NotNil(t, merged.SeenAt)
		assert.True(t, merged.SeenAt.Equal(seen))
		assert.Nil(t, merged.ArchivedAt)
		assert.Equal(t, "cur_1", merged.Cursor)
		assert.Equal(t, "tenant_1", merged.Tenant)
		assert.Equal(t, map[string]any{"k": "v"}, merged.Data)
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		read := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
		delta := Item{ID: "a", Cursor: "cur_2", ReadAt: &read}

		item := Item{ID: "a", Cursor: "cur_1"}
		once := item.merge(delta)
		twice := once.merge(delta)

		assert.Equal(t, once, twice)
	})

	t.Run("present fields overwrite", func(t *testing.T) {
		t.Parallel()

		item := Item{ID: "a", Cursor: "cur_1", Data: map[string]any{"old": true}}
		merged := item.merge(Item{ID: "a", Cursor: "cur_2", Data: map[string]any{"new": true}})

		assert.Equal(t, "cur_2", merged.Cursor)
		assert.Equal(t, map[string]any{"new": true}, merged.Data)
	})
}

func TestItem_Stamp(t *testing.T) {
	t.Parallel()

	item := Item{ID: "a"}
	now := time.Now()

	for _, kind := range []MutationKind{MarkSeen, MarkRead, MarkInteracted, MarkArchived, MarkLinkClicked} {
		field := item.stamp(kind)
		require.NotNil(t, field, kind)
		*field = &now
	}

	assert.NotNil(t, item.SeenAt)
	assert.NotNil(t, item.ReadAt)
	assert.NotNil(t, item.InteractedAt)
	assert.NotNil(t, item.ArchivedAt)
	assert.NotNil(t, item.LinkClickedAt)

	assert.Nil(t, item.stamp(MutationKind("nope")))
}
