package store_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/feedkit/pkg/store"
)

type testState struct {
	Count int
	Name  string
	Tags  []string
}

func TestStore_GetState(t *testing.T) {
	t.Parallel()

	s := store.New(testState{Count: 42, Name: "initial"})

	st := s.GetState()
	assert.Equal(t, 42, st.Count)
	assert.Equal(t, "initial", st.Name)
}

func TestStore_SetState(t *testing.T) {
	t.Parallel()

	s := store.New(testState{Count: 0})

	s.SetState(func(st testState) testState {
		st.Count = 10
		return st
	})

	assert.Equal(t, 10, s.GetState().Count)
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()

	t.Run("notified on every change", func(t *testing.T) {
		t.Parallel()

		s := store.New(testState{})

		var got []int
		unsub := s.Subscribe(func(st testState) {
			got = append(got, st.Count)
		})
		defer unsub()

		s.SetState(func(st testState) testState { st.Count = 1; return st })
		s.SetState(func(st testState) testState { st.Count = 2; return st })

		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("immediate delivery", func(t *testing.T) {
		t.Parallel()

		s := store.New(testState{Count: 7})

		var got []int
		unsub := s.Subscribe(func(st testState) {
			got = append(got, st.Count)
		}, store.WithImmediate())
		defer unsub()

		require.Equal(t, []int{7}, got)
	})

	t.Run("unsubscribe stops notifications", func(t *testing.T) {
		t.Parallel()

		s := store.New(testState{})

		calls := 0
		unsub := s.Subscribe(func(testState) { calls++ })

		s.SetState(func(st testState) testState { st.Count = 1; return st })
		unsub()
		s.SetState(func(st testState) testState { st.Count = 2; return st })

		assert.Equal(t, 1, calls)
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		t.Parallel()

		s := store.New(testState{})
		unsub := s.Subscribe(func(testState) {})

		unsub()
		assert.NotPanics(t, func() { unsub() })
	})

	t.Run("unsubscribe from within callback", func(t *testing.T) {
		t.Parallel()

		s := store.New(testState{})

		calls := 0
		var unsub func()
		unsub = s.Subscribe(func(testState) {
			calls++
			unsub()
		})

		s.SetState(func(st testState) testState { st.Count = 1; return st })
		s.SetState(func(st testState) testState { st.Count = 2; return st })

		assert.Equal(t, 1, calls)
	})
}

func TestSelect(t *testing.T) {
	t.Parallel()

	t.Run("notifies only when selected slice changes", func(t *testing.T) {
		t.Parallel()

		s := store.New(testState{Count: 0, Name: "a"})

		var got []int
		unsub := store.Select(s,
			func(st testState) int { return st.Count },
			func(count int) { got = append(got, count) },
		)
		defer unsub()

		// Changing an unselected field must not notify.
		s.SetState(func(st testState) testState { st.Name = "b"; return st })
		assert.Empty(t, got)

		s.SetState(func(st testState) testState { st.Count = 1; return st })
		// Same value again: no redundant notification.
		s.SetState(func(st testState) testState { st.Count = 1; return st })
		s.SetState(func(st testState) testState { st.Count = 2; return st })

		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("deep equality on reference types", func(t *testing.T) {
		t.Parallel()

		s := store.New(testState{Tags: []string{"x"}})

		calls := 0
		unsub := store.Select(s,
			func(st testState) []string { return st.Tags },
			func([]string) { calls++ },
		)
		defer unsub()

		// Equal contents in a fresh slice: deep equality suppresses the call.
		s.SetState(func(st testState) testState {
			st.Tags = []string{"x"}
			return st
		})
		assert.Zero(t, calls)

		s.SetState(func(st testState) testState {
			st.Tags = []string{"x", "y"}
			return st
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("immediate initial delivery", func(t *testing.T) {
		t.Parallel()

		s := store.New(testState{Count: 5})

		var got []int
		unsub := store.Select(s,
			func(st testState) int { return st.Count },
			func(count int) { got = append(got, count) },
			store.WithImmediate(),
		)
		defer unsub()

		require.Equal(t, []int{5}, got)

		// Same value after immediate delivery is still suppressed.
		s.SetState(func(st testState) testState { st.Count = 5; return st })
		assert.Equal(t, []int{5}, got)
	})
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := store.New(testState{})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetState(func(st testState) testState {
				st.Count++
				return st
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.GetState()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, s.GetState().Count)
}
