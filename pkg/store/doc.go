// Package store provides a minimal reactive state container used by the
// feed client to expose its cache to consumers.
//
// A Store holds a single immutable state value, supports atomic replacement
// through SetState, and notifies subscribers synchronously on every change.
// The package-level Select function layers selector-based subscriptions on
// top: a subscriber receives only the derived slice it asked for, and only
// when that slice actually changes.
//
// # Usage
//
//	s := store.New(State{Count: 0})
//
//	unsub := s.Subscribe(func(st State) {
//	    fmt.Println("count:", st.Count)
//	})
//	defer unsub()
//
//	s.SetState(func(st State) State {
//	    st.Count++
//	    return st
//	})
//
// Selector subscriptions skip notifications when the selected value is
// unchanged:
//
//	store.Select(s,
//	    func(st State) int { return st.Count },
//	    func(count int) { fmt.Println("count changed:", count) },
//	    store.WithImmediate(),
//	)
//
// Any observer implementation satisfying the same getState/subscribe/setState
// contract is interchangeable with this one; no external reactive library is
// required.
package store
