package state

import "sync"

// Listener observes a state after a change.
type Listener func(prev, next State)

// Store serializes actions through Reduce and fans changes out to listeners.
// Listeners run on the dispatching goroutine with no lock held, one change at
// a time and in dispatch order. A listener may read State but must not
// dispatch.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
	issued    uint64

	turnMu   sync.Mutex
	turnCond *sync.Cond
	turn     uint64
}

// NewStore creates a store holding initial.
func NewStore(initial State) *Store {
	st := &Store{state: initial, listeners: make(map[int]Listener)}
	st.turnCond = sync.NewCond(&st.turnMu)
	return st
}

// State returns the current state.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Dispatch applies actions in order and returns the resulting state.
// Listeners are notified once when the batch changed anything.
func (st *Store) Dispatch(actions ...Action) State {
	st.mu.Lock()
	prev := st.state
	next := ReduceAll(prev, actions...)
	st.state = next
	if next.Version == prev.Version {
		st.mu.Unlock()
		return next
	}
	ls := make([]Listener, 0, len(st.listeners))
	for _, l := range st.listeners {
		ls = append(ls, l)
	}
	ticket := st.issued
	st.issued++
	st.mu.Unlock()

	st.turnMu.Lock()
	for st.turn != ticket {
		st.turnCond.Wait()
	}
	st.turnMu.Unlock()

	defer func() {
		st.turnMu.Lock()
		st.turn++
		st.turnCond.Broadcast()
		st.turnMu.Unlock()
	}()
	for _, l := range ls {
		l(prev, next)
	}
	return next
}

// Subscribe registers l and returns a function that removes it.
func (st *Store) Subscribe(l Listener) func() {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	st.listeners[id] = l
	return func() {
		st.mu.Lock()
		delete(st.listeners, id)
		st.mu.Unlock()
	}
}
