package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreNotifiesOnlyOnChange(t *testing.T) {
	st := NewStore(newState(t))
	var seen []int
	unsubscribe := st.Subscribe(func(prev, next State) {
		assert.Equal(t, prev.Version+1, next.Version)
		seen = append(seen, next.Version)
	})

	st.Dispatch(Tick{})
	st.Dispatch(Pause{})
	st.Dispatch(Play{})
	st.Dispatch(Tick{})

	assert.Equal(t, []int{2, 3}, seen)

	unsubscribe()
	st.Dispatch(Tick{})
	assert.Len(t, seen, 2)
	assert.Equal(t, 4, st.State().Playback.Offset)
}

func TestStoreConcurrentDispatch(t *testing.T) {
	st := NewStore(newState(t))
	st.Dispatch(Play{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(Tick{})
		}()
	}
	wg.Wait()

	s := st.State()
	require.True(t, s.Playback.Playing)
	assert.Equal(t, 100, s.Playback.Offset)
	assert.Equal(t, 52, s.Version)
}

func TestStoreNotifiesInDispatchOrder(t *testing.T) {
	st := NewStore(newState(t))
	st.Dispatch(Play{})

	var mu sync.Mutex
	var seen []int
	st.Subscribe(func(_, next State) {
		mu.Lock()
		seen = append(seen, next.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(Tick{})
		}()
	}
	wg.Wait()

	require.Len(t, seen, 50)
	for i := 1; i < len(seen); i++ {
		assert.Equal(t, seen[i-1]+1, seen[i], "notification %d", i)
	}
}

func TestListenerReadsStateWhileLaterDispatchWaits(t *testing.T) {
	st := NewStore(newState(t))
	start := st.State().Version

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var seen []int
	st.Subscribe(func(_, next State) {
		once.Do(func() {
			close(entered)
			<-release
		})
		cur := st.State()
		mu.Lock()
		seen = append(seen, next.Version)
		mu.Unlock()
		assert.GreaterOrEqual(t, cur.Version, next.Version)
	})

	done := make(chan struct{})
	go func() {
		st.Dispatch(Play{})
		close(done)
	}()
	<-entered

	go st.Dispatch(Tick{})
	require.Eventually(t, func() bool { return st.State().Playback.Offset == 2 }, time.Second, time.Millisecond)
	close(release)
	<-done

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{start + 1, start + 2}, seen)
}
