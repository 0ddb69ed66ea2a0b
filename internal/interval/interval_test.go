package interval

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
		return ""
	}
}

func TestInactiveNeverInvokes(t *testing.T) {
	var calls atomic.Int32
	manual := NewManual()

	iv := New(func() { calls.Add(1) }, Inactive, WithTicker(manual.Factory()))
	defer iv.Stop()

	assert.False(t, manual.Tick())
	assert.Equal(t, 0, manual.Created())
	assert.False(t, iv.Running())

	sys := New(func() { calls.Add(1) }, Inactive)
	defer sys.Stop()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, int32(0), calls.Load())
}

func TestInvokesLatestCallback(t *testing.T) {
	calls := make(chan string, 4)
	manual := NewManual()

	iv := New(func() { calls <- "first" }, Every(50*time.Millisecond), WithTicker(manual.Factory()))
	defer iv.Stop()

	require.True(t, manual.Tick())
	assert.Equal(t, "first", recv(t, calls))

	iv.SetCallback(func() { calls <- "second" })
	require.True(t, manual.Tick())
	assert.Equal(t, "second", recv(t, calls))
	assert.Empty(t, calls)
}

func TestSetInactiveCancels(t *testing.T) {
	var calls atomic.Int32
	manual := NewManual()

	iv := New(func() { calls.Add(1) }, Every(50*time.Millisecond), WithTicker(manual.Factory()))
	defer iv.Stop()
	require.True(t, manual.Tick())
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	iv.SetDelay(Inactive)
	assert.False(t, iv.Running())
	manual.Tick()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	iv.SetDelay(Every(50 * time.Millisecond))
	require.True(t, manual.Tick())
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 2, manual.Created())
}

func TestSameDelayKeepsTicker(t *testing.T) {
	manual := NewManual()
	iv := New(func() {}, Every(time.Second), WithTicker(manual.Factory()))
	defer iv.Stop()

	iv.SetDelay(Every(time.Second))
	assert.Equal(t, 1, manual.Created())

	iv.SetDelay(Every(2 * time.Second))
	assert.Equal(t, 2, manual.Created())
	assert.Equal(t, 2*time.Second, iv.Delay().Duration())
}

func TestStopIsPermanent(t *testing.T) {
	var calls atomic.Int32
	manual := NewManual()

	iv := New(func() { calls.Add(1) }, Every(time.Second), WithTicker(manual.Factory()))
	iv.Stop()
	iv.SetDelay(Every(time.Second))

	assert.False(t, iv.Running())
	assert.False(t, manual.Tick())
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, "inactive", iv.Delay().String())
}

func TestCancelStopsTickerBeforeReturning(t *testing.T) {
	tests := []struct {
		name   string
		cancel func(iv *Interval)
	}{
		{"stop", func(iv *Interval) { iv.Stop() }},
		{"inactive", func(iv *Interval) { iv.SetDelay(Inactive) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				var calls atomic.Int32
				manual := NewManual()
				iv := New(func() { calls.Add(1) }, Every(time.Second), WithTicker(manual.Factory()))

				tt.cancel(iv)

				require.False(t, manual.Tick(), "iteration %d", i)
				require.Equal(t, int32(0), calls.Load())
				iv.Stop()
			}
		})
	}
}

func TestSystemTickerFiresRepeatedly(t *testing.T) {
	var calls atomic.Int32
	iv := New(func() { calls.Add(1) }, Every(5*time.Millisecond))
	defer iv.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
}

func TestEveryNonPositiveIsInactive(t *testing.T) {
	assert.False(t, Every(0).Active())
	assert.False(t, Every(-time.Second).Active())
	assert.True(t, Every(time.Millisecond).Active())
}
