package interval

import (
	"sync"
	"time"
)

// Manual is a hand-driven ticker source. Each Tick is delivered to the most
// recently created ticker that has not been stopped.
type Manual struct {
	mu      sync.Mutex
	tickers []*manualTicker
	now     time.Time
}

// NewManual returns a source whose clock starts at the Unix epoch.
func NewManual() *Manual {
	return &Manual{now: time.Unix(0, 0)}
}

type manualTicker struct {
	d       time.Duration
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *manualTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// Factory returns a TickerFactory bound to m.
func (m *Manual) Factory() TickerFactory {
	return func(d time.Duration) Ticker {
		t := &manualTicker{d: d, ch: make(chan time.Time), stopped: make(chan struct{})}
		m.mu.Lock()
		m.tickers = append(m.tickers, t)
		m.mu.Unlock()
		return t
	}
}

// Created returns how many tickers the factory has handed out.
func (m *Manual) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

// Tick advances the clock by the live ticker's period and delivers one tick.
// It blocks until the interval loop receives it and reports false when no
// live ticker exists or the ticker is stopped before receiving.
func (m *Manual) Tick() bool {
	m.mu.Lock()
	var live *manualTicker
	for i := len(m.tickers) - 1; i >= 0; i-- {
		if !m.tickers[i].isStopped() {
			live = m.tickers[i]
			break
		}
	}
	if live == nil {
		m.mu.Unlock()
		return false
	}
	m.now = m.now.Add(live.d)
	now := m.now
	m.mu.Unlock()

	select {
	case live.ch <- now:
		return true
	case <-live.stopped:
		return false
	}
}
