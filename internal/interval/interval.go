// Package interval runs a callback on a fixed cadence. It is the scheduling
// primitive behind the waveform scroll loop and the prediction feed.
package interval

import (
	"sync"
	"time"
)

// Delay is an optional cadence. The zero value is Inactive.
type Delay struct {
	d      time.Duration
	active bool
}

// Inactive is the null delay: no invocations happen while it is set.
var Inactive = Delay{}

// Every returns an active delay; non-positive durations are Inactive.
func Every(d time.Duration) Delay {
	if d <= 0 {
		return Inactive
	}
	return Delay{d: d, active: true}
}

// Active reports whether the delay schedules invocations.
func (d Delay) Active() bool { return d.active }

// Duration returns the cadence, or 0 when inactive.
func (d Delay) Duration() time.Duration { return d.d }

func (d Delay) String() string {
	if !d.active {
		return "inactive"
	}
	return d.d.String()
}

// Ticker is the part of time.Ticker the loop uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// SystemTicker wraps time.NewTicker.
func SystemTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Option configures an Interval.
type Option func(*Interval)

// WithTicker replaces the ticker source, mostly for tests.
func WithTicker(f TickerFactory) Option {
	return func(iv *Interval) {
		if f != nil {
			iv.newTicker = f
		}
	}
}

// Interval invokes the most recently set callback every delay until the
// delay becomes Inactive or Stop is called. Invocations are serialized on a
// single goroutine per active period; a callback already running when the
// interval is stopped runs to completion, but no new one starts.
type Interval struct {
	mu        sync.Mutex
	callback  func()
	delay     Delay
	newTicker TickerFactory
	gen       uint64
	quit      chan struct{}
	ticker    Ticker
	stopped   bool
}

// New creates and, when delay is active, starts an interval.
func New(callback func(), delay Delay, opts ...Option) *Interval {
	iv := &Interval{
		callback:  callback,
		newTicker: SystemTicker,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(iv)
		}
	}
	iv.SetDelay(delay)
	return iv
}

// SetCallback swaps the callback; the next tick calls the new one.
func (iv *Interval) SetCallback(callback func()) {
	iv.mu.Lock()
	iv.callback = callback
	iv.mu.Unlock()
}

// Delay returns the current cadence.
func (iv *Interval) Delay() Delay {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.delay
}

// SetDelay changes the cadence. Setting the same active delay again keeps the
// running ticker; any other change restarts or cancels it.
func (iv *Interval) SetDelay(delay Delay) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if iv.stopped {
		return
	}
	if delay == iv.delay && (iv.quit != nil || !delay.active) {
		return
	}

	iv.cancelLocked()
	iv.delay = delay
	if !delay.active {
		return
	}

	iv.gen++
	quit := make(chan struct{})
	iv.quit = quit
	iv.ticker = iv.newTicker(delay.d)
	go iv.loop(iv.ticker, iv.gen, quit)
}

// Stop cancels the interval permanently.
func (iv *Interval) Stop() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.cancelLocked()
	iv.delay = Inactive
	iv.stopped = true
}

// Running reports whether a ticker is currently scheduled.
func (iv *Interval) Running() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.quit != nil
}

// cancelLocked stops the ticker before returning, so no tick is delivered
// after SetDelay(Inactive) or Stop.
func (iv *Interval) cancelLocked() {
	if iv.ticker != nil {
		iv.ticker.Stop()
		iv.ticker = nil
	}
	if iv.quit != nil {
		close(iv.quit)
		iv.quit = nil
	}
	iv.gen++
}

func (iv *Interval) loop(t Ticker, gen uint64, quit <-chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-quit:
			return
		case <-t.C():
			iv.mu.Lock()
			if iv.gen != gen {
				iv.mu.Unlock()
				return
			}
			cb := iv.callback
			iv.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	}
}
