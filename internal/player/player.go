// Package player drives one dashboard session: it owns the session store,
// schedules the scroll loop while playing and redraws the attached surface
// after every state change.
package player

import (
	"context"
	"log"
	"sync"
	"time"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"
	"ecgrisk/domain/state"
	"ecgrisk/internal/interval"
	"ecgrisk/internal/render"
	"ecgrisk/ports"
)

// DefaultTickInterval is the redraw cadence while playing.
const DefaultTickInterval = 50 * time.Millisecond

// HeartRateThreshold is the R-peak threshold used for the BPM readout.
const HeartRateThreshold = 0.6

// Option configures a Player.
type Option func(*Player)

// WithSurface attaches the initial drawing surface.
func WithSurface(s ports.Surface) Option {
	return func(p *Player) { p.surface = s }
}

// WithRenderer replaces the default waveform renderer.
func WithRenderer(w *render.Waveform) Option {
	return func(p *Player) {
		if w != nil {
			p.renderer = w
		}
	}
}

// WithTickInterval sets the scroll cadence.
func WithTickInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.tickEvery = d
		}
	}
}

// WithTicker injects the ticker source of the scroll loop.
func WithTicker(f interval.TickerFactory) Option {
	return func(p *Player) { p.tickers = f }
}

// WithPublisher forwards every frame to an external publisher.
func WithPublisher(pub ports.FramePublisher) Option {
	return func(p *Player) { p.publisher = pub }
}

// WithClock overrides time.Now for frame timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Player) {
		if now != nil {
			p.now = now
		}
	}
}

// Player is safe for concurrent use. HTTP handlers and the scroll loop both
// go through the same store.
type Player struct {
	store     *state.Store
	renderer  *render.Waveform
	tickEvery time.Duration
	tickers   interval.TickerFactory
	publisher ports.FramePublisher
	now       func() time.Time

	drawMu  sync.Mutex
	surface ports.Surface

	subMu  sync.Mutex
	subs   map[int]func(ports.Frame)
	nextID int

	loop        *interval.Interval
	unsubscribe func()
}

// New creates a paused player around initial.
func New(initial state.State, opts ...Option) *Player {
	p := &Player{
		store:     state.NewStore(initial),
		renderer:  render.NewWaveform(render.DefaultWaveformOptions()),
		tickEvery: DefaultTickInterval,
		now:       time.Now,
		subs:      make(map[int]func(ports.Frame)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	var ivOpts []interval.Option
	if p.tickers != nil {
		ivOpts = append(ivOpts, interval.WithTicker(p.tickers))
	}
	p.loop = interval.New(p.Tick, interval.Inactive, ivOpts...)
	p.unsubscribe = p.store.Subscribe(p.onChange)
	p.syncLoop(initial)
	p.Redraw()
	return p
}

// SessionID identifies the session this player drives.
func (p *Player) SessionID() core.SessionID { return p.store.State().SessionID }

// State returns the current session state.
func (p *Player) State() state.State { return p.store.State() }

// Dispatch applies actions through the reducer.
func (p *Player) Dispatch(actions ...state.Action) state.State {
	return p.store.Dispatch(actions...)
}

// Toggle flips between Playing and Paused.
func (p *Player) Toggle() state.State { return p.Dispatch(state.TogglePlay{}) }

// Play starts scrolling.
func (p *Player) Play() state.State { return p.Dispatch(state.Play{}) }

// Pause freezes the window where it is.
func (p *Player) Pause() state.State { return p.Dispatch(state.Pause{}) }

// Reset rewinds to offset 0 without changing the mode.
func (p *Player) Reset() state.State { return p.Dispatch(state.ResetPlayback{}) }

// Tick advances one step. It is the scroll loop's callback.
func (p *Player) Tick() { p.Dispatch(state.Tick{}) }

// SelectPatient swaps in a patient's signal and rewinds.
func (p *Player) SelectPatient(id core.PatientID, sig signal.Signal) state.State {
	return p.Dispatch(state.SelectPatient{ID: id, Signal: sig})
}

// SelectModel switches the model used for predictions.
func (p *Player) SelectModel(name string) state.State {
	return p.Dispatch(state.SelectModel{Name: name})
}

// ToggleFeature flips a feature flag.
func (p *Player) ToggleFeature(name string) state.State {
	return p.Dispatch(state.ToggleFeature{Name: name})
}

// Regenerate replaces the signal and rewinds.
func (p *Player) Regenerate(sig signal.Signal) state.State {
	return p.Dispatch(state.Regenerate{Signal: sig})
}

// SetPrediction replaces the last prediction.
func (p *Player) SetPrediction(pred model.Prediction) state.State {
	return p.Dispatch(state.PredictionReceived{Prediction: pred})
}

// Attach swaps the drawing surface and redraws. A nil surface detaches.
func (p *Player) Attach(s ports.Surface) {
	p.drawMu.Lock()
	p.surface = s
	p.drawMu.Unlock()
	p.Redraw()
}

// Redraw paints the current window to the attached surface.
func (p *Player) Redraw() {
	s := p.store.State()
	p.drawMu.Lock()
	defer p.drawMu.Unlock()
	if render.Detached(p.surface) {
		return
	}
	p.renderer.WithGrid(s.Enabled(state.FeatureGrid)).RenderWindow(p.surface, state.Window(s))
}

// RenderTo paints the current window onto s without attaching it.
func (p *Player) RenderTo(s ports.Surface) {
	st := p.store.State()
	p.renderer.WithGrid(st.Enabled(state.FeatureGrid)).RenderWindow(s, state.Window(st))
}

// Frame projects the current state for subscribers.
func (p *Player) Frame() ports.Frame {
	return p.frame(p.store.State())
}

// View returns one state snapshot together with the frame derived from it.
func (p *Player) View() (state.State, ports.Frame) {
	s := p.store.State()
	return s, p.frame(s)
}

func (p *Player) frame(s state.State) ports.Frame {
	f := ports.Frame{
		SessionID: s.SessionID,
		Start:     s.WindowStart(),
		Window:    state.Window(s),
		Playing:   s.Playback.Playing,
		Offset:    s.Playback.Offset,
		Version:   s.Version,
		At:        p.now(),
	}
	if s.Enabled(state.FeatureHeartRate) {
		f.HeartRate = signal.HeartRate(signal.New(f.Window, s.Signal.SampleRate()), HeartRateThreshold)
	}
	if s.Enabled(state.FeaturePrediction) && s.Prediction != nil {
		pred := *s.Prediction
		f.Prediction = &pred
	}
	return f
}

// Subscribe receives a frame after every state change. The callback runs on
// the dispatching goroutine and must not block.
func (p *Player) Subscribe(fn func(ports.Frame)) func() {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

// Playing reports whether the scroll loop is scheduled.
func (p *Player) Playing() bool { return p.loop.Running() }

// Close stops the scroll loop and detaches from the store.
func (p *Player) Close() {
	p.loop.Stop()
	p.unsubscribe()
}

func (p *Player) onChange(prev, next state.State) {
	if prev.Playback.Playing != next.Playback.Playing {
		p.syncLoop(p.store.State())
	}
	p.Redraw()

	f := p.frame(next)
	p.subMu.Lock()
	subs := make([]func(ports.Frame), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.subMu.Unlock()
	for _, fn := range subs {
		fn(f)
	}

	if p.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := p.publisher.PublishFrame(ctx, f); err != nil {
			log.Printf("[Player] Failed to publish frame for session %s: %v", f.SessionID, err)
		}
		if next.Prediction != nil && next.Prediction != prev.Prediction {
			if err := p.publisher.PublishPrediction(ctx, next.SessionID, *next.Prediction); err != nil {
				log.Printf("[Player] Failed to publish prediction for session %s: %v", f.SessionID, err)
			}
		}
		cancel()
	}
}

func (p *Player) syncLoop(s state.State) {
	if s.Playback.Playing {
		p.loop.SetDelay(interval.Every(p.tickEvery))
		return
	}
	p.loop.SetDelay(interval.Inactive)
}
