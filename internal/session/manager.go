// Package session owns the live dashboard sessions. Each session is a player
// plus a prediction feed; snapshots of its state are persisted so a browser
// that reconnects with the same ID resumes where it left off.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"ecgrisk/domain/core"
	"ecgrisk/domain/patient"
	"ecgrisk/domain/signal"
	"ecgrisk/domain/state"
	"ecgrisk/internal/config"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/interval"
	"ecgrisk/internal/player"
	"ecgrisk/internal/predict"
	"ecgrisk/internal/render"
	"ecgrisk/ports"
)

// Settings are the per-session defaults.
type Settings struct {
	SignalLength    int
	WindowLength    int
	Step            int
	TickInterval    time.Duration
	PredictInterval time.Duration
	PredictTimeout  time.Duration
	Waveform        render.WaveformOptions
}

// SettingsFromConfig maps application config onto session settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	opts := render.DefaultWaveformOptions()
	opts.Width = cfg.Render.Width
	opts.Height = cfg.Render.Height
	if c, err := config.ParseHexColor(cfg.Render.StrokeColor); err == nil {
		opts.Color = c
	}
	return Settings{
		SignalLength:    cfg.Signal.Length,
		WindowLength:    cfg.Signal.WindowLength,
		Step:            cfg.Signal.TickStep,
		TickInterval:    cfg.Signal.TickInterval,
		PredictInterval: cfg.Predictor.Interval,
		PredictTimeout:  cfg.Predictor.Timeout,
		Waveform:        opts,
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublisher forwards every session's frames.
func WithPublisher(pub ports.FramePublisher) Option {
	return func(m *Manager) { m.publisher = pub }
}

// WithTickers injects the ticker sources of the scroll loop and the feed.
func WithTickers(scroll, feed interval.TickerFactory) Option {
	return func(m *Manager) {
		m.scrollTickers = scroll
		m.feedTickers = feed
	}
}

// WithOnClose runs fn after a session is closed.
func WithOnClose(fn func(core.SessionID)) Option {
	return func(m *Manager) { m.onClose = fn }
}

// Session is one live dashboard.
type Session struct {
	ID        core.SessionID
	Player    *player.Player
	Feed      *predict.Feed
	CreatedAt time.Time

	unsubscribe func()
}

// Manager is safe for concurrent use.
type Manager struct {
	patients  ports.PatientRepository
	states    ports.UIStateRepository
	predictor ports.Predictor
	publisher ports.FramePublisher
	settings  Settings

	scrollTickers interval.TickerFactory
	feedTickers   interval.TickerFactory

	writer  *snapshotWriter
	onClose func(core.SessionID)

	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
}

// NewManager wires the repositories and predictor used by every session.
func NewManager(patients ports.PatientRepository, states ports.UIStateRepository, predictor ports.Predictor, settings Settings, opts ...Option) *Manager {
	m := &Manager{
		patients:  patients,
		states:    states,
		predictor: predictor,
		settings:  settings,
		sessions:  make(map[core.SessionID]*Session),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.writer = newSnapshotWriter(states, settings.PredictTimeout)
	return m
}

// Settings returns the session defaults.
func (m *Manager) Settings() Settings { return m.settings }

// Create starts a new session on patientID, or on the first catalog case
// when patientID is empty.
func (m *Manager) Create(ctx context.Context, patientID core.PatientID) (*Session, error) {
	p, err := m.resolvePatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	initial := state.Initial(core.NewSessionID(), m.signalFor(p), m.settings.WindowLength, m.settings.Step)
	initial.SelectedPatient = p.ID
	s := m.start(initial)

	log.Printf("[Session] Created %s on patient %s", s.ID, p.ID)
	return s, nil
}

// Get returns a live session, restoring it from its snapshot when the process
// has restarted since the client last saw it.
func (m *Manager) Get(ctx context.Context, id core.SessionID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	snap, err := m.states.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load session %s", id)
	}
	if snap == nil {
		return nil, errors.NotFound("session")
	}
	p, err := m.resolvePatient(ctx, snap.Patient)
	if err != nil {
		return nil, err
	}
	snap.Patient = p.ID

	// a snapshot never resumes mid-scroll; the viewer presses play again
	snap.Playback.Playing = false
	s = m.start(state.Restore(*snap, m.signalFor(p)))
	log.Printf("[Session] Restored %s at offset %d", id, s.Player.State().Playback.Offset)
	return s, nil
}

// SelectPatient swaps the session's case and regenerates its signal.
func (m *Manager) SelectPatient(ctx context.Context, id core.SessionID, patientID core.PatientID) (state.State, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return state.State{}, err
	}
	p, err := m.patients.Get(ctx, patientID)
	if err != nil {
		return state.State{}, err
	}
	return s.Player.SelectPatient(p.ID, m.signalFor(p)), nil
}

// Regenerate replaces the session's signal with a fresh synthesis for seed.
func (m *Manager) Regenerate(ctx context.Context, id core.SessionID, seed int64) (state.State, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return state.State{}, err
	}
	return s.Player.Regenerate(signal.Synthesize(m.settings.SignalLength, seed)), nil
}

// Close stops a session and forgets its snapshot.
func (m *Manager) Close(ctx context.Context, id core.SessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return errors.NotFound("session")
	}

	s.stop()
	if err := m.writer.remove(ctx, id); err != nil {
		return errors.Wrapf(err, "failed to delete snapshot for %s", id)
	}
	if m.onClose != nil {
		m.onClose(id)
	}
	log.Printf("[Session] Closed %s", id)
	return nil
}

// List returns the IDs of live sessions.
func (m *Manager) List() []core.SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.SessionID, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	return out
}

// Flush writes pending snapshots now.
func (m *Manager) Flush(ctx context.Context) error {
	return m.writer.flush(ctx)
}

// Shutdown stops every session and persists their last state.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	live := m.sessions
	m.sessions = make(map[core.SessionID]*Session)
	m.mu.Unlock()

	for _, s := range live {
		s.stop()
		st := s.Player.State()
		m.writer.enqueue(state.Snap(st, time.Now()))
	}
	log.Printf("[Session] Shut down %d sessions", len(live))
	return m.writer.close(ctx)
}

func (m *Manager) start(initial state.State) *Session {
	popts := []player.Option{
		player.WithRenderer(render.NewWaveform(m.settings.Waveform)),
		player.WithTickInterval(m.settings.TickInterval),
	}
	if m.scrollTickers != nil {
		popts = append(popts, player.WithTicker(m.scrollTickers))
	}
	if m.publisher != nil {
		popts = append(popts, player.WithPublisher(m.publisher))
	}
	pl := player.New(initial, popts...)

	fopts := []predict.FeedOption{predict.WithTimeout(m.settings.PredictTimeout)}
	if m.feedTickers != nil {
		fopts = append(fopts, predict.WithFeedTicker(m.feedTickers))
	}
	feed := predict.NewFeed(m.predictor, pl, m.settings.PredictInterval, fopts...)

	s := &Session{ID: initial.SessionID, Player: pl, Feed: feed, CreatedAt: time.Now()}
	s.unsubscribe = pl.Subscribe(func(ports.Frame) {
		m.writer.enqueue(state.Snap(pl.State(), time.Now()))
	})

	m.mu.Lock()
	if existing, ok := m.sessions[s.ID]; ok {
		m.mu.Unlock()
		s.stop()
		return existing
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.writer.enqueue(state.Snap(initial, time.Now()))
	feed.Start()
	return s
}

func (m *Manager) resolvePatient(ctx context.Context, id core.PatientID) (*patient.Patient, error) {
	if id != "" {
		return m.patients.Get(ctx, id)
	}
	all, err := m.patients.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list patients")
	}
	if len(all) == 0 {
		return nil, errors.NotFound("patient")
	}
	return &all[0], nil
}

// signalFor regenerates a patient's lead from its seed.
func (m *Manager) signalFor(p *patient.Patient) signal.Signal {
	return signal.Synthesize(m.settings.SignalLength, p.SignalSeed)
}

func (s *Session) stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Feed.Stop()
	s.Player.Close()
}
