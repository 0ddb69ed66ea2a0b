package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ecgrisk/adapters/surface/braille"
	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/patient"
	"ecgrisk/domain/signal"
	"ecgrisk/domain/state"
	"ecgrisk/internal/config"
	"ecgrisk/internal/interval"
	"ecgrisk/internal/player"
	"ecgrisk/ports"
)

const waveRows = 10

type styles struct {
	title  lipgloss.Style
	panel  lipgloss.Style
	wave   lipgloss.Style
	dim    lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	status lipgloss.Style
}

func newStyles() styles {
	brand := lipgloss.AdaptiveColor{Light: "26", Dark: "81"}
	subtle := lipgloss.AdaptiveColor{Light: "245", Dark: "244"}
	border := lipgloss.AdaptiveColor{Light: "250", Dark: "238"}
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(brand),
		panel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1),
		wave:   lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		dim:    lipgloss.NewStyle().Foreground(subtle),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		status: lipgloss.NewStyle().Foreground(subtle).Italic(true),
	}
}

type tickMsg time.Time
type predictTickMsg time.Time
type predictionMsg struct {
	pred model.Prediction
	err  error
}

// tuiModel plays one lead in the terminal. The player's own loop never
// fires; scroll ticks come from the bubbletea runtime so every dispatch
// happens on the update goroutine.
type tuiModel struct {
	cfg       *config.Config
	predictor ports.Predictor
	player    *player.Player
	patients  []patient.Patient
	models    []model.Comparison
	patient   int
	model     int
	width     int
	status    string
	st        styles
}

func newModel(cfg *config.Config, predictor ports.Predictor) *tuiModel {
	m := &tuiModel{
		cfg:       cfg,
		predictor: predictor,
		patients:  patient.Catalog(),
		models:    model.Comparisons(),
		width:     80,
		st:        newStyles(),
	}
	for i, c := range m.models {
		if c.Name == model.DefaultModel {
			m.model = i
		}
	}

	initial := state.Initial(core.NewSessionID(), signal.Signal{}, cfg.Signal.WindowLength, cfg.Signal.TickStep)
	m.player = player.New(initial, player.WithTicker(interval.NewManual().Factory()))
	m.selectPatient(0)
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.predictTick(), m.predict())
}

func (m *tuiModel) tick() tea.Cmd {
	return tea.Tick(m.cfg.Signal.TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *tuiModel) predictTick() tea.Cmd {
	return tea.Tick(m.cfg.Predictor.Interval, func(t time.Time) tea.Msg { return predictTickMsg(t) })
}

func (m *tuiModel) predict() tea.Cmd {
	st := m.player.State()
	predictor, timeout := m.predictor, m.cfg.Predictor.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		pred, err := predictor.Predict(ctx, st.SelectedModel, st.Signal)
		return predictionMsg{pred: pred, err: err}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		if m.player.State().Playback.Playing {
			m.player.Tick()
		}
		return m, m.tick()
	case predictTickMsg:
		return m, tea.Batch(m.predictTick(), m.predict())
	case predictionMsg:
		if msg.err != nil {
			m.status = "prediction failed: " + msg.err.Error()
			return m, nil
		}
		m.player.SetPrediction(msg.pred)
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *tuiModel) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case " ":
		m.player.Toggle()
	case "r":
		m.player.Reset()
	case "n":
		m.selectPatient((m.patient + 1) % len(m.patients))
		return m.predict()
	case "m":
		m.model = (m.model + 1) % len(m.models)
		m.player.SelectModel(m.models[m.model].Name)
		return m.predict()
	case "g":
		m.player.ToggleFeature(state.FeatureGrid)
	case "h":
		m.player.ToggleFeature(state.FeatureHeartRate)
	case "p":
		return m.predict()
	}
	return nil
}

func (m *tuiModel) selectPatient(i int) {
	m.patient = i
	p := m.patients[i]
	m.player.SelectPatient(p.ID, signal.Synthesize(m.cfg.Signal.Length, p.SignalSeed))
	m.status = fmt.Sprintf("loaded %s", p.ID)
}

// canvas renders the visible window at the current terminal width.
func (m *tuiModel) canvas() *braille.Canvas {
	cols := m.width - 4
	if cols < 10 {
		cols = 10
	}
	c := braille.New(cols, waveRows)
	m.player.RenderTo(c)
	return c
}

func (m *tuiModel) View() string {
	st := m.player.State()
	f := m.player.Frame()
	p := m.patients[m.patient]

	mode := m.st.dim.Render(st.Playback.Mode())
	if st.Playback.Playing {
		mode = m.st.ok.Render(st.Playback.Mode())
	}
	header := fmt.Sprintf("%s  %s  %s  model %s  offset %d/%d",
		m.st.title.Render("ECG risk"), mode, p.Name, st.SelectedModel, st.Playback.Offset, st.Geometry.Span())

	rows := m.canvas().Rows()
	for i := range rows {
		rows[i] = m.st.wave.Render(rows[i])
	}

	var info []string
	if st.Enabled(state.FeatureHeartRate) {
		info = append(info, fmt.Sprintf("HR %d bpm", f.HeartRate))
	}
	info = append(info, fmt.Sprintf("LVEF %.0f%% (%s)", p.LVEF, p.Label))
	if f.Prediction != nil {
		label := m.st.ok.Render(f.Prediction.Label)
		if f.Prediction.Value >= model.RiskThreshold {
			label = m.st.warn.Render(f.Prediction.Label)
		}
		info = append(info, fmt.Sprintf("risk %.2f %s (conf %.2f)", f.Prediction.Value, label, f.Prediction.Confidence))
	}

	help := m.st.dim.Render("space play/pause · r reset · n patient · m model · g grid · h heart rate · p predict · q quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.st.panel.Render(strings.Join(rows, "\n")),
		strings.Join(info, "   "),
		m.st.status.Render(m.status),
		help,
	)
}
