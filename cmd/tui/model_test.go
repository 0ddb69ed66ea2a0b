package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"
	"ecgrisk/internal/config"
	"ecgrisk/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedPredictor(value float64, err error) ports.Predictor {
	return ports.PredictorFunc(func(_ context.Context, name string, _ signal.Signal) (model.Prediction, error) {
		if err != nil {
			return model.Prediction{}, err
		}
		return model.Prediction{Value: value, Confidence: 0.9, Label: model.LabelFor(value), Model: name}, nil
	})
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTUIPlaybackKeys(t *testing.T) {
	m := newModel(config.Default(), fixedPredictor(0.2, nil))
	defer m.player.Close()
	assert.Equal(t, core.PatientID("pt-001"), m.player.State().SelectedPatient)

	// ticks while paused do nothing
	m.Update(tickMsg{})
	assert.Equal(t, 0, m.player.State().Playback.Offset)

	m.Update(key(" "))
	for i := 0; i < 10; i++ {
		m.Update(tickMsg{})
	}
	assert.Equal(t, 20, m.player.State().Playback.Offset)

	m.Update(key("r"))
	assert.Equal(t, 0, m.player.State().Playback.Offset)
	assert.True(t, m.player.State().Playback.Playing)

	m.Update(key("n"))
	assert.Equal(t, core.PatientID("pt-002"), m.player.State().SelectedPatient)

	m.Update(key("m"))
	assert.NotEqual(t, model.DefaultModel, m.player.State().SelectedModel)
}

func TestTUIPredictionAndView(t *testing.T) {
	m := newModel(config.Default(), fixedPredictor(0.8, nil))
	defer m.player.Close()
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 24})

	msg := m.predict()()
	m.Update(msg)
	require.NotNil(t, m.player.State().Prediction)

	view := m.View()
	assert.Contains(t, view, "risk 0.80")
	assert.Contains(t, view, "Case A")
	assert.Contains(t, view, "HR ")

	m.Update(key("h"))
	assert.False(t, strings.Contains(m.View(), "HR "))
}

func TestTUIPredictionFailure(t *testing.T) {
	m := newModel(config.Default(), fixedPredictor(0, errors.New("offline")))
	defer m.player.Close()

	m.Update(m.predict()())
	assert.Nil(t, m.player.State().Prediction)
	assert.Contains(t, m.status, "offline")
}

func TestTUIQuit(t *testing.T) {
	m := newModel(config.Default(), fixedPredictor(0.1, nil))
	defer m.player.Close()
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
