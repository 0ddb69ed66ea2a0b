package state

import (
	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/playback"
	"ecgrisk/domain/signal"
)

// Action is an input to Reduce. The set is closed; see the types below.
type Action interface {
	apply(State) (State, bool)
	Kind() string
}

// SelectPatient switches to a patient and their freshly generated signal.
type SelectPatient struct {
	ID     core.PatientID
	Signal signal.Signal
}

// SelectModel changes the model whose predictions are displayed.
type SelectModel struct{ Name string }

// ToggleFeature flips one feature flag.
type ToggleFeature struct{ Name string }

// TogglePlay flips Paused and Playing.
type TogglePlay struct{}

// Play enters Playing.
type Play struct{}

// Pause enters Paused.
type Pause struct{}

// ResetPlayback rewinds the scroll offset.
type ResetPlayback struct{}

// Tick is one timer invocation.
type Tick struct{}

// PredictionReceived replaces the previous prediction.
type PredictionReceived struct{ Prediction model.Prediction }

// Regenerate swaps in a new signal for the current patient.
type Regenerate struct{ Signal signal.Signal }

func (SelectPatient) Kind() string      { return "select_patient" }
func (SelectModel) Kind() string        { return "select_model" }
func (ToggleFeature) Kind() string      { return "toggle_feature" }
func (TogglePlay) Kind() string         { return "toggle_play" }
func (Play) Kind() string               { return "play" }
func (Pause) Kind() string              { return "pause" }
func (ResetPlayback) Kind() string      { return "reset" }
func (Tick) Kind() string               { return "tick" }
func (PredictionReceived) Kind() string { return "prediction" }
func (Regenerate) Kind() string         { return "regenerate" }

// Reduce applies an action and bumps Version when anything changed.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	next, changed := a.apply(s)
	if changed {
		next.Version = s.Version + 1
	}
	return next
}

// ReduceAll folds a sequence of actions.
func ReduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func (a SelectPatient) apply(s State) (State, bool) {
	s.SelectedPatient = a.ID
	s = swapSignal(s, a.Signal)
	s.Prediction = nil
	return s, true
}

func (a Regenerate) apply(s State) (State, bool) {
	return swapSignal(s, a.Signal), true
}

func swapSignal(s State, sig signal.Signal) State {
	s.Signal = sig
	s.Geometry = playback.NewGeometry(sig.Len(), s.WindowSize)
	s.Playback = s.Playback.Reset()
	return s
}

func (a SelectModel) apply(s State) (State, bool) {
	if a.Name == "" || a.Name == s.SelectedModel {
		return s, false
	}
	s.SelectedModel = a.Name
	s.Prediction = nil
	return s, true
}

func (a ToggleFeature) apply(s State) (State, bool) {
	if a.Name == "" {
		return s, false
	}
	features := copyFeatures(s.Features)
	features[a.Name] = !features[a.Name]
	return s.withFeatures(features), true
}

func (TogglePlay) apply(s State) (State, bool) {
	s.Playback = s.Playback.Toggle()
	return s, true
}

func (Play) apply(s State) (State, bool) {
	if s.Playback.Playing {
		return s, false
	}
	s.Playback = s.Playback.Play()
	return s, true
}

func (Pause) apply(s State) (State, bool) {
	if !s.Playback.Playing {
		return s, false
	}
	s.Playback = s.Playback.Pause()
	return s, true
}

func (ResetPlayback) apply(s State) (State, bool) {
	if s.Playback.Offset == 0 {
		return s, false
	}
	s.Playback = s.Playback.Reset()
	return s, true
}

func (Tick) apply(s State) (State, bool) {
	if !s.Playback.Playing {
		return s, false
	}
	next := s.Playback.Advance(s.Geometry, s.Step)
	if next == s.Playback {
		return s, false
	}
	s.Playback = next
	return s, true
}

func (a PredictionReceived) apply(s State) (State, bool) {
	p := a.Prediction
	s.Prediction = &p
	return s, true
}
