package state

import (
	"sort"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/playback"
	"ecgrisk/domain/signal"
)

// Feature flags a session can toggle.
const (
	FeatureGrid       = "grid"
	FeatureHeartRate  = "heart_rate"
	FeaturePrediction = "prediction"
)

// KnownFeatures lists the toggles the dashboard exposes.
var KnownFeatures = []string{FeatureGrid, FeatureHeartRate, FeaturePrediction}

// State is the complete application state of one dashboard session.
// Treat it as a value: Reduce returns new States and never writes into the
// one it was given, including the Features map.
type State struct {
	SessionID       core.SessionID    `json:"session_id"`
	SelectedPatient core.PatientID    `json:"selected_patient"`
	SelectedModel   string            `json:"selected_model"`
	Features        map[string]bool   `json:"features"`
	Signal          signal.Signal     `json:"-"`
	WindowSize      int               `json:"window_size"`
	Geometry        playback.Geometry `json:"geometry"`
	Playback        playback.State    `json:"playback"`
	Step            int               `json:"step"`
	Prediction      *model.Prediction `json:"prediction,omitempty"`
	Version         int               `json:"version"`
}

// Initial builds the starting state for a session.
func Initial(id core.SessionID, sig signal.Signal, window, step int) State {
	if step <= 0 {
		step = playback.DefaultStep
	}
	return State{
		SessionID:     id,
		SelectedModel: model.DefaultModel,
		Features: map[string]bool{
			FeatureGrid:       true,
			FeatureHeartRate:  true,
			FeaturePrediction: true,
		},
		Signal:     sig,
		WindowSize: window,
		Geometry:   playback.NewGeometry(sig.Len(), window),
		Step:       step,
		Version:    1,
	}
}

// Enabled reports whether a feature flag is on.
func (s State) Enabled(feature string) bool {
	return s.Features[feature]
}

// EnabledFeatures returns the sorted names of enabled flags.
func (s State) EnabledFeatures() []string {
	out := make([]string, 0, len(s.Features))
	for name, on := range s.Features {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// WindowStart is the first visible sample index.
func (s State) WindowStart() int {
	return s.Playback.WindowStart(s.Geometry)
}

// Window derives the visible samples. The slice is a copy and is not kept.
func Window(s State) []float64 {
	return s.Signal.Slice(s.WindowStart(), s.Geometry.WindowLen)
}

func (s State) withFeatures(features map[string]bool) State {
	s.Features = features
	return s
}

func copyFeatures(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
