package state

import (
	"testing"
	"time"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) State {
	t.Helper()
	return Initial(core.NewSessionID(), signal.Synthesize(500, 1), 200, 2)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := newState(t)
	before := s.Features[FeatureGrid]

	next := Reduce(s, ToggleFeature{Name: FeatureGrid})

	assert.Equal(t, before, s.Features[FeatureGrid])
	assert.Equal(t, !before, next.Features[FeatureGrid])
	assert.Equal(t, s.Version+1, next.Version)
}

func TestTickOnlyAdvancesWhilePlaying(t *testing.T) {
	s := newState(t)

	paused := Reduce(s, Tick{})
	assert.Equal(t, s.Version, paused.Version)
	assert.Equal(t, 0, paused.Playback.Offset)

	playing := ReduceAll(s, TogglePlay{}, Tick{}, Tick{}, Tick{})
	assert.Equal(t, 6, playing.Playback.Offset)
	assert.Equal(t, 6, playing.WindowStart())
}

func TestTenTicksAdvanceTwenty(t *testing.T) {
	s := Reduce(newState(t), Play{})
	for i := 0; i < 10; i++ {
		s = Reduce(s, Tick{})
	}
	assert.Equal(t, 20, s.Playback.Offset)
	assert.Len(t, Window(s), 200)
	assert.Equal(t, s.Signal.Slice(20, 200), Window(s))
}

func TestPlayPausePlayResumes(t *testing.T) {
	s := ReduceAll(newState(t), TogglePlay{}, Tick{}, Tick{}, TogglePlay{}, Tick{}, TogglePlay{}, Tick{})
	assert.Equal(t, 6, s.Playback.Offset)
	assert.True(t, s.Playback.Playing)
}

func TestResetWhilePausedKeepsWindow(t *testing.T) {
	s := newState(t)
	before := Window(s)

	s = Reduce(s, ResetPlayback{})
	assert.Equal(t, 0, s.Playback.Offset)
	assert.Equal(t, before, Window(s))
}

func TestSelectPatientSwapsSignal(t *testing.T) {
	s := ReduceAll(newState(t), Play{}, Tick{}, PredictionReceived{Prediction: model.Prediction{Value: 0.7}})
	require.NotNil(t, s.Prediction)

	short := signal.Synthesize(150, 9)
	s = Reduce(s, SelectPatient{ID: "pt-002", Signal: short})

	assert.Equal(t, core.PatientID("pt-002"), s.SelectedPatient)
	assert.Nil(t, s.Prediction)
	assert.Equal(t, 150, s.Geometry.WindowLen)
	assert.Equal(t, 0, s.Playback.Offset)
	assert.True(t, s.Playback.Playing)

	s = Reduce(s, Regenerate{Signal: signal.Synthesize(500, 2)})
	assert.Equal(t, 200, s.Geometry.WindowLen)
}

func TestSelectModel(t *testing.T) {
	s := newState(t)
	same := Reduce(s, SelectModel{Name: s.SelectedModel})
	assert.Equal(t, s.Version, same.Version)

	other := Reduce(s, SelectModel{Name: "Transformer"})
	assert.Equal(t, "Transformer", other.SelectedModel)
	assert.Equal(t, s.Version+1, other.Version)
}

func TestPredictionReplacesPrevious(t *testing.T) {
	s := ReduceAll(newState(t),
		PredictionReceived{Prediction: model.Prediction{Value: 0.2}},
		PredictionReceived{Prediction: model.Prediction{Value: 0.9}},
	)
	require.NotNil(t, s.Prediction)
	assert.Equal(t, 0.9, s.Prediction.Value)
}

func TestSnapshotRoundTripClampsOffset(t *testing.T) {
	s := ReduceAll(newState(t), Play{}, SelectModel{Name: "XGBoost"}, ToggleFeature{Name: FeatureHeartRate})
	s.Playback.Offset = 250
	snap := Snap(s, time.Unix(0, 0))

	restored := Restore(snap, signal.Synthesize(300, 1))
	assert.Equal(t, "XGBoost", restored.SelectedModel)
	assert.False(t, restored.Enabled(FeatureHeartRate))
	assert.Equal(t, 50, restored.Playback.Offset)
	assert.Equal(t, s.Version, restored.Version)
	assert.Equal(t, []string{FeatureGrid, FeaturePrediction}, restored.EnabledFeatures())
}

func TestActionKinds(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{SelectPatient{}, "select_patient"},
		{SelectModel{Name: "ResNet-1D"}, "select_model"},
		{ToggleFeature{Name: FeatureGrid}, "toggle_feature"},
		{TogglePlay{}, "toggle_play"},
		{Play{}, "play"},
		{Pause{}, "pause"},
		{ResetPlayback{}, "reset"},
		{Tick{}, "tick"},
		{PredictionReceived{}, "prediction"},
		{Regenerate{}, "regenerate"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.Kind())
		})
	}
}
