package session

import (
	"context"
	"testing"
	"time"

	"ecgrisk/adapters/memory"
	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/patient"
	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/interval"
	"ecgrisk/internal/predict"
	"ecgrisk/internal/render"
	"ecgrisk/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	mgr    *Manager
	states *memory.UIStateRepository
	scroll *interval.Manual
}

func testSettings() Settings {
	return Settings{
		SignalLength:    500,
		WindowLength:    200,
		Step:            2,
		TickInterval:    50 * time.Millisecond,
		PredictInterval: time.Hour,
		PredictTimeout:  time.Second,
		Waveform:        render.DefaultWaveformOptions(),
	}
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	states := memory.NewUIStateRepository()
	scroll := interval.NewManual()
	pred := ports.PredictorFunc(func(ctx context.Context, name string, sig signal.Signal) (model.Prediction, error) {
		return model.Prediction{Value: 0.5, Model: name}, nil
	})
	mgr := NewManager(memory.NewPatientRepository(patient.Catalog()...), states, pred, testSettings(),
		WithTickers(scroll.Factory(), interval.NewManual().Factory()))
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })
	return fixture{mgr: mgr, states: states, scroll: scroll}
}

func TestCreateUsesFirstPatient(t *testing.T) {
	f := newFixture(t)
	s, err := f.mgr.Create(context.Background(), "")
	require.NoError(t, err)

	st := s.Player.State()
	assert.Equal(t, core.PatientID("pt-001"), st.SelectedPatient)
	assert.Equal(t, 500, st.Signal.Len())
	assert.Equal(t, signal.Synthesize(500, 1000).Samples(), st.Signal.Samples())

	got, err := f.mgr.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestCreateUnknownPatient(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Create(context.Background(), "nobody")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestGetUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.Get(context.Background(), core.NewSessionID())
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestSnapshotsPersistAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Create(ctx, "pt-002")
	require.NoError(t, err)

	s.Player.Play()
	for i := 0; i < 5; i++ {
		require.True(t, f.scroll.Tick())
	}
	require.Eventually(t, func() bool { return s.Player.State().Playback.Offset == 10 }, time.Second, time.Millisecond)
	s.Player.Pause()
	s.Player.SelectModel("Transformer")
	require.NoError(t, f.mgr.Flush(ctx))

	snap, err := f.states.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 10, snap.Playback.Offset)
	assert.Equal(t, "Transformer", snap.Model)

	// a second manager over the same store stands in for a restart
	other := NewManager(memory.NewPatientRepository(patient.Catalog()...), f.states,
		ports.PredictorFunc(func(context.Context, string, signal.Signal) (model.Prediction, error) {
			return model.Prediction{}, nil
		}), testSettings(), WithTickers(interval.NewManual().Factory(), interval.NewManual().Factory()))
	t.Cleanup(func() { _ = other.Shutdown(ctx) })

	restored, err := other.Get(ctx, s.ID)
	require.NoError(t, err)
	st := restored.Player.State()
	assert.Equal(t, 10, st.Playback.Offset)
	assert.False(t, st.Playback.Playing)
	assert.Equal(t, "Transformer", st.SelectedModel)
	assert.Equal(t, core.PatientID("pt-002"), st.SelectedPatient)
	assert.Equal(t, s.Player.State().Signal.Samples(), st.Signal.Samples())
}

func TestSelectPatientAndRegenerate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Create(ctx, "")
	require.NoError(t, err)

	st, err := f.mgr.SelectPatient(ctx, s.ID, "pt-005")
	require.NoError(t, err)
	assert.Equal(t, core.PatientID("pt-005"), st.SelectedPatient)
	assert.Equal(t, signal.Synthesize(500, 1004).Samples(), st.Signal.Samples())

	_, err = f.mgr.SelectPatient(ctx, s.ID, "nobody")
	assert.Error(t, err)

	st, err = f.mgr.Regenerate(ctx, s.ID, 77)
	require.NoError(t, err)
	assert.Equal(t, signal.Synthesize(500, 77).Samples(), st.Signal.Samples())
	assert.Equal(t, 0, st.Playback.Offset)
}

func TestCloseForgetsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.mgr.Create(ctx, "")
	require.NoError(t, err)
	require.NoError(t, f.mgr.Flush(ctx))
	require.Equal(t, 1, f.states.Len())

	require.NoError(t, f.mgr.Close(ctx, s.ID))
	assert.Empty(t, f.mgr.List())
	assert.Equal(t, 0, f.states.Len())
	assert.False(t, s.Player.Playing())

	assert.True(t, errors.Is(f.mgr.Close(ctx, s.ID), errors.CodeNotFound))
}

func TestCloseRunsHook(t *testing.T) {
	var closed []core.SessionID
	mgr := NewManager(memory.NewPatientRepository(patient.Catalog()...), memory.NewUIStateRepository(), predict.NewMock(1), testSettings(),
		WithTickers(interval.NewManual().Factory(), interval.NewManual().Factory()),
		WithOnClose(func(id core.SessionID) { closed = append(closed, id) }))
	defer mgr.Shutdown(context.Background())

	s, err := mgr.Create(context.Background(), "pt-002")
	require.NoError(t, err)
	require.NoError(t, mgr.Close(context.Background(), s.ID))
	assert.Equal(t, []core.SessionID{s.ID}, closed)
}
