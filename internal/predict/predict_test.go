package predict

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"
	"ecgrisk/domain/state"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/interval"
	"ecgrisk/ports"
)

func TestMockBoundsAndLabels(t *testing.T) {
	m := NewMock(42)
	sig := signal.Synthesize(500, 1)
	for i := 0; i < 500; i++ {
		p, err := m.Predict(context.Background(), "CNN-LSTM", sig)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.Less(t, p.Value, 1.0)
		assert.GreaterOrEqual(t, p.Confidence, MinConfidence)
		assert.Less(t, p.Confidence, MaxConfidence)
		assert.Equal(t, model.LabelFor(p.Value), p.Label)
		assert.Equal(t, "CNN-LSTM", p.Model)
	}
}

func TestMockDeterministic(t *testing.T) {
	sig := signal.Synthesize(10, 1)
	a, b := NewMock(7), NewMock(7)
	for i := 0; i < 5; i++ {
		pa, _ := a.Predict(context.Background(), "", sig)
		pb, _ := b.Predict(context.Background(), "", sig)
		assert.Equal(t, pa.Value, pb.Value)
		assert.Equal(t, model.DefaultModel, pa.Model)
	}
}

func TestMockRejects(t *testing.T) {
	m := NewMock(1)
	_, err := m.Predict(context.Background(), "x", signal.Signal{})
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Predict(ctx, "x", signal.Synthesize(5, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPRoundTrip(t *testing.T) {
	srv := httptest.NewServer(Handler(NewMock(3)))
	defer srv.Close()

	client := NewHTTPPredictor(srv.URL+"/", time.Second)
	p, err := client.Predict(context.Background(), "Transformer", signal.Synthesize(100, 1))
	require.NoError(t, err)
	assert.Equal(t, "Transformer", p.Model)

	want, _ := NewMock(3).Predict(context.Background(), "Transformer", signal.Synthesize(100, 1))
	assert.Equal(t, want.Value, p.Value)

	_, err = client.Predict(context.Background(), "Transformer", signal.Signal{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeExternalService))
	assert.Contains(t, err.Error(), "signal is empty")
}

func TestHandlerStatuses(t *testing.T) {
	h := Handler(NewMock(1))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := ports.PredictorFunc(func(context.Context, string, signal.Signal) (model.Prediction, error) {
		return model.Prediction{}, errors.Unavailable("model warming up")
	})
	rec = httptest.NewRecorder()
	h = Handler(failing)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"model":"x","samples":[1]}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "model warming up")
}

type loopback struct {
	p       ports.Predictor
	subject string
	err     error
}

func (l *loopback) RequestWithContext(ctx context.Context, subject string, data []byte) (*nats.Msg, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.subject = subject
	return &nats.Msg{Subject: subject, Data: Answer(ctx, l.p, data)}, nil
}

func TestNATSPredictor(t *testing.T) {
	lb := &loopback{p: NewMock(5)}
	client := NewNATSPredictor(lb, "ecg.predict")

	p, err := client.Predict(context.Background(), "XGBoost", signal.Synthesize(50, 1))
	require.NoError(t, err)
	assert.Equal(t, "ecg.predict", lb.subject)
	assert.Equal(t, "XGBoost", p.Model)

	lb.err = nats.ErrTimeout
	_, err = client.Predict(context.Background(), "XGBoost", signal.Synthesize(50, 1))
	assert.True(t, errors.Is(err, errors.CodeExternalService))
	assert.ErrorIs(t, err, nats.ErrTimeout)
}

type fakeTarget struct {
	mu sync.Mutex
	s  state.State
}

func (f *fakeTarget) State() state.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s
}

func (f *fakeTarget) SetPrediction(p model.Prediction) state.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.s = state.Reduce(f.s, state.PredictionReceived{Prediction: p})
	return f.s
}

func (f *fakeTarget) prediction() *model.Prediction {
	return f.State().Prediction
}

func TestFeedReplacesPrediction(t *testing.T) {
	target := &fakeTarget{s: state.Initial(core.NewSessionID(), signal.Synthesize(500, 1), 200, 2)}
	manual := interval.NewManual()
	calls := 0
	var mu sync.Mutex
	p := ports.PredictorFunc(func(_ context.Context, name string, _ signal.Signal) (model.Prediction, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 2 {
			return model.Prediction{}, fmt.Errorf("model offline")
		}
		return model.Prediction{Value: float64(calls) / 10, Model: name}, nil
	})

	feed := NewFeed(p, target, time.Second, WithFeedTicker(manual.Factory()))
	feed.Start()
	feed.Start()
	defer feed.Stop()
	assert.Equal(t, 1, manual.Created())

	require.True(t, manual.Tick())
	require.Eventually(t, func() bool { return target.prediction() != nil }, time.Second, time.Millisecond)
	assert.Equal(t, 0.1, target.prediction().Value)
	assert.Equal(t, model.DefaultModel, target.prediction().Model)

	// failed call keeps the previous value
	require.True(t, manual.Tick())
	require.True(t, manual.Tick())
	require.Eventually(t, func() bool { return target.prediction().Value == 0.3 }, time.Second, time.Millisecond)
}

func TestFeedStop(t *testing.T) {
	target := &fakeTarget{s: state.Initial(core.NewSessionID(), signal.Synthesize(10, 1), 5, 2)}
	manual := interval.NewManual()
	feed := NewFeed(NewMock(1), target, 0, WithFeedTicker(manual.Factory()))
	feed.Start()
	feed.Stop()

	assert.False(t, manual.Tick())
	assert.Nil(t, target.prediction())

	_, err := feed.Once(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, target.prediction())
}
