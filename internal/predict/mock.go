// Package predict provides risk predictors behind ports.Predictor: a seeded
// mock, remote clients over NATS and HTTP, the matching server side, and the
// periodic feed that keeps a session's prediction fresh.
package predict

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
	"ecgrisk/ports"
)

// Mock confidence bounds.
const (
	MinConfidence = 0.70
	MaxConfidence = 0.99
)

// Mock returns uniform pseudo-random risk values. It ignores the samples;
// only their presence matters.
type Mock struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

var _ ports.Predictor = (*Mock)(nil)

// NewMock creates a mock predictor seeded for reproducible sequences.
func NewMock(seed int64) *Mock {
	return &Mock{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (m *Mock) Predict(ctx context.Context, modelName string, sig signal.Signal) (model.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return model.Prediction{}, err
	}
	if sig.IsEmpty() {
		return model.Prediction{}, errors.InvalidInput("signal is empty")
	}
	if modelName == "" {
		modelName = model.DefaultModel
	}

	m.mu.Lock()
	value := m.rng.Float64()
	confidence := MinConfidence + m.rng.Float64()*(MaxConfidence-MinConfidence)
	m.mu.Unlock()

	return model.Prediction{
		Value:      value,
		Confidence: confidence,
		Label:      model.LabelFor(value),
		Model:      modelName,
		At:         m.now(),
	}, nil
}
