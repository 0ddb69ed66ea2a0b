package ports

import (
	"context"

	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"
)

// Predictor turns a signal into a risk estimate. Implementations may call a
// remote model; callers must honour ctx cancellation.
type Predictor interface {
	Predict(ctx context.Context, modelName string, sig signal.Signal) (model.Prediction, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, modelName string, sig signal.Signal) (model.Prediction, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, modelName string, sig signal.Signal) (model.Prediction, error) {
	return f(ctx, modelName, sig)
}
