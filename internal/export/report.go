package export

import (
	"context"
	"log"
	"time"

	"ecgrisk/domain/model"
	"ecgrisk/domain/patient"
	"ecgrisk/domain/signal"
	"ecgrisk/internal/preprocess"
	"ecgrisk/ports"
)

// PredictTimeout bounds each model's prediction while building a report.
var PredictTimeout = 2 * time.Second

// Build gathers a report for sig: a fresh prediction from every compared
// model, the comparison table and, for a non-empty signal, its quality.
// Models whose prediction fails are left out.
func Build(ctx context.Context, predictor ports.Predictor, p *patient.Patient, sig signal.Signal) Report {
	r := Report{
		Patient:     p,
		Signal:      sig,
		Predictions: PredictAll(ctx, predictor, sig),
		Comparisons: model.Comparisons(),
	}
	if sig.Len() > 0 {
		q := preprocess.AssessQuality(sig.Samples(), sig.SampleRate())
		r.Quality = &q
	}
	return r
}

// PredictAll asks predictor once per compared model.
func PredictAll(ctx context.Context, predictor ports.Predictor, sig signal.Signal) []model.Prediction {
	var out []model.Prediction
	for _, row := range model.Comparisons() {
		pctx, cancel := context.WithTimeout(ctx, PredictTimeout)
		pred, err := predictor.Predict(pctx, row.Name, sig)
		cancel()
		if err != nil {
			log.Printf("[Export] Prediction with %s failed: %v", row.Name, err)
			continue
		}
		out = append(out, pred)
	}
	return out
}
