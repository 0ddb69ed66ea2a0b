package predict

import (
	"ecgrisk/domain/model"
	"ecgrisk/domain/signal"
)

// Request is the JSON body sent to a remote predictor.
type Request struct {
	Model      string    `json:"model"`
	SampleRate float64   `json:"sample_rate"`
	Samples    []float64 `json:"samples"`
}

// Response carries either a prediction or an error message.
type Response struct {
	Prediction *model.Prediction `json:"prediction,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func newRequest(modelName string, sig signal.Signal) Request {
	return Request{Model: modelName, SampleRate: sig.SampleRate(), Samples: sig.Samples()}
}

func (r Request) signal() signal.Signal {
	return signal.New(r.Samples, r.SampleRate)
}
