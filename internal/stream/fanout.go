package stream

import (
	"context"
	stderrors "errors"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/ports"
)

// Fanout publishes to every member and joins their errors. A failing member
// does not stop the others.
type Fanout []ports.FramePublisher

var _ ports.FramePublisher = Fanout(nil)

func (fo Fanout) PublishFrame(ctx context.Context, f ports.Frame) error {
	var errs []error
	for _, p := range fo {
		if p == nil {
			continue
		}
		if err := p.PublishFrame(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (fo Fanout) PublishPrediction(ctx context.Context, id core.SessionID, pred model.Prediction) error {
	var errs []error
	for _, p := range fo {
		if p == nil {
			continue
		}
		if err := p.PublishPrediction(ctx, id, pred); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
