package ports

import (
	"context"
	"time"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
)

// Frame is what one redraw shows: the visible window plus transport state.
type Frame struct {
	SessionID  core.SessionID    `json:"session_id"`
	Start      int               `json:"start"`
	Window     []float64         `json:"window"`
	Playing    bool              `json:"playing"`
	Offset     int               `json:"offset"`
	Version    int               `json:"version"`
	HeartRate  int               `json:"heart_rate,omitempty"`
	Prediction *model.Prediction `json:"prediction,omitempty"`
	At         time.Time         `json:"at"`
}

// FramePublisher fans frames and predictions out to external consumers.
type FramePublisher interface {
	PublishFrame(ctx context.Context, f Frame) error
	PublishPrediction(ctx context.Context, id core.SessionID, p model.Prediction) error
}
