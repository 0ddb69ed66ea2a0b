// Package stream carries waveform frames and derived parameters over NATS.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/internal/config"
	"ecgrisk/internal/errors"
	"ecgrisk/ports"
)

// Connect dials NATS and keeps reconnecting forever.
func Connect(cfg config.NATSConfig) (*nats.Conn, error) {
	name := cfg.Name
	if name == "" {
		name = "ecgrisk"
	}
	nc, err := nats.Connect(
		cfg.URL,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.ExternalServiceError("nats", err)
	}
	return nc, nil
}

// ParamMsg is the JSON published on the params subject after each frame.
type ParamMsg struct {
	Session    string            `json:"session"`
	Ts         int64             `json:"ts"`
	HR         int               `json:"hr,omitempty"`
	Offset     int               `json:"offset"`
	Playing    bool              `json:"playing"`
	Prediction *model.Prediction `json:"prediction,omitempty"`
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher implements ports.FramePublisher on NATS. Waves go to
// <wave>.<session> as float32 LE samples; params go to the params subject
// as JSON.
type Publisher struct {
	conn          Conn
	waveSubject   string
	paramsSubject string
}

var _ ports.FramePublisher = (*Publisher)(nil)

// NewPublisher wires a publisher to conn using cfg's subjects.
func NewPublisher(conn Conn, cfg config.NATSConfig) *Publisher {
	return &Publisher{conn: conn, waveSubject: cfg.WaveSubject, paramsSubject: cfg.ParamsSubject}
}

// WaveSubject returns the per-session wave subject.
func (p *Publisher) WaveSubject(id core.SessionID) string {
	return p.waveSubject + "." + id.String()
}

func (p *Publisher) PublishFrame(ctx context.Context, f ports.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.conn.Publish(p.WaveSubject(f.SessionID), EncodeSamples(f.Window)); err != nil {
		return errors.ExternalServiceError("nats", err)
	}
	return p.publishParams(ParamsFromFrame(f))
}

// ParamsFromFrame projects the non-sample part of a frame.
func ParamsFromFrame(f ports.Frame) ParamMsg {
	return ParamMsg{
		Session:    f.SessionID.String(),
		Ts:         f.At.UnixMilli(),
		HR:         f.HeartRate,
		Offset:     f.Offset,
		Playing:    f.Playing,
		Prediction: f.Prediction,
	}
}

func (p *Publisher) PublishPrediction(ctx context.Context, id core.SessionID, pred model.Prediction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.publishParams(ParamMsg{Session: id.String(), Ts: pred.At.UnixMilli(), Prediction: &pred})
}

func (p *Publisher) publishParams(msg ParamMsg) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal params")
	}
	if err := p.conn.Publish(p.paramsSubject, b); err != nil {
		return errors.ExternalServiceError("nats", err)
	}
	return nil
}
