package main

import (
	"context"
	"encoding/json"
	"time"

	"ecgrisk/domain/signal"
	"ecgrisk/internal"
	"ecgrisk/internal/stream"
)

// producer turns simulator samples into float32 batches on the wave subject
// and heart-rate updates on the params subject.
type producer struct {
	conn          stream.Conn
	waveSubject   string
	paramsSubject string
	session       string
	sim           *signal.ECGSim
	detector      *signal.HRDetector
	batch         int
	log           *internal.Logger

	samples int
	lastHR  int
}

// run emits one sample per tick until ctx ends and returns the number of
// batches published.
func (p *producer) run(ctx context.Context, ticks <-chan time.Time) int {
	if p.batch < 1 {
		p.batch = 1
	}
	buffer := make([]float32, 0, p.batch)
	sent := 0
	for {
		select {
		case <-ctx.Done():
			return sent
		case <-ticks:
			v := p.sim.Next()
			buffer = append(buffer, v)
			p.track(float64(v))

			if len(buffer) < p.batch {
				continue
			}
			if err := p.conn.Publish(p.waveSubject, stream.EncodeFloat32(buffer)); err != nil {
				p.log.Warn("Publish to %s failed: %v", p.waveSubject, err)
			} else {
				sent++
				p.log.Trace("Batch %d: %d samples", sent, len(buffer))
			}
			buffer = buffer[:0]
		}
	}
}

// track feeds the detector and publishes the rate when it changes.
func (p *producer) track(v float64) {
	at := time.Duration(float64(p.samples) / p.sim.SampleRate() * float64(time.Second))
	p.samples++
	bpm, ok := p.detector.Process(v, at)
	if !ok || bpm == p.lastHR {
		return
	}
	p.lastHR = bpm
	b, err := json.Marshal(stream.ParamMsg{Session: p.session, Ts: time.Now().UnixMilli(), HR: bpm, Playing: true})
	if err != nil {
		return
	}
	if err := p.conn.Publish(p.paramsSubject, b); err != nil {
		p.log.Warn("Publish to %s failed: %v", p.paramsSubject, err)
		return
	}
	p.log.Debug("Heart rate %d bpm", bpm)
}
