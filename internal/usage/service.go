// Package usage meters what the dashboard pushes out: frames, predictions
// and sample bytes, in total and per session.
package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecgrisk/domain/core"
	"ecgrisk/domain/model"
	"ecgrisk/ports"
)

// SessionUsage is one session's counters.
type SessionUsage struct {
	SessionID   core.SessionID `json:"session_id"`
	Frames      int64          `json:"frames"`
	Predictions int64          `json:"predictions"`
	LastSeen    time.Time      `json:"last_seen"`
}

// Summary is a point-in-time copy of all counters.
type Summary struct {
	Frames      int64          `json:"frames"`
	Predictions int64          `json:"predictions"`
	SampleBytes int64          `json:"sample_bytes"`
	LVSD        int64          `json:"lvsd_predictions"`
	Sessions    []SessionUsage `json:"sessions"`
	Since       time.Time      `json:"since"`
}

// Service counts published traffic. It implements ports.FramePublisher so it
// can sit in a publisher fan-out.
type Service struct {
	now func() time.Time

	mu          sync.Mutex
	frames      int64
	predictions int64
	sampleBytes int64
	lvsd        int64
	sessions    map[core.SessionID]*SessionUsage
	since       time.Time
}

var _ ports.FramePublisher = (*Service)(nil)

// NewService creates a new usage service
func NewService() *Service {
	return newService(time.Now)
}

func newService(now func() time.Time) *Service {
	return &Service{now: now, sessions: make(map[core.SessionID]*SessionUsage), since: now()}
}

// PublishFrame records one frame.
func (s *Service) PublishFrame(_ context.Context, f ports.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.sampleBytes += int64(4 * len(f.Window))
	u := s.session(f.SessionID)
	u.Frames++
	u.LastSeen = s.now()
	return nil
}

// PublishPrediction records one prediction.
func (s *Service) PublishPrediction(_ context.Context, id core.SessionID, p model.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictions++
	if p.Value >= model.RiskThreshold {
		s.lvsd++
	}
	u := s.session(id)
	u.Predictions++
	u.LastSeen = s.now()
	return nil
}

// Forget drops a closed session's counters; totals are kept.
func (s *Service) Forget(id core.SessionID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Summary copies the counters, sessions ordered by ID.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Summary{
		Frames:      s.frames,
		Predictions: s.predictions,
		SampleBytes: s.sampleBytes,
		LVSD:        s.lvsd,
		Sessions:    make([]SessionUsage, 0, len(s.sessions)),
		Since:       s.since,
	}
	for _, u := range s.sessions {
		out.Sessions = append(out.Sessions, *u)
	}
	sort.Slice(out.Sessions, func(i, j int) bool { return out.Sessions[i].SessionID < out.Sessions[j].SessionID })
	return out
}

// Idle returns sessions not seen for longer than maxAge.
func (s *Service) Idle(maxAge time.Duration) []core.SessionID {
	cutoff := s.now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.SessionID
	for id, u := range s.sessions {
		if u.LastSeen.Before(cutoff) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Service) session(id core.SessionID) *SessionUsage {
	u, ok := s.sessions[id]
	if !ok {
		u = &SessionUsage{SessionID: id}
		s.sessions[id] = u
	}
	return u
}
