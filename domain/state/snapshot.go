package state

import (
	"time"

	"ecgrisk/domain/core"
	"ecgrisk/domain/playback"
	"ecgrisk/domain/signal"
)

// Snapshot is the persisted part of a State. The signal is not stored; it is
// regenerated from the patient's seed on restore.
type Snapshot struct {
	SessionID   core.SessionID  `json:"session_id"`
	Patient     core.PatientID  `json:"patient"`
	Model       string          `json:"model"`
	Features    map[string]bool `json:"features"`
	Playback    playback.State  `json:"playback"`
	WindowSize  int             `json:"window_size"`
	Step        int             `json:"step"`
	Version     int             `json:"version"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Snap projects s into a Snapshot.
func Snap(s State, now time.Time) Snapshot {
	return Snapshot{
		SessionID:   s.SessionID,
		Patient:     s.SelectedPatient,
		Model:       s.SelectedModel,
		Features:    copyFeatures(s.Features),
		Playback:    s.Playback,
		WindowSize:  s.WindowSize,
		Step:        s.Step,
		Version:     s.Version,
		LastUpdated: now,
	}
}

// Restore rebuilds a State from a snapshot and the patient's regenerated signal.
// The offset is clamped in case the signal length changed since the snapshot.
func Restore(snap Snapshot, sig signal.Signal) State {
	s := Initial(snap.SessionID, sig, snap.WindowSize, snap.Step)
	s.SelectedPatient = snap.Patient
	if snap.Model != "" {
		s.SelectedModel = snap.Model
	}
	if snap.Features != nil {
		s.Features = copyFeatures(snap.Features)
	}
	s.Playback = snap.Playback.Clamp(s.Geometry)
	if snap.Version > 0 {
		s.Version = snap.Version
	}
	return s
}
