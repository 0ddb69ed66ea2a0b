package signal

import "math"

// ECGSim streams a PQRST-shaped waveform at fs Hz. The shape is illustrative,
// not clinical: a slow baseline plus gaussian P, Q, R, S and T waves.
type ECGSim struct {
	fs    float64
	phase float64
	hrBPM float64
	noise float64
}

// NewECGSim creates a simulator; typical values are fs=250, hrBPM 60-120, noise 0-0.05.
func NewECGSim(fs, hrBPM, noise float64) *ECGSim {
	if fs <= 0 {
		fs = 250
	}
	if hrBPM <= 0 {
		hrBPM = 72
	}
	return &ECGSim{fs: fs, hrBPM: hrBPM, noise: noise}
}

// SetHeartRate changes the beat rate without resetting the phase.
func (s *ECGSim) SetHeartRate(bpm float64) {
	if bpm > 0 {
		s.hrBPM = bpm
	}
}

// SampleRate returns the simulator rate in Hz.
func (s *ECGSim) SampleRate() float64 { return s.fs }

// Next returns the next sample and advances the phase by one sample period.
func (s *ECGSim) Next() float32 {
	s.phase += (s.hrBPM / 60.0) / s.fs
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}
	return float32(beat(s.phase, s.noise))
}

// Fill draws n samples into a Signal.
func (s *ECGSim) Fill(n int) Signal {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(s.Next())
	}
	return Signal{samples: out, sampleRate: s.fs}
}

// beat evaluates one cardiac cycle at phase t in [0, 1).
func beat(t, noise float64) float64 {
	baseline := 0.05 * math.Sin(2*math.Pi*0.33*t)

	p := 0.08 * gauss(t, 0.18, 0.03)
	q := -0.12 * gauss(t, 0.30, 0.01)
	r := 1.00 * gauss(t, 0.32, 0.008)
	sw := -0.25 * gauss(t, 0.35, 0.012)
	tw := 0.25 * gauss(t, 0.60, 0.06)

	// hash-style noise: deterministic per phase and cheap
	n := noise * (2*fract(math.Sin(12345.678*t)*9876.543) - 1)

	return baseline + p + q + r + sw + tw + n
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }
