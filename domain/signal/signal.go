package signal

// DefaultSampleRate is the implicit sampling rate of synthesized signals (t = i/100).
const DefaultSampleRate = 100.0

// DefaultLength is the number of samples a dashboard signal carries.
const DefaultLength = 500

// Signal is an immutable sequence of voltage samples at a fixed sampling rate.
// Replace it wholesale; nothing in the repository writes into one after
// construction.
type Signal struct {
	samples    []float64
	sampleRate float64
}

// New copies samples into a Signal.
func New(samples []float64, sampleRate float64) Signal {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	cp := make([]float64, len(samples))
	copy(cp, samples)
	return Signal{samples: cp, sampleRate: sampleRate}
}

// Len returns the number of samples.
func (s Signal) Len() int { return len(s.samples) }

// SampleRate returns the sampling rate in Hz.
func (s Signal) SampleRate() float64 {
	if s.sampleRate <= 0 {
		return DefaultSampleRate
	}
	return s.sampleRate
}

// At returns sample i. It panics when i is out of range, like a slice index.
func (s Signal) At(i int) float64 { return s.samples[i] }

// Samples returns a copy of all samples.
func (s Signal) Samples() []float64 {
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return out
}

// Slice returns a copy of n samples starting at start, clamped to the signal bounds.
func (s Signal) Slice(start, n int) []float64 {
	if start < 0 {
		start = 0
	}
	if start > len(s.samples) {
		start = len(s.samples)
	}
	end := start + n
	if n < 0 || end > len(s.samples) {
		end = len(s.samples)
	}
	out := make([]float64, end-start)
	copy(out, s.samples[start:end])
	return out
}

// IsEmpty reports whether the signal has no samples.
func (s Signal) IsEmpty() bool { return len(s.samples) == 0 }

// Duration returns the signal length in seconds.
func (s Signal) Duration() float64 {
	return float64(len(s.samples)) / s.SampleRate()
}
