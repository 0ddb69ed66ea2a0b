package signal

import (
	"math"
	"math/rand"
)

// Component is one sinusoid of a synthesized waveform.
type Component struct {
	FreqHz    float64 `json:"freq_hz"`
	Amplitude float64 `json:"amplitude"`
}

// DefaultComponents approximate a slow ECG-like shape: a 72 bpm fundamental,
// its second harmonic and a respiratory baseline.
var DefaultComponents = []Component{
	{FreqHz: 1.2, Amplitude: 0.8},
	{FreqHz: 2.4, Amplitude: 0.2},
	{FreqHz: 0.3, Amplitude: 0.1},
}

// DefaultNoise bounds the uniform perturbation added to each sample.
const DefaultNoise = 0.05

// Synthesizer builds mock ECG signals from a few sinusoids plus bounded noise.
type Synthesizer struct {
	components []Component
	noise      float64
	sampleRate float64
	seed       int64
	rng        *rand.Rand
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithSeed sets deterministic random seed for the noise term.
func WithSeed(seed int64) Option {
	return func(s *Synthesizer) {
		s.seed = seed
	}
}

// WithComponents replaces the sinusoid set.
func WithComponents(components ...Component) Option {
	return func(s *Synthesizer) {
		s.components = append([]Component(nil), components...)
	}
}

// WithNoise sets the noise bound; negative values disable noise.
func WithNoise(bound float64) Option {
	return func(s *Synthesizer) {
		if bound < 0 {
			bound = 0
		}
		s.noise = bound
	}
}

// WithSampleRate overrides the 100 Hz time base.
func WithSampleRate(hz float64) Option {
	return func(s *Synthesizer) {
		if hz > 0 {
			s.sampleRate = hz
		}
	}
}

// NewSynthesizer creates a configured synthesizer.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		components: DefaultComponents,
		noise:      DefaultNoise,
		sampleRate: DefaultSampleRate,
		seed:       1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.rng = rand.New(rand.NewSource(s.seed))
	return s
}

// Seed returns the configured noise seed.
func (s *Synthesizer) Seed() int64 { return s.seed }

// Noise returns the noise bound.
func (s *Synthesizer) Noise() float64 { return s.noise }

// Components returns a copy of the sinusoid set.
func (s *Synthesizer) Components() []Component {
	return append([]Component(nil), s.components...)
}

// Synthesize returns a signal of exactly n samples. Negative n yields an empty signal.
// Successive calls continue the noise stream, so two calls differ only in noise.
func (s *Synthesizer) Synthesize(n int) Signal {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Sample(i)
	}
	return Signal{samples: out, sampleRate: s.sampleRate}
}

// Sample computes sample i including a fresh noise draw.
func (s *Synthesizer) Sample(i int) float64 {
	return s.Clean(i) + (s.rng.Float64()*2-1)*s.noise
}

// Clean computes the noise-free value of sample i.
func (s *Synthesizer) Clean(i int) float64 {
	t := float64(i) / s.sampleRate
	v := 0.0
	for _, c := range s.components {
		v += c.Amplitude * math.Sin(2*math.Pi*c.FreqHz*t)
	}
	return v
}

// Synthesize is a convenience wrapper using default settings and the given seed.
func Synthesize(n int, seed int64) Signal {
	return NewSynthesizer(WithSeed(seed)).Synthesize(n)
}
