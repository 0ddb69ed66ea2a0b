package augment

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
)

// DefaultProbability is the chance each composed step is applied.
const DefaultProbability = 0.5

// Step is one named augmentation.
type Step struct {
	Name  string
	Apply func(a *Augmenter, x []float64) []float64
}

// Gaussian adds noise at snrDB.
func Gaussian(snrDB float64) Step {
	return Step{Name: "gaussian_noise", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.GaussianNoise(x, snrDB)
	}}
}

// Powerline adds mains hum.
func Powerline(freq, amplitude float64) Step {
	return Step{Name: "powerline_noise", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.PowerlineNoise(x, freq, amplitude)
	}}
}

// Wander adds respiration-like baseline drift.
func Wander(minHz, maxHz, amplitude float64) Step {
	return Step{Name: "baseline_wander", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.BaselineWander(x, minHz, maxHz, amplitude)
	}}
}

// Scale multiplies by a factor in [lo, hi).
func Scale(lo, hi float64) Step {
	return Step{Name: "amplitude_scale", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.AmplitudeScale(x, lo, hi)
	}}
}

// Shift rolls by up to maxShift samples.
func Shift(maxShift int) Step {
	return Step{Name: "time_shift", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.TimeShift(x, maxShift)
	}}
}

// Mask zeroes a random segment.
func Mask(maxRatio float64) Step {
	return Step{Name: "time_mask", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.TimeMask(x, maxRatio)
	}}
}

// Crop crops and edge-pads back to length.
func Crop(ratio float64) Step {
	return Step{Name: "random_crop", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.RandomCrop(x, ratio)
	}}
}

// FreqShift shifts the spectrum by up to maxHz either way.
func FreqShift(maxHz float64) Step {
	return Step{Name: "frequency_shift", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.FrequencyShift(x, maxHz)
	}}
}

// Warp distorts the time axis.
func Warp(sigma float64) Step {
	return Step{Name: "time_warp", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.TimeWarp(x, sigma)
	}}
}

// Magnitude applies a smooth gain envelope.
func Magnitude(sigma float64) Step {
	return Step{Name: "magnitude_warp", Apply: func(a *Augmenter, x []float64) []float64 {
		return a.MagnitudeWarp(x, sigma)
	}}
}

// DefaultPipeline is mild noise, scaling, shifting and warping.
func DefaultPipeline() []Step {
	return []Step{
		Gaussian(25),
		Scale(0.9, 1.1),
		Shift(0),
		Warp(0.1),
	}
}

// StepsByName resolves CLI step names; unknown names are rejected.
func StepsByName(names []string) ([]Step, error) {
	all := map[string]Step{}
	for _, s := range []Step{
		Gaussian(25), Powerline(50, 0.1), Wander(0.1, 0.5, 0.05), Scale(0.8, 1.2),
		Shift(0), Mask(0.1), Crop(0.9), Warp(0.2), Magnitude(0.2), FreqShift(2),
	} {
		all[s.Name] = s
	}
	out := make([]Step, 0, len(names))
	for _, n := range names {
		s, ok := all[n]
		if !ok {
			return nil, errors.InvalidInput("unknown augmentation " + n)
		}
		out = append(out, s)
	}
	return out, nil
}

// Compose applies each step with probability p, in order.
func (a *Augmenter) Compose(x []float64, steps []Step, p float64) []float64 {
	out := append([]float64(nil), x...)
	for _, s := range steps {
		if a.rng.Float64() < p {
			out = s.Apply(a, out)
		}
	}
	return out
}

// Signal augments one signal with steps at DefaultProbability.
func (a *Augmenter) Signal(sig signal.Signal, steps []Step) signal.Signal {
	return signal.New(a.Compose(sig.Samples(), steps, DefaultProbability), sig.SampleRate())
}

// Sample is one element of an augmented dataset.
type Sample struct {
	Signal    signal.Signal
	Label     int
	Augmented bool
}

// Dataset returns each original followed by perSignal-1 augmented copies.
// labels may be nil. Each source signal gets its own augmenter derived from
// seed so the output does not depend on scheduling.
func Dataset(ctx context.Context, signals []signal.Signal, labels []int, perSignal int, steps []Step, seed int64) ([]Sample, error) {
	if perSignal < 1 {
		return nil, errors.InvalidInput("augmentation factor must be at least 1")
	}
	if labels != nil && len(labels) != len(signals) {
		return nil, errors.InvalidInput("labels and signals differ in length")
	}
	if steps == nil {
		steps = DefaultPipeline()
	}

	out := make([]Sample, len(signals)*perSignal)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range signals {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sig := signals[i]
			label := 0
			if labels != nil {
				label = labels[i]
			}
			a := New(sig.SampleRate(), seed+int64(i))
			base := i * perSignal
			out[base] = Sample{Signal: sig, Label: label}
			for k := 1; k < perSignal; k++ {
				out[base+k] = Sample{Signal: a.Signal(sig, steps), Label: label, Augmented: true}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Printf("[Augment] Dataset grew from %d to %d signals", len(signals), len(out))
	return out, nil
}
