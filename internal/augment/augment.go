// Package augment multiplies a training set of ECG leads with realistic
// perturbations such as noise at a target SNR, mains hum, respiration
// wander, warping, frequency shifts, masking and cropping.
package augment

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"ecgrisk/internal/preprocess"
)

// Augmenter draws every random choice from one seeded source, so a seed
// reproduces a whole augmented dataset. It is not safe for concurrent use.
type Augmenter struct {
	fs  float64
	rng *rand.Rand
}

// New creates an augmenter for leads sampled at fs Hz.
func New(fs float64, seed int64) *Augmenter {
	if fs <= 0 {
		fs = 500
	}
	return &Augmenter{fs: fs, rng: rand.New(rand.NewSource(seed))}
}

// SampleRate returns the rate augmentations assume.
func (a *Augmenter) SampleRate() float64 { return a.fs }

// GaussianNoise adds white noise so the result has the given SNR in dB.
func (a *Augmenter) GaussianNoise(x []float64, snrDB float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	power := floats.Dot(x, x) / float64(len(x))
	sd := math.Sqrt(power / math.Pow(10, snrDB/10))
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v + a.rng.NormFloat64()*sd
	}
	return out
}

// PowerlineNoise adds a hum at freq Hz scaled by amplitude*max|x| and a
// random phase factor.
func (a *Augmenter) PowerlineNoise(x []float64, freq, amplitude float64) []float64 {
	scale := amplitude * maxAbs(x) * math.Sin(a.rng.Float64()*2*math.Pi)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v + scale*math.Sin(2*math.Pi*freq*float64(i)/a.fs)
	}
	return out
}

// BaselineWander adds a slow sinusoid in [minHz, maxHz) that mimics breathing.
func (a *Augmenter) BaselineWander(x []float64, minHz, maxHz, amplitude float64) []float64 {
	freq := minHz + a.rng.Float64()*(maxHz-minHz)
	phase := a.rng.Float64() * 2 * math.Pi
	scale := amplitude * maxAbs(x)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v + scale*math.Sin(2*math.Pi*freq*float64(i)/a.fs+phase)
	}
	return out
}

// AmplitudeScale multiplies by one factor drawn from [lo, hi).
func (a *Augmenter) AmplitudeScale(x []float64, lo, hi float64) []float64 {
	out := append([]float64(nil), x...)
	floats.Scale(lo+a.rng.Float64()*(hi-lo), out)
	return out
}

// TimeShift rolls x circularly by up to maxShift samples either way.
// maxShift <= 0 uses a tenth of the length.
func (a *Augmenter) TimeShift(x []float64, maxShift int) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	if maxShift <= 0 {
		maxShift = n / 10
	}
	shift := 0
	if maxShift > 0 {
		shift = a.rng.Intn(2*maxShift) - maxShift
	}
	out := make([]float64, n)
	for i, v := range x {
		out[((i+shift)%n+n)%n] = v
	}
	return out
}

// TimeMask zeroes one random segment covering 50-100% of maxRatio.
func (a *Augmenter) TimeMask(x []float64, maxRatio float64) []float64 {
	out := append([]float64(nil), x...)
	n := len(x)
	length := int(float64(n) * maxRatio * (0.5 + 0.5*a.rng.Float64()))
	if length <= 0 || length >= n {
		return out
	}
	start := a.rng.Intn(n - length)
	for i := start; i < start+length; i++ {
		out[i] = 0
	}
	return out
}

// RandomCrop keeps a random ratio-long segment, centres it and pads both
// sides with the segment's edge values back to the original length.
func (a *Augmenter) RandomCrop(x []float64, ratio float64) []float64 {
	n := len(x)
	keep := int(float64(n) * ratio)
	if keep < 1 || keep >= n {
		return append([]float64(nil), x...)
	}
	start := a.rng.Intn(n - keep)
	seg := x[start : start+keep]

	left := (n - keep) / 2
	out := make([]float64, n)
	for i := range out {
		switch {
		case i < left:
			out[i] = seg[0]
		case i >= left+keep:
			out[i] = seg[keep-1]
		default:
			out[i] = seg[i-left]
		}
	}
	return out
}

// FrequencyShift moves the spectrum by a uniform draw in [-maxHz, maxHz)
// by rotating the phase of the analytic signal.
func (a *Augmenter) FrequencyShift(x []float64, maxHz float64) []float64 {
	shift := -maxHz + a.rng.Float64()*2*maxHz
	z := preprocess.Analytic(x)
	out := make([]float64, len(x))
	for i, v := range z {
		phase := 2 * math.Pi * shift * float64(i) / a.fs
		out[i] = real(v)*math.Cos(phase) - imag(v)*math.Sin(phase)
	}
	return out
}

// MagnitudeWarp multiplies by a smooth random envelope around 1 with one
// knot per second (at least 3).
func (a *Augmenter) MagnitudeWarp(x []float64, sigma float64) []float64 {
	n := len(x)
	if n < 2 {
		return append([]float64(nil), x...)
	}
	knots := a.knots(n)
	ys := make([]float64, len(knots))
	for i := range ys {
		ys[i] = 1 + a.rng.NormFloat64()*sigma
	}
	env, ok := fit(knots, ys)
	if !ok {
		return append([]float64(nil), x...)
	}
	out := make([]float64, n)
	for i, v := range x {
		out[i] = v * env.Predict(float64(i))
	}
	return out
}

// TimeWarp moves every sample i to a smoothly distorted position warp(i)
// and reads the result back on the regular grid.
func (a *Augmenter) TimeWarp(x []float64, sigma float64) []float64 {
	n := len(x)
	if n < 2 {
		return append([]float64(nil), x...)
	}
	warped, ok := a.warpPositions(n, sigma)
	if !ok {
		return append([]float64(nil), x...)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lookup(warped, x, float64(i))
	}
	return out
}

// warpPositions draws a cubic warp through jittered knots and evaluates it
// on 0..n-1, clamped to the signal and made non-decreasing for lookup.
func (a *Augmenter) warpPositions(n int, sigma float64) ([]float64, bool) {
	knots := a.knots(n)
	pos := make([]float64, len(knots))
	for i, k := range knots {
		pos[i] = clamp(k+a.rng.NormFloat64()*sigma*float64(n)/float64(len(knots)), 0, float64(n-1))
	}
	warp, ok := fit(knots, pos)
	if !ok {
		return nil, false
	}
	warped := make([]float64, n)
	for i := range warped {
		warped[i] = clamp(warp.Predict(float64(i)), 0, float64(n-1))
		if i > 0 && warped[i] < warped[i-1] {
			warped[i] = warped[i-1]
		}
	}
	return warped, true
}

// Stats reports the mean and population standard deviation of x.
func Stats(x []float64) (mean, std float64) {
	if len(x) == 0 {
		return 0, 0
	}
	mean, variance := stat.PopMeanVariance(x, nil)
	return mean, math.Sqrt(variance)
}

func (a *Augmenter) knots(n int) []float64 {
	k := int(float64(n) / a.fs)
	if k < 3 {
		k = 3
	}
	out := make([]float64, k)
	floats.Span(out, 0, float64(n-1))
	return out
}

type curve interface {
	Predict(x float64) float64
}

// fit returns a not-a-knot cubic through the knots. With three knots that
// spline is the parabola through them.
func fit(xs, ys []float64) (curve, bool) {
	if len(xs) == 3 {
		var p parabola
		copy(p.xs[:], xs)
		copy(p.ys[:], ys)
		return p, true
	}
	var spline interp.NotAKnotCubic
	if err := spline.Fit(xs, ys); err != nil {
		return nil, false
	}
	return &spline, true
}

type parabola struct {
	xs, ys [3]float64
}

func (p parabola) Predict(x float64) float64 {
	v := 0.0
	for i := 0; i < 3; i++ {
		l := 1.0
		for j := 0; j < 3; j++ {
			if j != i {
				l *= (x - p.xs[j]) / (p.xs[i] - p.xs[j])
			}
		}
		v += p.ys[i] * l
	}
	return v
}

// lookup interpolates linearly through (xp, fp) at v and holds the end
// values outside xp. xp must be non-decreasing.
func lookup(xp, fp []float64, v float64) float64 {
	k := sort.Search(len(xp), func(i int) bool { return xp[i] > v })
	if k == 0 {
		return fp[0]
	}
	if k == len(xp) {
		return fp[len(fp)-1]
	}
	lo := k - 1
	t := (v - xp[lo]) / (xp[k] - xp[lo])
	return fp[lo] + t*(fp[k]-fp[lo])
}

func maxAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
