package preprocess

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
)

func sine(n int, freq, fs, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return out
}

func rms(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s / float64(len(x)))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rate", func(c *Config) { c.SamplingRate = 0 }},
		{"zero target", func(c *Config) { c.TargetLength = 0 }},
		{"inverted cutoffs", func(c *Config) { c.LowCut, c.HighCut = 10, 5 }},
		{"above nyquist", func(c *Config) { c.HighCut = 60 }},
		{"zero order", func(c *Config) { c.FilterOrder = 0 }},
		{"negative level", func(c *Config) { c.WaveletLevel = -1 }},
		{"bad normalization", func(c *Config) { c.Normalization = "l2" }},
		{"negative smoothing window", func(c *Config) { c.SmoothWindow = -1 }},
		{"smoothing order too high", func(c *Config) { c.SmoothWindow, c.SmoothOrder = 4, 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeInvalidInput))
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, ClinicalConfig().Validate())
}

func TestLowpassKeepsDC(t *testing.T) {
	lp, ok := ButterworthLowpass(10, 4, 100)
	require.True(t, ok)
	require.Len(t, lp, 2)

	x := make([]float64, 200)
	for i := range x {
		x[i] = 3
	}
	for _, v := range lp.FiltFilt(x) {
		assert.InDelta(t, 3, v, 1e-9)
	}
}

func TestOddOrderAddsFirstOrderSection(t *testing.T) {
	hp, ok := ButterworthHighpass(1, 3, 100)
	require.True(t, ok)
	require.Len(t, hp, 2)
	assert.Zero(t, hp[1].B2)
	assert.InDelta(t, 0, hp[1].Gain(), 1e-12)
}

func TestBandpassRemovesOffsetKeepsBeat(t *testing.T) {
	bp, ok := Bandpass(0.5, 45, 4, 100)
	require.True(t, ok)

	fs, n := 100.0, 1000
	clean := sine(n, 5, fs, 1)
	x := make([]float64, n)
	for i := range x {
		x[i] = clean[i] + 2
	}
	y := bp.FiltFilt(x)
	require.Len(t, y, n)
	// the odd extension shifts the level at each end by 2*x[end]; the 0.5 Hz
	// highpass rings off that step with a time constant of about 83 samples
	margin := 300
	for i := margin; i < n-margin; i++ {
		assert.InDelta(t, clean[i], y[i], 0.05, "sample %d", i)
	}
	m, err := stats.Mean(y[margin : n-margin])
	require.NoError(t, err)
	assert.InDelta(t, 0, m, 0.01)
}

func TestNotch(t *testing.T) {
	_, ok := Notch(50, 30, 100)
	assert.False(t, ok, "notch at Nyquist")

	n, ok := Notch(50, 30, 500)
	require.True(t, ok)
	hum := sine(2000, 50, 500, 1)
	y := Cascade{n}.FiltFilt(hum)
	assert.Less(t, rms(y[500:1500]), 0.05)

	beat := sine(2000, 5, 500, 1)
	y = Cascade{n}.FiltFilt(beat)
	assert.InDelta(t, rms(beat[500:1500]), rms(y[500:1500]), 0.01)
}

func TestHaarPerfectReconstruction(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := make([]float64, 37)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	approx, details, lengths := HaarDecompose(x, 3)
	require.Len(t, details, 3)
	assert.Equal(t, []int{37, 19, 10}, lengths)
	assert.Len(t, approx, 5)

	y := HaarReconstruct(approx, details, lengths)
	require.Len(t, y, 37)
	for i := range x {
		assert.InDelta(t, x[i], y[i], 1e-12)
	}
}

func TestHaarStopsOnShortInput(t *testing.T) {
	approx, details, _ := HaarDecompose([]float64{1, 2, 3}, 10)
	assert.Len(t, details, 2)
	assert.Len(t, approx, 1)
}

func TestSoftThreshold(t *testing.T) {
	assert.Equal(t, []float64{0, 1, -2, 0}, SoftThreshold([]float64{0.5, 2, -3, -1}, 1))
}

func TestWaveletDenoiseReducesNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	clean := sine(512, 1, 100, 1)
	noisy := make([]float64, len(clean))
	for i := range clean {
		noisy[i] = clean[i] + 0.2*rng.NormFloat64()
	}
	out := WaveletDenoise(noisy, 4)
	require.Len(t, out, len(clean))

	errBefore := make([]float64, len(clean))
	errAfter := make([]float64, len(clean))
	for i := range clean {
		errBefore[i] = noisy[i] - clean[i]
		errAfter[i] = out[i] - clean[i]
	}
	assert.Less(t, rms(errAfter), rms(errBefore))
}

func TestNormalize(t *testing.T) {
	x := []float64{1, 2, 3, 4, 100}

	z, err := Normalize(x, NormZScore)
	require.NoError(t, err)
	mean, _ := stats.Mean(z)
	std, _ := stats.StandardDeviationPopulation(z)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-6)

	mm, err := Normalize(x, NormMinMax)
	require.NoError(t, err)
	assert.InDelta(t, 0, mm[0], 1e-9)
	assert.InDelta(t, 1, mm[4], 1e-6)

	r, err := Normalize(x, NormRobust)
	require.NoError(t, err)
	assert.InDelta(t, 0, r[2], 1e-9)

	same, err := Normalize(x, NormNone)
	require.NoError(t, err)
	assert.Equal(t, x, same)

	_, err = Normalize(x, "l2")
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	assert.Equal(t, []float64{1, 2, 3, 4, 100}, x, "input untouched")
}

func TestResample(t *testing.T) {
	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 1.5
	}
	for _, v := range Resample(flat, 75) {
		assert.InDelta(t, 1.5, v, 1e-9)
	}

	x := sine(100, 2, 100, 1)
	down := Resample(x, 50)
	require.Len(t, down, 50)
	for i, v := range down {
		assert.InDelta(t, math.Sin(2*math.Pi*2*float64(i)/50), v, 1e-9)
	}

	up := Resample(x, 250)
	require.Len(t, up, 250)
	for i, v := range up {
		assert.InDelta(t, math.Sin(2*math.Pi*2*float64(i)/250), v, 1e-9)
	}

	assert.Nil(t, Resample(x, 0))
	assert.Equal(t, x, Resample(x, 100))
}

func TestAssessQuality(t *testing.T) {
	good := AssessQuality(sine(5000, 1, 500, 1), 500)
	assert.True(t, good.Good())
	assert.InDelta(t, 1, good.MaxAmplitude, 1e-3)
	assert.InDelta(t, 0.5, good.SignalPower, 1e-3)

	rng := rand.New(rand.NewSource(3))
	noise := make([]float64, 5000)
	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
	}
	poor := AssessQuality(noise, 500)
	assert.False(t, poor.Good())
	assert.Equal(t, "poor", poor.Score)

	assert.Equal(t, "poor", AssessQuality(nil, 500).Score)
}

func TestPipelineProcess(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	res, err := p.Process(signal.Synthesize(500, 1))
	require.NoError(t, err)
	require.Equal(t, 500, res.Signal.Len())
	assert.Equal(t, 100.0, res.Signal.SampleRate())

	mean, _ := stats.Mean(res.Signal.Samples())
	std, _ := stats.StandardDeviationPopulation(res.Signal.Samples())
	assert.InDelta(t, 0, mean, 1e-6)
	assert.InDelta(t, 1, std, 1e-6)

	_, err = p.Process(signal.Signal{})
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestPipelineResamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetLength = 250
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	res, err := p.Process(signal.Synthesize(500, 1))
	require.NoError(t, err)
	assert.Equal(t, 250, res.Signal.Len())
	assert.Equal(t, 50.0, res.Signal.SampleRate())
}

func TestPipelineSmoothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SmoothWindow, cfg.SmoothOrder = DefaultSmoothWindow, DefaultSmoothOrder
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	res, err := p.Process(signal.Synthesize(500, 1))
	require.NoError(t, err)
	assert.Equal(t, 500, res.Signal.Len())

	_, err = p.Process(signal.Synthesize(20, 1))
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestBatchPreservesOrder(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	var sigs []signal.Signal
	for i := 0; i < 12; i++ {
		sigs = append(sigs, signal.Synthesize(500, int64(i)))
	}
	results, err := p.Batch(context.Background(), sigs, 3)
	require.NoError(t, err)
	require.Len(t, results, len(sigs))

	for i, sig := range sigs {
		want, err := p.Process(sig)
		require.NoError(t, err)
		assert.Equal(t, want.Signal.Samples(), results[i].Signal.Samples())
	}

	_, err = p.Batch(context.Background(), append(sigs, signal.Signal{}), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signal 12")
}

func TestSavgolKeepsCubicsExactly(t *testing.T) {
	x := make([]float64, 60)
	for i := range x {
		v := float64(i)
		x[i] = 0.001*v*v*v - 0.02*v*v + v - 3
	}
	y, err := SavgolSmooth(x, 11, 3)
	require.NoError(t, err)
	require.Len(t, y, len(x))
	for i := range x {
		assert.InDelta(t, x[i], y[i], 1e-6, "sample %d", i)
	}
}

func TestSavgolWeights(t *testing.T) {
	w, err := savgolWeights(5, 2)
	require.NoError(t, err)
	want := []float64{-3, 12, 17, 12, -3}
	for i := range want {
		assert.InDelta(t, want[i]/35, w[i], 1e-12)
	}
}

func TestSavgolSmoothReducesNoise(t *testing.T) {
	clean := sine(1000, 2, 500, 1)
	rng := rand.New(rand.NewSource(3))
	noisy := make([]float64, len(clean))
	for i := range noisy {
		noisy[i] = clean[i] + 0.2*rng.NormFloat64()
	}
	y, err := SavgolSmooth(noisy, DefaultSmoothWindow, DefaultSmoothOrder)
	require.NoError(t, err)

	before := make([]float64, len(clean))
	after := make([]float64, len(clean))
	for i := range clean {
		before[i] = noisy[i] - clean[i]
		after[i] = y[i] - clean[i]
	}
	assert.Less(t, rms(after), rms(before)/2)
}

func TestSavgolWindowHandling(t *testing.T) {
	x := sine(100, 3, 100, 1)
	even, err := SavgolSmooth(x, 10, 3)
	require.NoError(t, err)
	odd, err := SavgolSmooth(x, 11, 3)
	require.NoError(t, err)
	assert.Equal(t, odd, even)

	tests := []struct {
		name      string
		window    int
		polyorder int
	}{
		{"window longer than signal", 101, 3},
		{"order not below window", 5, 5},
		{"negative order", 5, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SavgolSmooth(x, tt.window, tt.polyorder)
			assert.True(t, errors.Is(err, errors.CodeInvalidInput))
		})
	}
}

func TestAnalyticOfCosineIsComplexExponential(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"even length", 200},
		{"odd length", 190},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// whole number of periods in both cases
			fs, f := 100.0, 10.0
			x := make([]float64, tt.n)
			for i := range x {
				x[i] = math.Cos(2 * math.Pi * f * float64(i) / fs)
			}
			z := Analytic(x)
			require.Len(t, z, tt.n)
			for i, v := range z {
				assert.InDelta(t, x[i], real(v), 1e-9)
				assert.InDelta(t, math.Sin(2*math.Pi*f*float64(i)/fs), imag(v), 1e-9)
			}
		})
	}
	assert.Nil(t, Analytic(nil))
}
