package preprocess

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quality thresholds and bands.
const (
	GoodSNRdB       = 20.0
	noiseBandHz     = 40.0
	baselineBandHz  = 0.5
	qualityFilterOr = 4
)

// Quality summarizes how usable a lead is.
type Quality struct {
	SNRdB          float64 `json:"snr_db"`
	SignalPower    float64 `json:"signal_power"`
	NoisePower     float64 `json:"noise_power"`
	BaselineWander float64 `json:"baseline_wander"`
	MaxAmplitude   float64 `json:"max_amplitude"`
	Score          string  `json:"quality_score"`
}

// Good reports whether the SNR clears GoodSNRdB.
func (q Quality) Good() bool { return q.Score == "good" }

// AssessQuality estimates SNR against the >40 Hz band and baseline wander
// from the <0.5 Hz band. Bands the sampling rate cannot hold contribute zero.
func AssessQuality(x []float64, fs float64) Quality {
	if len(x) == 0 {
		return Quality{Score: "poor"}
	}
	q := Quality{SignalPower: stat.PopVariance(x, nil)}

	if hp, ok := ButterworthHighpass(noiseBandHz, qualityFilterOr, fs); ok {
		q.NoisePower = stat.PopVariance(hp.FiltFilt(x), nil)
	}
	q.SNRdB = 10 * math.Log10(q.SignalPower/(q.NoisePower+1e-10))

	if lp, ok := ButterworthLowpass(baselineBandHz, qualityFilterOr, fs); ok {
		base := lp.FiltFilt(x)
		mean := stat.Mean(base, nil)
		for _, v := range base {
			q.BaselineWander = math.Max(q.BaselineWander, math.Abs(v-mean))
		}
	}

	q.MaxAmplitude = math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
	q.Score = "poor"
	if q.SNRdB > GoodSNRdB {
		q.Score = "good"
	}
	return q
}
