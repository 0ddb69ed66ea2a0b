package preprocess

import (
	"math"

	"github.com/montanaflynn/stats"
)

// madScale converts a median absolute deviation into a Gaussian sigma.
const madScale = 0.6745

// HaarDecompose performs a multi-level Haar DWT. It returns the final
// approximation and details ordered coarsest first, plus the length of
// every intermediate level for reconstruction. Odd lengths repeat the last
// sample. Decomposition stops early once a level would be shorter than 2.
func HaarDecompose(x []float64, level int) (approx []float64, details [][]float64, lengths []int) {
	approx = append([]float64(nil), x...)
	for l := 0; l < level && len(approx) >= 2; l++ {
		lengths = append(lengths, len(approx))
		cur := approx
		if len(cur)%2 != 0 {
			cur = append(cur, cur[len(cur)-1])
		}
		half := len(cur) / 2
		a := make([]float64, half)
		d := make([]float64, half)
		for i := 0; i < half; i++ {
			a[i] = (cur[2*i] + cur[2*i+1]) / math.Sqrt2
			d[i] = (cur[2*i] - cur[2*i+1]) / math.Sqrt2
		}
		approx = a
		details = append([][]float64{d}, details...)
	}
	return approx, details, lengths
}

// HaarReconstruct inverts HaarDecompose.
func HaarReconstruct(approx []float64, details [][]float64, lengths []int) []float64 {
	out := append([]float64(nil), approx...)
	for i, d := range details {
		next := make([]float64, 2*len(d))
		for j := range d {
			next[2*j] = (out[j] + d[j]) / math.Sqrt2
			next[2*j+1] = (out[j] - d[j]) / math.Sqrt2
		}
		n := lengths[len(lengths)-1-i]
		out = next[:n]
	}
	return out
}

// SoftThreshold shrinks every value toward zero by t.
func SoftThreshold(x []float64, t float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		mag := math.Abs(v) - t
		if mag > 0 {
			out[i] = math.Copysign(mag, v)
		}
	}
	return out
}

// WaveletDenoise applies Donoho-Johnstone universal thresholding: sigma is
// the MAD of the finest details and t = sigma*sqrt(2 ln N).
func WaveletDenoise(x []float64, level int) []float64 {
	if len(x) < 2 || level <= 0 {
		return append([]float64(nil), x...)
	}
	approx, details, lengths := HaarDecompose(x, level)
	if len(details) == 0 {
		return append([]float64(nil), x...)
	}

	finest := details[len(details)-1]
	abs := make([]float64, len(finest))
	for i, v := range finest {
		abs[i] = math.Abs(v)
	}
	med, err := stats.Median(abs)
	if err != nil {
		return append([]float64(nil), x...)
	}
	sigma := med / madScale
	t := sigma * math.Sqrt(2*math.Log(float64(len(x))))

	for i, d := range details {
		details[i] = SoftThreshold(d, t)
	}
	return HaarReconstruct(approx, details, lengths)
}
