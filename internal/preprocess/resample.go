package preprocess

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// Resample changes the length of x to m with Fourier interpolation,
// treating x as one period of a band-limited signal.
func Resample(x []float64, m int) []float64 {
	n := len(x)
	if m <= 0 {
		return nil
	}
	if n == 0 {
		return make([]float64, m)
	}
	if n == m {
		return append([]float64(nil), x...)
	}

	coeff := fourier.NewFFT(n).Coefficients(nil, x)

	// keep the bins both lengths can represent
	out := make([]complex128, m/2+1)
	keep := len(coeff)
	if len(out) < keep {
		keep = len(out)
	}
	copy(out, coeff[:keep])

	// split the shared Nyquist bin when the shorter length is even
	short := n
	if m < n {
		short = m
	}
	if short%2 == 0 {
		k := short / 2
		if k < len(out) {
			if m > n {
				out[k] /= 2
			} else {
				out[k] = complex(2*real(coeff[k]), 0)
			}
		}
	}

	y := fourier.NewFFT(m).Sequence(nil, out)
	scale := 1 / float64(n)
	for i := range y {
		y[i] *= scale
	}
	return y
}
