package preprocess

import "gonum.org/v1/gonum/dsp/fourier"

// Analytic returns x + i·H(x), where H is the Hilbert transform. Negative
// frequency bins are zeroed and positive ones doubled; DC and, for even
// lengths, Nyquist are kept as they are.
func Analytic(x []float64) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}
	seq := make([]complex128, n)
	for i, v := range x {
		seq[i] = complex(v, 0)
	}
	fft := fourier.NewCmplxFFT(n)
	coeff := fft.Coefficients(nil, seq)

	for k := 1; k < n; k++ {
		switch {
		case 2*k < n:
			coeff[k] *= 2
		case 2*k > n:
			coeff[k] = 0
		}
	}

	out := fft.Sequence(nil, coeff)
	scale := complex(1/float64(n), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}
