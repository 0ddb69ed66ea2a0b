package preprocess

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"ecgrisk/internal/errors"
)

// Savitzky-Golay defaults.
const (
	DefaultSmoothWindow = 51
	DefaultSmoothOrder  = 3
)

// SavgolSmooth replaces every sample with the centre value of a polyorder
// polynomial fitted by least squares to the window around it. An even window
// grows by one. The first and last half windows are read off the polynomial
// fitted to the edge window.
func SavgolSmooth(x []float64, window, polyorder int) ([]float64, error) {
	if window%2 == 0 {
		window++
	}
	if window < 1 || polyorder < 0 || polyorder >= window {
		return nil, errors.InvalidInput(fmt.Sprintf("polynomial order %d must be below window %d", polyorder, window))
	}
	n := len(x)
	if window > n {
		return nil, errors.InvalidInput(fmt.Sprintf("smoothing window %d exceeds signal length %d", window, n))
	}

	half := window / 2
	weights, err := savgolWeights(window, polyorder)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		sum := 0.0
		for k, w := range weights {
			sum += w * x[i-half+k]
		}
		out[i] = sum
	}

	head, err := polyFit(x[:window], polyorder)
	if err != nil {
		return nil, err
	}
	for t := 0; t < half; t++ {
		out[t] = polyEval(head, float64(t))
	}
	tail, err := polyFit(x[n-window:], polyorder)
	if err != nil {
		return nil, err
	}
	for t := window - half; t < window; t++ {
		out[n-window+t] = polyEval(tail, float64(t))
	}
	return out, nil
}

// savgolWeights is the convolution kernel that yields the fitted value at the
// window centre: A (AᵀA)⁻¹ e₀ for the centred Vandermonde matrix A.
func savgolWeights(window, polyorder int) ([]float64, error) {
	a := vandermonde(window, polyorder, -float64(window/2))
	var ata mat.Dense
	ata.Mul(a.T(), a)

	e0 := mat.NewVecDense(polyorder+1, nil)
	e0.SetVec(0, 1)
	var g mat.VecDense
	if err := g.SolveVec(&ata, e0); err != nil {
		return nil, errors.Wrap(err, "savitzky-golay normal equations are singular")
	}
	var h mat.VecDense
	h.MulVec(a, &g)
	return mat.Col(nil, 0, &h), nil
}

// polyFit returns least-squares coefficients c0..cp for y sampled at t=0,1,...
func polyFit(y []float64, polyorder int) ([]float64, error) {
	a := vandermonde(len(y), polyorder, 0)
	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(len(y), append([]float64(nil), y...))); err != nil {
		return nil, errors.Wrap(err, "edge polynomial fit failed")
	}
	return mat.Col(nil, 0, &c), nil
}

func vandermonde(rows, polyorder int, origin float64) *mat.Dense {
	a := mat.NewDense(rows, polyorder+1, nil)
	for i := 0; i < rows; i++ {
		t := origin + float64(i)
		for j := 0; j <= polyorder; j++ {
			a.Set(i, j, math.Pow(t, float64(j)))
		}
	}
	return a
}

func polyEval(c []float64, t float64) float64 {
	v := 0.0
	for j := len(c) - 1; j >= 0; j-- {
		v = v*t + c[j]
	}
	return v
}
