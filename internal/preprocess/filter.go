package preprocess

import "math"

// Coefficients of one second-order section with a0 normalized to 1.
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Apply runs a transposed direct form II pass over x in place, starting
// from zero state.
func (c Coefficients) Apply(x []float64) {
	c.run(x, 0, 0)
}

// Gain is the section's response at DC.
func (c Coefficients) Gain() float64 {
	den := 1 + c.A1 + c.A2
	if den == 0 {
		return 0
	}
	return (c.B0 + c.B1 + c.B2) / den
}

// applySteady starts from the state a constant input x0 would have settled
// into, so a step at the first sample causes no transient.
func (c Coefficients) applySteady(x []float64, x0 float64) {
	y := c.Gain() * x0
	d1 := c.B2*x0 - c.A2*y
	d0 := c.B1*x0 - c.A1*y + d1
	c.run(x, d0, d1)
}

func (c Coefficients) run(x []float64, d0, d1 float64) {
	for i, v := range x {
		y := c.B0*v + d0
		d0 = c.B1*v - c.A1*y + d1
		d1 = c.B2*v - c.A2*y
		x[i] = y
	}
}

// Cascade is a chain of sections applied in order.
type Cascade []Coefficients

// Apply filters x in place through every section from zero state.
func (cs Cascade) Apply(x []float64) {
	for _, c := range cs {
		c.Apply(x)
	}
}

func (cs Cascade) applySteady(x []float64) {
	if len(x) == 0 {
		return
	}
	x0 := x[0]
	for _, c := range cs {
		c.applySteady(x, x0)
		x0 *= c.Gain()
	}
}

// FiltFilt runs the cascade forward then backward for zero phase. The ends
// are padded with an odd reflection and each pass starts in steady state.
func (cs Cascade) FiltFilt(x []float64) []float64 {
	n := len(x)
	if n == 0 || len(cs) == 0 {
		return append([]float64(nil), x...)
	}
	pad := 3 * (2*len(cs) + 1)
	if pad > n-1 {
		pad = n - 1
	}

	ext := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-pad; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}

	cs.applySteady(ext)
	reverse(ext)
	cs.applySteady(ext)
	reverse(ext)

	return append([]float64(nil), ext[pad:pad+n]...)
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// Lowpass is the RBJ cookbook lowpass section.
func Lowpass(freq, q, fs float64) (Coefficients, bool) {
	w0, ok := normalizedW0(freq, fs)
	if !ok {
		return Coefficients{}, false
	}
	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	return normalize((1-cw)/2, 1-cw, (1-cw)/2, 1+alpha, -2*cw, 1-alpha), true
}

// Highpass is the RBJ cookbook highpass section.
func Highpass(freq, q, fs float64) (Coefficients, bool) {
	w0, ok := normalizedW0(freq, fs)
	if !ok {
		return Coefficients{}, false
	}
	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	return normalize((1+cw)/2, -(1 + cw), (1+cw)/2, 1+alpha, -2*cw, 1-alpha), true
}

// Notch is the RBJ cookbook notch section.
func Notch(freq, q, fs float64) (Coefficients, bool) {
	w0, ok := normalizedW0(freq, fs)
	if !ok || q <= 0 {
		return Coefficients{}, false
	}
	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	return normalize(1, -2*cw, 1, 1+alpha, -2*cw, 1-alpha), true
}

// ButterworthLowpass cascades order/2 sections plus a first-order one for
// odd orders.
func ButterworthLowpass(freq float64, order int, fs float64) (Cascade, bool) {
	return butterworth(freq, order, fs, Lowpass, firstOrderLowpass)
}

// ButterworthHighpass is the highpass counterpart of ButterworthLowpass.
func ButterworthHighpass(freq float64, order int, fs float64) (Cascade, bool) {
	return butterworth(freq, order, fs, Highpass, firstOrderHighpass)
}

// Bandpass chains a highpass at low and a lowpass at high.
func Bandpass(low, high float64, order int, fs float64) (Cascade, bool) {
	hp, ok := ButterworthHighpass(low, order, fs)
	if !ok {
		return nil, false
	}
	lp, ok := ButterworthLowpass(high, order, fs)
	if !ok {
		return nil, false
	}
	return append(hp, lp...), true
}

type sectionFn func(freq, q, fs float64) (Coefficients, bool)

func butterworth(freq float64, order int, fs float64, second sectionFn, first func(freq, fs float64) (Coefficients, bool)) (Cascade, bool) {
	if order <= 0 {
		return nil, false
	}
	cs := make(Cascade, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		c, ok := second(freq, butterworthQ(order, i), fs)
		if !ok {
			return nil, false
		}
		cs = append(cs, c)
	}
	if order%2 != 0 {
		c, ok := first(freq, fs)
		if !ok {
			return nil, false
		}
		cs = append(cs, c)
	}
	return cs, true
}

func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	return 1 / (2 * math.Sin(theta))
}

func firstOrderLowpass(freq, fs float64) (Coefficients, bool) {
	if _, ok := normalizedW0(freq, fs); !ok {
		return Coefficients{}, false
	}
	k := math.Tan(math.Pi * freq / fs)
	norm := 1 / (1 + k)
	return Coefficients{B0: k * norm, B1: k * norm, A1: (k - 1) * norm}, true
}

func firstOrderHighpass(freq, fs float64) (Coefficients, bool) {
	if _, ok := normalizedW0(freq, fs); !ok {
		return Coefficients{}, false
	}
	k := math.Tan(math.Pi * freq / fs)
	norm := 1 / (1 + k)
	return Coefficients{B0: norm, B1: -norm, A1: (k - 1) * norm}, true
}

func normalizedW0(freq, fs float64) (float64, bool) {
	if fs <= 0 || freq <= 0 || freq >= fs/2 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}
	return 2 * math.Pi * freq / fs, true
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	return Coefficients{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0}
}
