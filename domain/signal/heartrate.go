package signal

import "time"

// HRDetector finds R peaks by upward threshold crossings and reports BPM from
// consecutive peak intervals.
type HRDetector struct {
	threshold   float64
	refractory  time.Duration
	lastPeak    time.Duration
	hasPeak     bool
	lastValue   float64
	initialized bool
}

// NewHRDetector returns a detector with a 0.6 threshold and 200ms refractory period.
func NewHRDetector() *HRDetector {
	return &HRDetector{
		threshold:  0.6,
		refractory: 200 * time.Millisecond,
	}
}

// WithThreshold sets the crossing threshold.
func (h *HRDetector) WithThreshold(v float64) *HRDetector {
	h.threshold = v
	return h
}

// Process consumes one sample at elapsed time at. It returns BPM when a new
// beat closes an R-R interval.
func (h *HRDetector) Process(value float64, at time.Duration) (int, bool) {
	if !h.initialized {
		h.initialized = true
		h.lastValue = value
		return 0, false
	}

	crossed := h.lastValue < h.threshold && value >= h.threshold
	h.lastValue = value
	if !crossed {
		return 0, false
	}
	if h.hasPeak && at-h.lastPeak <= h.refractory {
		return 0, false
	}

	if !h.hasPeak {
		h.hasPeak = true
		h.lastPeak = at
		return 0, false
	}

	rr := (at - h.lastPeak).Seconds()
	h.lastPeak = at
	if rr <= 0 {
		return 0, false
	}
	return int(60.0 / rr), true
}

// Reset forgets all detector history.
func (h *HRDetector) Reset() {
	h.hasPeak = false
	h.initialized = false
	h.lastPeak = 0
	h.lastValue = 0
}

// HeartRate estimates the mean BPM of a signal, or 0 when fewer than two
// peaks cross threshold.
func HeartRate(s Signal, threshold float64) int {
	d := NewHRDetector().WithThreshold(threshold)
	period := time.Duration(float64(time.Second) / s.SampleRate())

	sum, n := 0, 0
	for i := 0; i < s.Len(); i++ {
		if bpm, ok := d.Process(s.At(i), time.Duration(i)*period); ok {
			sum += bpm
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}
