// Package preprocess cleans raw ECG leads before they reach a model:
// band-limiting, powerline removal, wavelet denoising, normalization and
// resampling, plus a signal quality report.
package preprocess

import (
	"fmt"

	"ecgrisk/internal/errors"
)

// Normalization methods.
const (
	NormZScore = "zscore"
	NormMinMax = "minmax"
	NormRobust = "robust"
	NormNone   = "none"
)

// Config holds pipeline parameters.
type Config struct {
	SamplingRate  float64 `json:"sampling_rate"`
	TargetLength  int     `json:"target_length"`
	LowCut        float64 `json:"low_cut"`
	HighCut       float64 `json:"high_cut"`
	FilterOrder   int     `json:"filter_order"`
	NotchFreq     float64 `json:"notch_freq"`
	NotchQuality  float64 `json:"notch_quality"`
	WaveletLevel  int     `json:"wavelet_level"`
	SmoothWindow  int     `json:"smooth_window,omitempty"`
	SmoothOrder   int     `json:"smooth_order,omitempty"`
	Normalization string  `json:"normalization"`
}

// DefaultConfig matches the dashboard's synthesized 100 Hz, 500-sample leads.
// The 50 Hz notch sits at Nyquist there and is skipped.
func DefaultConfig() Config {
	return Config{
		SamplingRate:  100,
		TargetLength:  500,
		LowCut:        0.5,
		HighCut:       45,
		FilterOrder:   4,
		NotchFreq:     50,
		NotchQuality:  30,
		WaveletLevel:  4,
		Normalization: NormZScore,
	}
}

// ClinicalConfig is for 10 s, 500 Hz 12-lead recordings.
func ClinicalConfig() Config {
	c := DefaultConfig()
	c.SamplingRate = 500
	c.TargetLength = 5000
	return c
}

// Validate rejects configurations the filters cannot realize.
func (c Config) Validate() error {
	if c.SamplingRate <= 0 {
		return errors.InvalidInput("sampling rate must be positive")
	}
	if c.TargetLength <= 0 {
		return errors.InvalidInput("target length must be positive")
	}
	if !(0 < c.LowCut && c.LowCut < c.HighCut) {
		return errors.InvalidInput(fmt.Sprintf("invalid cutoffs %.2f-%.2f Hz", c.LowCut, c.HighCut))
	}
	if c.HighCut >= c.SamplingRate/2 {
		return errors.InvalidInput(fmt.Sprintf("high cut %.2f Hz must be below Nyquist %.2f Hz", c.HighCut, c.SamplingRate/2))
	}
	if c.FilterOrder <= 0 {
		return errors.InvalidInput("filter order must be positive")
	}
	if c.WaveletLevel < 0 {
		return errors.InvalidInput("wavelet level must be >= 0")
	}
	if c.SmoothWindow < 0 {
		return errors.InvalidInput("smoothing window must be >= 0")
	}
	if c.SmoothWindow > 0 && (c.SmoothOrder < 0 || c.SmoothOrder >= c.SmoothWindow|1) {
		return errors.InvalidInput(fmt.Sprintf("smoothing order %d must be below window %d", c.SmoothOrder, c.SmoothWindow|1))
	}
	switch c.Normalization {
	case NormZScore, NormMinMax, NormRobust, NormNone:
	default:
		return errors.InvalidInput("unknown normalization: " + c.Normalization)
	}
	return nil
}
