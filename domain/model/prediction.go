package model

import "time"

// RiskThreshold splits predicted risk into the LVSD and Normal labels.
const RiskThreshold = 0.5

// Prediction is one risk estimate for a signal.
type Prediction struct {
	Value      float64   `json:"value"`
	Confidence float64   `json:"confidence"`
	Label      string    `json:"label"`
	Model      string    `json:"model"`
	At         time.Time `json:"at"`
}

// LabelFor maps a risk value to its display label.
func LabelFor(value float64) string {
	if value >= RiskThreshold {
		return "LVSD"
	}
	return "Normal"
}
