package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Comparison is one row of the mock model comparison table.
type Comparison struct {
	Name        string  `json:"name"`
	Accuracy    float64 `json:"accuracy"`
	Sensitivity float64 `json:"sensitivity"`
	Specificity float64 `json:"specificity"`
	F1          float64 `json:"f1"`
	AUC         float64 `json:"auc"`
	Params      int     `json:"params"`
}

// MetricNames lists the radar axes, in Metrics order.
var MetricNames = []string{"Accuracy", "Sensitivity", "Specificity", "F1", "AUC"}

// Metrics returns the row's scores in MetricNames order.
func (c Comparison) Metrics() []float64 {
	return []float64{c.Accuracy, c.Sensitivity, c.Specificity, c.F1, c.AUC}
}

// DefaultModel is selected when a session starts.
const DefaultModel = "ResNet-1D"

// Comparisons returns the mock benchmark table.
func Comparisons() []Comparison {
	return []Comparison{
		{Name: "CNN-LSTM", Accuracy: 0.871, Sensitivity: 0.842, Specificity: 0.889, F1: 0.851, AUC: 0.921, Params: 1_420_000},
		{Name: "ResNet-1D", Accuracy: 0.902, Sensitivity: 0.884, Specificity: 0.913, F1: 0.889, AUC: 0.948, Params: 3_870_000},
		{Name: "Transformer", Accuracy: 0.894, Sensitivity: 0.901, Specificity: 0.887, F1: 0.886, AUC: 0.941, Params: 6_120_000},
		{Name: "XGBoost", Accuracy: 0.836, Sensitivity: 0.792, Specificity: 0.861, F1: 0.803, AUC: 0.887, Params: 0},
	}
}

// Lookup finds a comparison row by name.
func Lookup(name string) (Comparison, bool) {
	for _, c := range Comparisons() {
		if c.Name == name {
			return c, true
		}
	}
	return Comparison{}, false
}

// Interval is a two-sided confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Level float64 `json:"level"`
}

// AUCInterval returns the Hanley-McNeil normal-approximation interval for an
// AUC measured on nPos positive and nNeg negative cases.
func AUCInterval(auc float64, nPos, nNeg int, level float64) (Interval, error) {
	if auc <= 0 || auc >= 1 {
		return Interval{}, fmt.Errorf("auc must be in (0, 1): %f", auc)
	}
	if nPos <= 0 || nNeg <= 0 {
		return Interval{}, fmt.Errorf("case counts must be positive: %d/%d", nPos, nNeg)
	}
	if level <= 0 || level >= 1 {
		return Interval{}, fmt.Errorf("level must be in (0, 1): %f", level)
	}

	q1 := auc / (2 - auc)
	q2 := 2 * auc * auc / (1 + auc)
	np, nn := float64(nPos), float64(nNeg)
	variance := (auc*(1-auc) + (np-1)*(q1-auc*auc) + (nn-1)*(q2-auc*auc)) / (np * nn)
	se := math.Sqrt(variance)

	z := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	return Interval{
		Lower: math.Max(0, auc-z*se),
		Upper: math.Min(1, auc+z*se),
		Level: level,
	}, nil
}

// TrainingCurve holds per-epoch mock learning curves.
type TrainingCurve struct {
	Model     string    `json:"model"`
	Epochs    []float64 `json:"epochs"`
	TrainLoss []float64 `json:"train_loss"`
	ValLoss   []float64 `json:"val_loss"`
	TrainAcc  []float64 `json:"train_acc"`
	ValAcc    []float64 `json:"val_acc"`
}

// Curves generates deterministic learning curves that converge toward the
// model's reported accuracy.
func Curves(name string, epochs int, seed int64) TrainingCurve {
	if epochs < 1 {
		epochs = 1
	}
	target := 0.85
	if c, ok := Lookup(name); ok {
		target = c.Accuracy
	}
	rng := rand.New(rand.NewSource(seed + int64(len(name))))

	tc := TrainingCurve{
		Model:     name,
		Epochs:    make([]float64, epochs),
		TrainLoss: make([]float64, epochs),
		ValLoss:   make([]float64, epochs),
		TrainAcc:  make([]float64, epochs),
		ValAcc:    make([]float64, epochs),
	}
	for i := 0; i < epochs; i++ {
		e := float64(i + 1)
		decay := math.Exp(-e / (float64(epochs) / 4))
		jitter := (rng.Float64() - 0.5) * 0.02

		tc.Epochs[i] = e
		tc.TrainLoss[i] = 0.15 + 0.75*decay + jitter
		tc.ValLoss[i] = 0.22 + 0.70*decay + 1.5*jitter
		tc.TrainAcc[i] = math.Min(0.999, 0.5+(target+0.04-0.5)*(1-decay)+jitter)
		tc.ValAcc[i] = math.Min(0.999, 0.5+(target-0.5)*(1-decay)+1.5*jitter)
	}
	return tc
}
