package preprocess

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"ecgrisk/internal/errors"
)

const eps = 1e-8

// Normalize rescales x with the named method and returns a new slice.
func Normalize(x []float64, method string) ([]float64, error) {
	out := append([]float64(nil), x...)
	if len(x) == 0 || method == NormNone {
		return out, nil
	}

	var center, scale float64
	switch method {
	case NormZScore:
		mean, err := stats.Mean(x)
		if err != nil {
			return nil, errors.Wrap(err, "zscore mean")
		}
		std, err := stats.StandardDeviationPopulation(x)
		if err != nil {
			return nil, errors.Wrap(err, "zscore std")
		}
		center, scale = mean, std
	case NormMinMax:
		lo, hi := floats.Min(x), floats.Max(x)
		center, scale = lo, hi-lo
	case NormRobust:
		median, err := stats.Median(x)
		if err != nil {
			return nil, errors.Wrap(err, "robust median")
		}
		q75, err := stats.Percentile(x, 75)
		if err != nil {
			return nil, errors.Wrap(err, "robust q75")
		}
		q25, err := stats.Percentile(x, 25)
		if err != nil {
			return nil, errors.Wrap(err, "robust q25")
		}
		center, scale = median, q75-q25
	default:
		return nil, errors.InvalidInput("unknown normalization: " + method)
	}

	floats.AddConst(-center, out)
	floats.Scale(1/(scale+eps), out)
	return out, nil
}
