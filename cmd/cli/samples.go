package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
)

// loadSignal reads the first column of a CSV file, or synthesizes a lead
// when path is empty.
func loadSignal(path string, length int, seed int64) (signal.Signal, error) {
	if path == "" {
		return signal.Synthesize(length, seed), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return signal.Signal{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	samples, err := readSamples(f)
	if err != nil {
		return signal.Signal{}, errors.Wrapf(err, "read %s", path)
	}
	return signal.New(samples, 0), nil
}

// readSamples parses the first column of every row, skipping a header.
func readSamples(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []float64
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, errors.InvalidInput("row " + strconv.Itoa(i+1) + ": " + err.Error())
		}
		out = append(out, v)
	}
	return out, nil
}

func writeSamples(w io.Writer, samples []float64, format string) error {
	switch format {
	case "json":
		return json.NewEncoder(w).Encode(samples)
	case "csv", "":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"sample"}); err != nil {
			return err
		}
		for _, v := range samples {
			if err := cw.Write([]string{strconv.FormatFloat(v, 'f', 6, 64)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return errors.InvalidInput("unknown format " + format)
	}
}

func writeSamplesFile(path string, samples []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	return writeSamples(f, samples, "csv")
}
