// Package export writes session data for offline review: an xlsx workbook
// and HTML patient notes.
package export

import (
	"io"
	"log"

	"github.com/xuri/excelize/v2"

	"ecgrisk/domain/model"
	"ecgrisk/domain/patient"
	"ecgrisk/domain/signal"
	"ecgrisk/internal/errors"
	"ecgrisk/internal/preprocess"
)

// Sheet names.
const (
	SheetPatient     = "Patient"
	SheetSignal      = "Signal"
	SheetPredictions = "Predictions"
	SheetModels      = "Models"
)

// Validation cohort behind the AUC intervals on the Models sheet.
const (
	ValidationPositives = 250
	ValidationNegatives = 750
	IntervalLevel       = 0.95
)

// Report is everything one workbook holds.
type Report struct {
	Patient     *patient.Patient
	Signal      signal.Signal
	Quality     *preprocess.Quality
	Predictions []model.Prediction
	Comparisons []model.Comparison
}

// WriteWorkbook renders r as xlsx to w.
func WriteWorkbook(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet1 is renamed rather than left empty
	if err := f.SetSheetName("Sheet1", SheetPatient); err != nil {
		return errors.Wrap(err, "failed to name patient sheet")
	}
	if err := writePatient(f, r); err != nil {
		return err
	}
	for _, s := range []struct {
		name  string
		write func(*excelize.File, Report) error
	}{
		{SheetSignal, writeSignal},
		{SheetPredictions, writePredictions},
		{SheetModels, writeModels},
	} {
		if _, err := f.NewSheet(s.name); err != nil {
			return errors.Wrapf(err, "failed to create %s sheet", s.name)
		}
		if err := s.write(f, r); err != nil {
			return errors.Wrapf(err, "failed to write %s sheet", s.name)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	log.Printf("[Export] Workbook written: %d samples, %d predictions, %d models",
		r.Signal.Len(), len(r.Predictions), len(r.Comparisons))
	return nil
}

func writePatient(f *excelize.File, r Report) error {
	rows := [][]interface{}{{"Field", "Value"}}
	if p := r.Patient; p != nil {
		rows = append(rows,
			[]interface{}{"ID", p.ID.String()},
			[]interface{}{"Name", p.Name},
			[]interface{}{"Age", p.Age},
			[]interface{}{"Sex", p.Sex},
			[]interface{}{"LVEF (%)", p.LVEF},
			[]interface{}{"Label", string(p.Label)},
			[]interface{}{"Risk", p.Risk},
			[]interface{}{"Notes", p.Notes},
		)
	}
	if q := r.Quality; q != nil {
		rows = append(rows,
			[]interface{}{"SNR (dB)", q.SNRdB},
			[]interface{}{"Baseline wander", q.BaselineWander},
			[]interface{}{"Quality", q.Score},
		)
	}
	return writeRows(f, SheetPatient, rows)
}

func writeSignal(f *excelize.File, r Report) error {
	rows := make([][]interface{}, 0, r.Signal.Len()+1)
	rows = append(rows, []interface{}{"Index", "Time (s)", "Value"})
	fs := r.Signal.SampleRate()
	for i := 0; i < r.Signal.Len(); i++ {
		rows = append(rows, []interface{}{i, float64(i) / fs, r.Signal.At(i)})
	}
	return writeRows(f, SheetSignal, rows)
}

func writePredictions(f *excelize.File, r Report) error {
	rows := [][]interface{}{{"Model", "Value", "Confidence", "Label", "At"}}
	for _, p := range r.Predictions {
		rows = append(rows, []interface{}{p.Model, p.Value, p.Confidence, p.Label, p.At})
	}
	return writeRows(f, SheetPredictions, rows)
}

func writeModels(f *excelize.File, r Report) error {
	rows := [][]interface{}{{"Model", "Accuracy", "Sensitivity", "Specificity", "F1", "AUC", "AUC lower", "AUC upper", "Params"}}
	for _, c := range r.Comparisons {
		row := []interface{}{c.Name, c.Accuracy, c.Sensitivity, c.Specificity, c.F1, c.AUC, "", "", c.Params}
		if ci, err := model.AUCInterval(c.AUC, ValidationPositives, ValidationNegatives, IntervalLevel); err == nil {
			row[6], row[7] = ci.Lower, ci.Upper
		}
		rows = append(rows, row)
	}
	return writeRows(f, SheetModels, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
