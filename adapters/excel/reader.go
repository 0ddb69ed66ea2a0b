// Package excel imports patient catalogs from xlsx workbooks or CSV files.
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ecgrisk/domain/core"
	"ecgrisk/domain/patient"
	"ecgrisk/internal/errors"
)

// DefaultSeedBase offsets the signal seed of rows without a signal_seed column.
const DefaultSeedBase = 1000

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
}

// NewDataReader creates a new data reader that handles both Excel and CSV files.
// Workbooks are read from their first sheet.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// WithSheet reads a named worksheet instead of the first one.
func (r *DataReader) WithSheet(name string) *DataReader {
	r.sheet = name
	return r
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	f, err := os.Open(r.filePath)
	if os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", r.filePath)
	}
	defer f.Close()

	switch r.fileType {
	case "csv":
		return r.readCSVData(f)
	default:
		return r.readExcelData(f)
	}
}

// readExcelData reads the configured sheet into structured format
func (r *DataReader) readExcelData(src io.Reader) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData(src io.Reader) (*ExcelData, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("file must have a header row and at least one data row")
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	var dataRows []RawRowData
	for _, row := range rows[1:] {
		rowData := make(RawRowData)
		empty := true
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
				if rowData[headers[j]] != "" {
					empty = false
				}
			}
		}
		if !empty {
			dataRows = append(dataRows, rowData)
		}
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{Headers: headers, Rows: dataRows}, nil
}

// ReadPatients reads the file as a patient catalog. Labels are derived from
// LVEF; rows without a signal_seed get DefaultSeedBase plus their index.
func (r *DataReader) ReadPatients() ([]patient.Patient, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	if !data.hasColumn(ColID) || !data.hasColumn(ColName) {
		return nil, errors.InvalidInput("patient catalog needs id and name columns")
	}

	seen := make(map[string]bool, len(data.Rows))
	out := make([]patient.Patient, 0, len(data.Rows))
	now := time.Now().UTC()
	for i, row := range data.Rows {
		p, err := rowToPatient(row, i)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+2)
		}
		if seen[string(p.ID)] {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: duplicate patient %s", i+2, p.ID))
		}
		seen[string(p.ID)] = true
		p.CreatedAt = now
		out = append(out, p)
	}
	log.Printf("[DataReader] Imported %d patients from %s", len(out), filepath.Base(r.filePath))
	return out, nil
}

func rowToPatient(row RawRowData, index int) (patient.Patient, error) {
	p := patient.Patient{
		ID:         core.PatientID(row[ColID]),
		Name:       row[ColName],
		Sex:        strings.ToUpper(row[ColSex]),
		Notes:      row[ColNotes],
		SignalSeed: int64(DefaultSeedBase + index),
	}

	var err error
	if p.Age, err = intCell(row, ColAge); err != nil {
		return p, err
	}
	if p.LVEF, err = floatCell(row, ColLVEF); err != nil {
		return p, err
	}
	if p.Risk, err = floatCell(row, ColRisk); err != nil {
		return p, err
	}
	if v := row[ColSignalSeed]; v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, errors.InvalidInput(fmt.Sprintf("%s %q is not an integer", ColSignalSeed, v))
		}
		p.SignalSeed = seed
	}
	p.Label = patient.ClassifyLVEF(p.LVEF)

	if err := p.Validate(); err != nil {
		return p, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return p, nil
}

func intCell(row RawRowData, col string) (int, error) {
	v := row[col]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.InvalidInput(fmt.Sprintf("%s %q is not an integer", col, v))
	}
	return n, nil
}

func floatCell(row RawRowData, col string) (float64, error) {
	v := strings.TrimSuffix(row[col], "%")
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.InvalidInput(fmt.Sprintf("%s %q is not a number", col, row[col]))
	}
	return f, nil
}

func (d *ExcelData) hasColumn(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}
