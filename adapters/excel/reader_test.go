package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"ecgrisk/domain/core"
	"ecgrisk/domain/patient"
	"ecgrisk/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Cases"))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Cases", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "cases.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadPatientsFromWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"ID", "Name", "Age", "Sex", "LVEF", "Risk", "Signal_Seed", "Notes"},
		{"c-1", "Low EF", 70, "m", 30, 0.9, 7, "**note**"},
		{"c-2", "Normal", 50, "F", "55%", 0.1, "", ""},
		{"", "", "", "", "", "", "", ""},
	})

	patients, err := NewDataReader(path).ReadPatients()
	require.NoError(t, err)
	require.Len(t, patients, 2)

	assert.Equal(t, core.PatientID("c-1"), patients[0].ID)
	assert.Equal(t, "M", patients[0].Sex)
	assert.Equal(t, patient.LabelLVSD, patients[0].Label)
	assert.Equal(t, int64(7), patients[0].SignalSeed)

	assert.Equal(t, 55.0, patients[1].LVEF)
	assert.Equal(t, patient.LabelNormal, patients[1].Label)
	assert.Equal(t, int64(DefaultSeedBase+1), patients[1].SignalSeed)
}

func TestReadPatientsFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,lvef\nc-9,Case,38\n"), 0o644))

	patients, err := NewDataReader(path).ReadPatients()
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, patient.LabelLVSD, patients[0].Label)
}

func TestReadPatientsRejects(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"missing name column", "id,lvef\nc-1,40\n"},
		{"bad number", "id,name,lvef\nc-1,A,abc\n"},
		{"out of range", "id,name,lvef\nc-1,A,140\n"},
		{"duplicate", "id,name\nc-1,A\nc-1,B\n"},
		{"header only", "id,name\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := NewDataReader(path).ReadPatients()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeInvalidInput), err.Error())
		})
	}
}

func TestReadDataMissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.xlsx")).ReadData()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestWithSheet(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{{"id", "name"}, {"c-1", "A"}})
	_, err := NewDataReader(path).WithSheet("Missing").ReadData()
	assert.Error(t, err)

	data, err := NewDataReader(path).WithSheet("Cases").ReadData()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, data.Headers)
}
