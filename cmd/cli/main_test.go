package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestSynthCSVAndJSON(t *testing.T) {
	csvOut := run(t, newSynthCmd(), "--length", "5", "--seed", "3")
	lines := strings.Split(strings.TrimSpace(csvOut), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "sample", lines[0])

	var samples []float64
	require.NoError(t, json.Unmarshal([]byte(run(t, newSynthCmd(), "--length", "5", "--seed", "3", "--format", "json")), &samples))
	assert.Len(t, samples, 5)

	got, err := readSamples(strings.NewReader(csvOut))
	require.NoError(t, err)
	assert.InDeltaSlice(t, samples, got, 1e-6)
}

func TestReadSamplesRejectsGarbage(t *testing.T) {
	_, err := readSamples(strings.NewReader("sample\n1.0\nabc\n"))
	assert.Error(t, err)
}

func TestRenderWritesFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"lead.png", "lead.svg"} {
		path := filepath.Join(dir, name)
		run(t, newRenderCmd(), "--seed", "2", "-o", path)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	svgBody, err := os.ReadFile(filepath.Join(dir, "lead.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svgBody), "<polyline")
}

func TestPreprocessReportsQuality(t *testing.T) {
	out := run(t, newPreprocessCmd(), "--seed", "4")
	var q map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.NotEmpty(t, q)
}

func TestPreprocessSmoothing(t *testing.T) {
	out := run(t, newPreprocessCmd(), "--seed", "4", "--smooth", "21")
	var q map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.NotEmpty(t, q)

	cmd := newPreprocessCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--smooth", "5", "--smooth-order", "7"})
	assert.Error(t, cmd.Execute())
}

func TestAugmentPrintsEverySample(t *testing.T) {
	out := run(t, newAugmentCmd(), "--per-signal", "2", "--steps", "gaussian_noise,time_shift")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header + 6 catalog leads * (original + 1 copy)
	assert.Len(t, lines, 1+6*2)

	cmd := newAugmentCmd()
	cmd.SetArgs([]string{"--steps", "nope"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestExportWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	out := run(t, newExportCmd(), "--patient", "pt-003", "-o", path)
	assert.Contains(t, out, "4 predictions")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Patient", "Signal", "Predictions", "Models"}, f.GetSheetList())
}

func TestCurvesUnknownModel(t *testing.T) {
	cmd := newCurvesCmd()
	cmd.SetArgs([]string{"--model", "nope", "-o", filepath.Join(t.TempDir(), "c.png")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
