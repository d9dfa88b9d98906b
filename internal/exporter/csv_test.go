package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pdmotion/internal/endpoints"
	"pdmotion/internal/filtertree"
)

func sampleRecords() []filtertree.FilteredRecord {
	return []filtertree.FilteredRecord{
		{
			EpochIndex:     0,
			HandMovement:   filtertree.BinaryState{Applicable: true, Positive: false},
			Gait:           filtertree.BinaryState{Applicable: true, Positive: false},
			TremorPresence: filtertree.BinaryState{Applicable: true, Positive: true},
			TremorAmplitude: filtertree.ContinuousState{
				Applicable: true, Value: 0.125,
			},
		},
		{
			EpochIndex:            1,
			HandMovement:          filtertree.BinaryState{Applicable: true, Positive: true},
			HandMovementAmplitude: filtertree.ContinuousState{Applicable: true, Value: 0.5},
			HandMovementJerk:      filtertree.ContinuousState{Applicable: true, Value: 2},
		},
	}
}

func sampleMeasures() map[string]endpoints.SummaryMeasure {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	return map[string]endpoints.SummaryMeasure{
		endpoints.MeasureTremorConstancy: {
			WindowStart: start, WindowEnd: end,
			Name: endpoints.MeasureTremorConstancy, Value: 0.5,
		},
		endpoints.MeasureHandMovementJerkP95: {
			WindowStart: start, WindowEnd: end,
			Name: endpoints.MeasureHandMovementJerkP95, Insufficient: true,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteRecordsCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)
	require.NoError(t, w.WriteRecordsCSV("records.csv", sampleRecords()))

	rows := readCSV(t, filepath.Join(dir, "records.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, recordHeaders, rows[0])

	// Rest epoch with tremor: amplitude present, movement axes NA.
	assert.Equal(t, []string{"0", "no", "no", "yes", "0.125", "NA", "NA"}, rows[1])
	// Movement epoch: tremor axes NA, never zero.
	assert.Equal(t, []string{"1", "yes", "NA", "NA", "NA", "0.5", "2"}, rows[2])
}

func TestWriteSummaryCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)
	require.NoError(t, w.WriteSummaryCSV("summary.csv", sampleMeasures()))

	rows := readCSV(t, filepath.Join(dir, "summary.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, summaryHeaders, rows[0])

	// Rows sorted by measure name.
	assert.Equal(t, endpoints.MeasureHandMovementJerkP95, rows[1][2])
	assert.Equal(t, "NA", rows[1][3], "insufficient measure exports NA, not zero")
	assert.Equal(t, "true", rows[1][4])

	assert.Equal(t, endpoints.MeasureTremorConstancy, rows[2][2])
	assert.Equal(t, "0.5", rows[2][3])
	assert.Equal(t, "false", rows[2][4])
}

func TestWriteCSVCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)
	require.NoError(t, w.WriteRecordsCSV(filepath.Join("nested", "records.csv"), sampleRecords()))
	_, err := os.Stat(filepath.Join(dir, "nested", "records.csv"))
	assert.NoError(t, err)
}

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)
	require.NoError(t, w.WriteWorkbook("results.xlsx", sampleRecords(), sampleMeasures()))

	f, err := excelize.OpenFile(filepath.Join(dir, "results.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	recRows, err := f.GetRows(recordsSheet)
	require.NoError(t, err)
	require.Len(t, recRows, 3)
	assert.Equal(t, recordHeaders, recRows[0])
	assert.Equal(t, "NA", recRows[2][2])

	sumRows, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, sumRows, 3)
	assert.Equal(t, summaryHeaders, sumRows[0])
}
