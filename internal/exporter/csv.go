// Package exporter writes per-epoch records and window summaries to CSV
// files or a single XLSX workbook.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"pdmotion/internal/endpoints"
	"pdmotion/internal/filtertree"
)

// recordHeaders is the per-epoch record column order.
var recordHeaders = []string{
	"epoch_index",
	"hand_movement",
	"gait",
	"tremor_presence",
	"tremor_amplitude",
	"hand_movement_amplitude",
	"hand_movement_jerk",
}

// summaryHeaders is the summary measure column order.
var summaryHeaders = []string{
	"window_start",
	"window_end",
	"measure",
	"value",
	"insufficient",
}

// Writer exports results under a base directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates an exporter rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// WriteRecordsCSV writes the per-epoch records to name under the base
// directory. Gated-off axes export as the NA marker, never as zero.
func (w *Writer) WriteRecordsCSV(name string, records []filtertree.FilteredRecord) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRow(rec))
	}
	return w.writeCSV(name, recordHeaders, rows)
}

// WriteSummaryCSV writes the window summary measures to name under the
// base directory, one row per measure, sorted by measure name.
func (w *Writer) WriteSummaryCSV(name string, measures map[string]endpoints.SummaryMeasure) error {
	return w.writeCSV(name, summaryHeaders, summaryRows(measures))
}

// writeCSV creates the target file, writing headers then rows.
func (w *Writer) writeCSV(name string, headers []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	w.logger.Info("csv written", "path", path, "rows", len(rows))
	return nil
}

func recordRow(rec filtertree.FilteredRecord) []string {
	return []string{
		formatInt(rec.EpochIndex),
		formatBinary(rec.HandMovement),
		formatBinary(rec.Gait),
		formatBinary(rec.TremorPresence),
		formatContinuous(rec.TremorAmplitude),
		formatContinuous(rec.HandMovementAmplitude),
		formatContinuous(rec.HandMovementJerk),
	}
}

func summaryRows(measures map[string]endpoints.SummaryMeasure) [][]string {
	names := make([]string, 0, len(measures))
	for name := range measures {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		m := measures[name]
		value := naMarker
		if !m.Insufficient {
			value = formatFloat(m.Value)
		}
		rows = append(rows, []string{
			m.WindowStart.Format(timeLayout),
			m.WindowEnd.Format(timeLayout),
			m.Name,
			value,
			formatBool(m.Insufficient),
		})
	}
	return rows
}
