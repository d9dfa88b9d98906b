package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pdmotion/internal/endpoints"
	"pdmotion/internal/filtertree"
)

const (
	recordsSheet = "Records"
	summarySheet = "Summary"
)

// WriteWorkbook writes records and summary measures into one XLSX
// workbook with a sheet for each.
func (w *Writer) WriteWorkbook(name string, records []filtertree.FilteredRecord, measures map[string]endpoints.SummaryMeasure) error {
	path := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return fmt.Errorf("name records sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	recordRows := make([][]string, 0, len(records))
	for _, rec := range records {
		recordRows = append(recordRows, recordRow(rec))
	}
	if err := writeSheet(f, recordsSheet, recordHeaders, recordRows); err != nil {
		return err
	}
	if err := writeSheet(f, summarySheet, summaryHeaders, summaryRows(measures)); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	w.logger.Info("workbook written", "path", path, "records", len(records), "measures", len(measures))
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, rowNum, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}
