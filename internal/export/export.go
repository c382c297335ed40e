// Package export serializes the full record list to CSV, XLSX, or JSON
// files. Exports always cover the complete record store, never the
// filtered or paginated view.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"assetscan/internal/models"
	"github.com/xuri/excelize/v2"
)

// ToCSV writes the records as CSV with a header row in canonical column
// order.
func ToCSV(records []models.AssetRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Values()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ToJSON writes the records as a 2-space-indented JSON array. All fields
// stay strings, so a reparse yields the exact original values.
func ToJSON(records []models.AssetRecord, path string) error {
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ToXLSX writes the records to a single "Assets" worksheet.
func ToXLSX(records []models.AssetRecord, path string) error {
	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "Assets"
	idx, err := wb.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	wb.SetActiveSheet(idx)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]interface{}, len(models.Columns))
	for i, col := range models.Columns {
		header[i] = col
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		row := make([]interface{}, len(models.Columns))
		for j, val := range rec.Values() {
			row[j] = val
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
