package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// Sheet is one worksheet of a workbook export
type Sheet struct {
	Name    string
	Headers []string
	Records [][]string
}

// WriteWorkbook writes every sheet into a single xlsx file. Cells that parse
// as numbers are stored as numbers.
func (w *CSVWriter) WriteWorkbook(filePath string, sheets []Sheet) error {
	fullPath := w.resolvePath(filePath)
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write to %s", fullPath)
	}

	w.logger.Info("writing workbook",
		slog.String("full_path", fullPath),
		slog.Int("sheet_count", len(sheets)))

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		name := sheetName(sheet.Name)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, sheet, header); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, sheet Sheet, headerStyle int) error {
	row := 1
	if len(sheet.Headers) > 0 {
		cells := make([]interface{}, len(sheet.Headers))
		for i, h := range sheet.Headers {
			cells[i] = h
		}
		if err := f.SetSheetRow(name, "A1", &cells); err != nil {
			return fmt.Errorf("failed to write headers of %s: %w", name, err)
		}
		last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style headers of %s: %w", name, err)
		}
		row++
	}

	for _, record := range sheet.Records {
		cells := make([]interface{}, len(record))
		for i, v := range record {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				cells[i] = n
			} else {
				cells[i] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", row, name, err)
		}
		row++
	}
	return nil
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}
