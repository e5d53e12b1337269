// Package exporter writes analysis artifacts to disk.
//
// CSVWriter resolves relative names against the configured directories
// ("data/..." goes to the data directory, anything else to tables), writes
// UTF-8 CSV with a BOM for Excel, streams large survey tables row by row and
// bundles several tables into one xlsx workbook.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, logger)
//	err := w.WriteSimpleCSV("technology_roi.csv", headers, rows)
//	err = w.WriteTable("data/cleaned_data.csv", cleaned)
package exporter
