// Package exporter writes tables to CSV on behalf of callers that persist
// query results.
//
// CSVWriter writes whole record sets, appends to existing files and streams
// large tables row by row. Files are written with a UTF-8 BOM so that
// spreadsheet applications detect the encoding of non-ASCII column names.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter("out", logger)
//	err := writer.WriteTable("revenue_2024.csv", table)
package exporter
