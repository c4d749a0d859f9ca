// Package dataprocessing turns dataset files into domain.Table values.
//
// # Architecture
//
// The package has three parts:
//
// 1. Decoding: CSV bytes are decoded by trying an ordered list of text
// encodings (by default utf-8, gbk, gb2312) and keeping the first that
// decodes cleanly.
// 2. Parsing: CSV text goes through encoding/csv; .xlsx and .xlsm workbooks
// are read with excelize and legacy .xls workbooks with extrame/xls.
// 3. Inference: every column is typed as numeric, temporal or text. A column
// is temporal when all of its cells parse under one date layout from a fixed
// chain, or failing that under any layout of the chain.
//
// # Usage
//
//	parser := dataprocessing.NewParser([]string{"utf-8", "gbk", "gb2312"}, logger)
//	table, err := parser.ParseFile("data/营业收入.csv", dataprocessing.Options{})
//
// # Error Handling
//
// Errors are *errors.AppError values: UNSUPPORTED_FORMAT for unknown
// extensions, DECODE when no encoding fits, PARSING for malformed content
// and IO for read failures.
package dataprocessing
