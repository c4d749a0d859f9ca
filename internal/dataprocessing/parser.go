package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	apperrors "finsight/internal/errors"
	"finsight/internal/files"
	"finsight/pkg/contracts/domain"
)

// DefaultEncodings is the CSV encoding fallback order
var DefaultEncodings = []string{"utf-8", "gbk", "gb2312"}

// Options tune a single parse
type Options struct {
	// Sheet selects a workbook sheet; empty means the first sheet.
	Sheet string
}

// Parser reads dataset files into tables
type Parser struct {
	encodings []string
	logger    *slog.Logger
}

// NewParser creates a parser with an ordered CSV encoding list. Names are
// lower-cased so they compare equal to the names DecodeText reports.
func NewParser(encodings []string, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	normalized := make([]string, 0, len(encodings))
	for _, name := range encodings {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			normalized = append(normalized, name)
		}
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultEncodings...)
	}
	return &Parser{
		encodings: normalized,
		logger:    logger.With(slog.String("component", "parser")),
	}
}

// ParseFile dispatches on the file extension
func (p *Parser) ParseFile(path string, opts Options) (*domain.Table, error) {
	switch ext := files.Extension(path); ext {
	case files.ExtCSV:
		return p.ParseCSV(path)
	case files.ExtXLSX, files.ExtXLSM:
		return p.ParseWorkbook(path, opts.Sheet)
	case files.ExtXLS:
		return p.ParseLegacyWorkbook(path, opts.Sheet)
	default:
		return nil, apperrors.NewUnsupportedFormatError(path, ext)
	}
}

// ParseCSV reads a comma-separated file, trying each encoding in order
func (p *Parser) ParseCSV(path string) (*domain.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(path, err)
	}

	decoded, err := DecodeText(raw, p.encodings)
	if err != nil {
		return nil, apperrors.NewDecodeError(path, decoded.Tried, err)
	}
	if len(decoded.Tried) > 1 {
		p.logger.Warn("decoded with fallback encoding",
			slog.String("path", path),
			slog.String("encoding", decoded.Encoding),
			slog.Any("tried", decoded.Tried))
	}

	reader := csv.NewReader(bytes.NewReader(decoded.Text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("malformed CSV %s", path), err)
	}

	table, err := BuildTable(filepath.Base(path), records)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to build table from %s", path), err)
	}

	p.logger.Debug("csv parsed",
		slog.String("path", path),
		slog.String("encoding", decoded.Encoding),
		slog.Int("rows", table.Rows()),
		slog.Int("columns", table.Width()))

	return table, nil
}

// ParseWorkbook reads one sheet of an .xlsx/.xlsm workbook
func (p *Parser) ParseWorkbook(path, sheet string) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, readError(path, err)
		}
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("workbook %s has no sheets", path), nil)
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("sheet %q not found in %s", sheet, path)).
			WithContext("sheets", sheets)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q of %s", sheet, path), err)
	}

	table, err := BuildTable(filepath.Base(path), rows)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to build table from %s", path), err)
	}

	p.logger.Debug("workbook parsed",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", table.Rows()),
		slog.Int("columns", table.Width()))

	return table, nil
}

// ParseLegacyWorkbook reads one sheet of a BIFF8 .xls workbook
func (p *Parser) ParseLegacyWorkbook(path, sheet string) (table *domain.Table, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, readError(path, err)
	}
	defer f.Close()

	// the BIFF reader panics on truncated record streams
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = apperrors.NewParsingError(fmt.Sprintf("malformed workbook %s", path), fmt.Errorf("%v", r))
		}
	}()

	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("workbook %s has no sheets", path), nil)
	}

	ws, names := legacySheet(wb, sheet)
	if ws == nil {
		return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("sheet %q not found in %s", sheet, path)).
			WithContext("sheets", names)
	}

	table, err = BuildTable(filepath.Base(path), legacyRecords(ws))
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to build table from %s", path), err)
	}

	p.logger.Debug("legacy workbook parsed",
		slog.String("path", path),
		slog.String("sheet", ws.Name),
		slog.Int("rows", table.Rows()),
		slog.Int("columns", table.Width()))

	return table, nil
}

// legacySheet returns the named sheet, or the first one when name is empty,
// together with every sheet name in the workbook.
func legacySheet(wb *xls.WorkBook, name string) (*xls.WorkSheet, []string) {
	var found *xls.WorkSheet
	names := make([]string, 0, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		names = append(names, ws.Name)
		if found == nil && (name == "" || ws.Name == name) {
			found = ws
		}
	}
	return found, names
}

// legacyRecords flattens a sheet into string records. Rows without a ROW
// record report no width and are read up to the widest row.
func legacyRecords(ws *xls.WorkSheet) [][]string {
	rows := make([]*xls.Row, int(ws.MaxRow)+1)
	width := 0
	for i := range rows {
		rows[i] = legacyRow(ws, i)
		if rows[i] != nil && rows[i].LastCol() > width {
			width = rows[i].LastCol()
		}
	}

	records := make([][]string, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		n := row.LastCol()
		if n == 0 {
			n = width
		}
		cells := make([]string, n)
		for j := range cells {
			cells[j] = row.Col(j)
		}
		records[i] = cells
	}
	return records
}

// legacyRow returns nil for rows absent from the sheet.
func legacyRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// BuildTable turns header + data records into a typed table. Leading blank
// rows are skipped, short rows are padded and columns beyond the header get
// generated names.
func BuildTable(name string, records [][]string) (*domain.Table, error) {
	start := 0
	for start < len(records) && isBlankRow(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, fmt.Errorf("no header row")
	}

	header := records[start]
	data := records[start+1:]

	width := len(header)
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}

	names := normalizeHeader(header, width)
	cols := make([]*domain.Column, width)
	for c := 0; c < width; c++ {
		raw := make([]string, len(data))
		for r, row := range data {
			if c < len(row) {
				raw[r] = row[c]
			}
		}
		cols[c] = InferColumn(names[c], raw)
	}

	return domain.NewTable(name, len(data), cols)
}

// normalizeHeader trims BOM and zero-width characters, names blank headers
// after their position and de-duplicates repeated names with a numeric suffix.
func normalizeHeader(header []string, width int) []string {
	names := make([]string, width)
	taken := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		base := ""
		if i < len(header) {
			base = strings.TrimSpace(strings.Trim(header[i], "\ufeff\u200b"))
		}
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		name := base
		for k := 1; taken[name]; k++ {
			name = fmt.Sprintf("%s.%d", base, k)
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewNotFoundError(path)
	}
	return apperrors.NewIOError(fmt.Sprintf("failed to read %s", path), err)
}
