package dataprocessing

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	apperrors "finsight/internal/errors"
	"finsight/pkg/contracts/domain"
)

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestParser_ParseCSV(t *testing.T) {
	dir := t.TempDir()
	parser := NewParser(nil, nil)

	path := writeFixture(t, dir, "revenue.csv", []byte(
		"\xEF\xBB\xBF日期,营业收入,地区\n2024/01/01,\"1,200\",华北\n2024/02/01,1300,\n2024/03/01,,华南\n"))

	table, err := parser.ParseFile(path, Options{})
	require.NoError(t, err)

	assert.Equal(t, "revenue.csv", table.Name)
	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, []string{"日期", "营业收入", "地区"}, table.ColumnNames())

	date, _ := table.Column("日期")
	assert.Equal(t, domain.KindTemporal, date.Kind)

	revenue, _ := table.Column("营业收入")
	require.Equal(t, domain.KindNumeric, revenue.Kind)
	assert.Equal(t, []float64{1200, 1300}, revenue.Floats())

	region, _ := table.Column("地区")
	assert.Equal(t, domain.KindText, region.Kind)
	assert.Equal(t, 1, region.NullCount())
}

func TestParser_ParseCSV_GBK(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("日期,利润\n2024-01-01,5\n2024-01-02,7\n")
	require.NoError(t, err)
	path := writeFixture(t, t.TempDir(), "profit.csv", []byte(encoded))

	table, err := NewParser(DefaultEncodings, nil).ParseCSV(path)
	require.NoError(t, err)

	profit, ok := table.Column("利润")
	require.True(t, ok)
	assert.Equal(t, []float64{5, 7}, profit.Floats())
}

func TestParser_FallbackWarning(t *testing.T) {
	dir := t.TempDir()
	utf8File := writeFixture(t, dir, "utf8.csv", []byte("日期,收入\n2024-01-01,10\n"))
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("日期,收入\n2024-01-01,10\n")
	require.NoError(t, err)
	gbkFile := writeFixture(t, dir, "gbk.csv", []byte(encoded))

	tests := []struct {
		name      string
		encodings []string
		path      string
		wantWarn  bool
	}{
		{name: "configured name in upper case", encodings: []string{" UTF-8 ", "GBK"}, path: utf8File},
		{name: "default order", path: utf8File},
		{name: "fallback used", encodings: []string{"UTF-8", "GBK"}, path: gbkFile, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

			_, err := NewParser(tt.encodings, logger).ParseCSV(tt.path)
			require.NoError(t, err)

			if tt.wantWarn {
				assert.Contains(t, buf.String(), "decoded with fallback encoding")
				assert.Contains(t, buf.String(), "encoding=gbk")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestParser_Errors(t *testing.T) {
	dir := t.TempDir()
	parser := NewParser(nil, nil)

	undecodable := writeFixture(t, dir, "binary.csv", []byte{'a', ',', 'b', '\n', 0xFF, ',', '1', '\n'})
	empty := writeFixture(t, dir, "empty.csv", []byte("\n\n"))
	jsonFile := writeFixture(t, dir, "data.json", []byte("{}"))
	legacy := writeFixture(t, dir, "old.xls", []byte("not really excel"))
	notes := writeFixture(t, dir, "notes.txt", []byte("a,b\n1,2\n"))
	corrupt := writeFixture(t, dir, "corrupt.xlsx", []byte("not a zip"))

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
	}{
		{name: "decode failure names encodings", path: undecodable, wantType: apperrors.ErrTypeDecode},
		{name: "no header", path: empty, wantType: apperrors.ErrTypeParsing},
		{name: "unknown extension", path: jsonFile, wantType: apperrors.ErrTypeUnsupportedFormat},
		{name: "plain text file", path: notes, wantType: apperrors.ErrTypeUnsupportedFormat},
		{name: "corrupt legacy workbook", path: legacy, wantType: apperrors.ErrTypeParsing},
		{name: "missing legacy workbook", path: filepath.Join(dir, "absent.xls"), wantType: apperrors.ErrTypeNotFound},
		{name: "corrupt workbook", path: corrupt, wantType: apperrors.ErrTypeParsing},
		{name: "missing file", path: filepath.Join(dir, "absent.csv"), wantType: apperrors.ErrTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseFile(tt.path, Options{})
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}

	_, err := parser.ParseFile(undecodable, Options{})
	assert.Contains(t, err.Error(), "utf-8, gbk, gb2312")
}

func TestParser_ParseWorkbook(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	defer f.Close()
	first := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(first, "A1", &[]interface{}{"month", "sales", "region"}))
	require.NoError(t, f.SetSheetRow(first, "A2", &[]interface{}{"2024-01", 100, "east"}))
	require.NoError(t, f.SetSheetRow(first, "A3", &[]interface{}{"2024-02", 150.5, "west"}))

	_, err := f.NewSheet("costs")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("costs", "A1", &[]interface{}{"item", "amount"}))
	require.NoError(t, f.SetSheetRow("costs", "A2", &[]interface{}{"rent", 42}))

	path := filepath.Join(dir, "sales.xlsx")
	require.NoError(t, f.SaveAs(path))

	parser := NewParser(nil, nil)

	t.Run("first sheet by default", func(t *testing.T) {
		table, err := parser.ParseFile(path, Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, table.Rows())

		month, _ := table.Column("month")
		assert.Equal(t, domain.KindTemporal, month.Kind)
		sales, _ := table.Column("sales")
		assert.Equal(t, []float64{100, 150.5}, sales.Floats())
	})

	t.Run("named sheet", func(t *testing.T) {
		table, err := parser.ParseFile(path, Options{Sheet: "costs"})
		require.NoError(t, err)
		assert.Equal(t, []string{"item", "amount"}, table.ColumnNames())
	})

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := parser.ParseFile(path, Options{Sheet: "missing"})
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidParameter))
	})
}

func TestBuildTable(t *testing.T) {
	t.Run("ragged rows and header cleanup", func(t *testing.T) {
		table, err := BuildTable("t", [][]string{
			{"", ""},
			{"\ufeffid", "value", "value", ""},
			{"1", "2", "3"},
			{"2", "4", "6", "8", "extra"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "value", "value.1", "column_4", "column_5"}, table.ColumnNames())
		assert.Equal(t, 2, table.Rows())

		extra, _ := table.Column("column_5")
		assert.Equal(t, []string{"", "extra"}, extra.Raw)
	})

	t.Run("header only", func(t *testing.T) {
		table, err := BuildTable("t", [][]string{{"a", "b"}})
		require.NoError(t, err)
		assert.Equal(t, 0, table.Rows())
		assert.Equal(t, 2, table.Width())
	})

	t.Run("no rows at all", func(t *testing.T) {
		_, err := BuildTable("t", nil)
		assert.Error(t, err)
	})
}

func TestParser_ParseLegacyWorkbook(t *testing.T) {
	path := filepath.Join("testdata", "sales.xls")
	parser := NewParser(nil, nil)

	t.Run("first sheet by default", func(t *testing.T) {
		table, err := parser.ParseFile(path, Options{})
		require.NoError(t, err)

		assert.Equal(t, "sales.xls", table.Name)
		assert.Equal(t, 3, table.Rows())
		assert.Equal(t, []string{"date", "revenue", "region"}, table.ColumnNames())

		date, _ := table.Column("date")
		assert.Equal(t, domain.KindTemporal, date.Kind)

		revenue, _ := table.Column("revenue")
		require.Equal(t, domain.KindNumeric, revenue.Kind)
		assert.Equal(t, []float64{1200, 1350.5}, revenue.Floats())
		assert.Equal(t, 1, revenue.NullCount())

		region, _ := table.Column("region")
		assert.Equal(t, domain.KindText, region.Kind)
		assert.Equal(t, "华北", region.Raw[0])
		assert.Equal(t, "华南", region.Raw[1])
	})

	t.Run("named sheet", func(t *testing.T) {
		table, err := parser.ParseFile(path, Options{Sheet: "costs"})
		require.NoError(t, err)
		assert.Equal(t, []string{"item", "amount"}, table.ColumnNames())

		amount, _ := table.Column("amount")
		assert.Equal(t, []float64{42}, amount.Floats())
	})

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := parser.ParseFile(path, Options{Sheet: "missing"})
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidParameter))
	})
}
