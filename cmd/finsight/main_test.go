package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/contracts"
	api "finsight/pkg/contracts/api/v1"
)

const salesCSV = `date,region,revenue,cost
2024-01-01,north,100,50
2024-02-01,south,200,80
2024-03-01,north,300,120
`

type printedResult struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func runCLI(t *testing.T, args ...string) (printedResult, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()

	var result printedResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result), out.String())
	return result, err
}

func dataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.csv"), []byte(salesCSV), 0o644))
	return dir
}

func TestVersionFlag(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, contracts.GetVersionString()+"\n", out.String())
	assert.Contains(t, out.String(), "finsight v"+contracts.Version)
	assert.Contains(t, out.String(), "commit: "+contracts.GitCommit)
}

func TestQueryCommandExports(t *testing.T) {
	dir := dataDir(t)
	out := filepath.Join(t.TempDir(), "north.csv")

	result, err := runCLI(t, "--data", dir, "query", "sales",
		"--filter", `{"region":"north"}`, "--columns", "date,revenue", "--out", out)
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)

	var rows struct {
		Rows    int      `json:"rows"`
		Columns []string `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(result.Data, &rows))
	assert.Equal(t, 2, rows.Rows)
	assert.Equal(t, []string{"date", "revenue"}, rows.Columns)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), "2024-03-01,300")
	assert.NotContains(t, string(written), "south")
}

func TestFailedRequestPrintsResult(t *testing.T) {
	dir := dataDir(t)

	result, err := runCLI(t, "--data", dir, "summary", "nosuch")
	require.ErrorIs(t, err, errRequestFailed)
	assert.Equal(t, "error", result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, "NOT_FOUND", result.Error.Kind)
}

func TestBatchCommand(t *testing.T) {
	dir := dataDir(t)
	batch := api.BatchRequest{Requests: []api.AnalysisRequest{
		{DatasetRef: api.DatasetRef{Dataset: "sales"}, Kind: api.KindTrend,
			Trend: &api.TrendParams{TimeColumn: "date", ValueColumns: []string{"revenue"}}},
		{DatasetRef: api.DatasetRef{Dataset: "sales"}, Kind: api.KindDistribution},
	}}
	data, err := json.Marshal(batch)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	result, err := runCLI(t, "--data", dir, "batch", path)
	require.NoError(t, err)

	var out struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
		Results   []printedResult
	}
	require.NoError(t, json.Unmarshal(result.Data, &out))
	assert.Equal(t, 1, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "INVALID_PARAMETER", out.Results[1].Error.Kind)
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in      string
		want    api.RatioDef
		wantErr bool
	}{
		{in: "cost/revenue", want: api.RatioDef{Numerator: "cost", Denominator: "revenue"}},
		{in: "margin = profit / revenue", want: api.RatioDef{Name: "margin", Numerator: "profit", Denominator: "revenue"}},
		{in: "margin=profit", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRatio(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters(`{"revenue":{"gte":100},"region":"north"}`)
	require.NoError(t, err)
	assert.Equal(t, "north", filters["region"])
	assert.Equal(t, map[string]interface{}{"gte": 100.0}, filters["revenue"])

	empty, err := parseFilters("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseFilters("{region")
	assert.Error(t, err)
}

func TestPeriodRange(t *testing.T) {
	assert.Equal(t, api.PeriodRange{Start: "2024-01-01", End: "2024-03-31"}, periodRange([]string{"2024-01-01", "2024-03-31"}))
	assert.Equal(t, api.PeriodRange{Start: "2024-01-01"}, periodRange([]string{"2024-01-01"}))
}
