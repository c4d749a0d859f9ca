package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finsight/internal/errors"
	api "finsight/pkg/contracts/api/v1"
)

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()
	ref := api.DatasetRef{Dataset: "营业收入"}

	tests := []struct {
		name    string
		req     interface{}
		wantErr string
	}{
		{
			name: "valid summary",
			req:  api.SummaryRequest{DatasetRef: ref, PreviewRows: 10},
		},
		{
			name:    "preview too large",
			req:     api.SummaryRequest{DatasetRef: ref, PreviewRows: 500},
			wantErr: "preview_rows must be at most 100",
		},
		{
			name:    "dataset required",
			req:     api.InfoRequest{},
			wantErr: "dataset is required",
		},
		{
			name:    "dataset with separator",
			req:     api.InfoRequest{DatasetRef: api.DatasetRef{Dataset: "reports/q1"}},
			wantErr: "dataset must be a dataset name without path separators",
		},
		{
			name:    "dataset too long",
			req:     api.InfoRequest{DatasetRef: api.DatasetRef{Dataset: strings.Repeat("x", 256)}},
			wantErr: "dataset must be a dataset name",
		},
		{
			name: "open date range",
			req: api.TimeSeriesRequest{
				DatasetRef: ref,
				Range:      api.DateRange{From: "2024/01/01"},
			},
		},
		{
			name: "bad range bound",
			req: api.TimeSeriesRequest{
				DatasetRef: ref,
				Range:      api.DateRange{To: "next week"},
			},
			wantErr: "to must be a date",
		},
		{
			name: "unknown aggregate",
			req: api.AggregateRequest{
				DatasetRef:   ref,
				GroupBy:      []string{"region"},
				ValueColumns: []string{"revenue"},
				Funcs:        []string{"sum", "mode"},
			},
			wantErr: "must be one of: sum, mean, count, min, max, median, std",
		},
		{
			name: "nested params",
			req: api.AnalysisRequest{
				DatasetRef: ref,
				Kind:       api.KindOutliers,
				Outliers:   &api.OutlierParams{Column: "revenue", Method: "mad"},
			},
			wantErr: "method must be one of: iqr, zscore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidParameter))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequestValidator_ReportsEveryField(t *testing.T) {
	v := NewRequestValidator()

	err := v.ValidateStruct(api.SeasonalityParams{Period: "week"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	fields, ok := appErr.Context["fields"].([]string)
	require.True(t, ok)
	assert.Len(t, fields, 2)
	assert.Contains(t, appErr.Message, "value_column is required")
	assert.Contains(t, appErr.Message, "period must be one of: year, quarter, month")
}
