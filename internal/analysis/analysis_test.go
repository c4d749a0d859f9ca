package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	api "finsight/pkg/contracts/api/v1"
	"finsight/pkg/contracts/domain"
)

func buildTable(t *testing.T, records ...[]string) *domain.Table {
	t.Helper()
	table, err := dataprocessing.BuildTable("fixture", records)
	require.NoError(t, err)
	return table
}

func seriesTable(t *testing.T, dates []string, columns map[string][]string) *domain.Table {
	t.Helper()
	names := []string{"date"}
	for name := range columns {
		names = append(names, name)
	}
	records := [][]string{names}
	for i, d := range dates {
		row := []string{d}
		for _, name := range names[1:] {
			row = append(row, columns[name][i])
		}
		records = append(records, row)
	}
	return buildTable(t, records...)
}

func assertKind(t *testing.T, err error, kind apperrors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.TypeOf(err), "error: %v", err)
}

func TestTrendLinear(t *testing.T) {
	// rows are out of order; the fit runs over time-sorted positions
	table := seriesTable(t,
		[]string{"2024-05-01", "2024-01-01", "2024-03-01", "2024-02-01", "2024-04-01"},
		map[string][]string{"sales": {"5", "1", "3", "2", "4"}})

	report, err := Trend(table, "date", []string{"sales", "profit"}, "")
	require.NoError(t, err)
	assert.Equal(t, TrendLinear, report.Method)
	assert.Equal(t, []string{"profit"}, report.MissingColumns)

	sales := report.Columns["sales"]
	require.Empty(t, sales.Error)
	assert.Equal(t, 5, sales.Points)
	assert.InDelta(t, 1.0, *sales.Slope, 1e-9)
	assert.InDelta(t, 1.0, *sales.Intercept, 1e-9)
	assert.InDelta(t, 1.0, *sales.RSquared, 1e-9)
	assert.Equal(t, "rising", sales.Direction)
	assert.Equal(t, "strong", sales.Strength)
}

func TestTrendEdgeCases(t *testing.T) {
	table := seriesTable(t,
		[]string{"2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01", "2024-05-01", "2024-06-01"},
		map[string][]string{
			"flat":   {"7", "7", "7", "7", "7", "7"},
			"sparse": {"1", "", "", "", "", ""},
			"up":     {"1", "2", "3", "4", "5", "6"},
		})

	t.Run("constant series is flat with zero r squared", func(t *testing.T) {
		report, err := Trend(table, "date", []string{"flat"}, TrendLinear)
		require.NoError(t, err)
		flat := report.Columns["flat"]
		assert.Equal(t, "flat", flat.Direction)
		assert.Equal(t, 0.0, *flat.RSquared)
		assert.Equal(t, "weak", flat.Strength)
	})

	t.Run("too few points is a per-column result", func(t *testing.T) {
		report, err := Trend(table, "date", []string{"sparse", "up"}, TrendLinear)
		require.NoError(t, err)
		assert.NotEmpty(t, report.Columns["sparse"].Error)
		assert.Nil(t, report.Columns["sparse"].Slope)
		assert.Empty(t, report.Columns["up"].Error)
	})

	t.Run("moving average", func(t *testing.T) {
		report, err := Trend(table, "date", []string{"up"}, TrendMovingAverage)
		require.NoError(t, err)
		up := report.Columns["up"]
		assert.Equal(t, 2, up.WindowSize)
		assert.InDelta(t, 1.0, *up.Slope, 1e-9)
		assert.Equal(t, "rising", up.Direction)
		assert.Nil(t, up.RSquared)
	})

	t.Run("invalid requests", func(t *testing.T) {
		_, err := Trend(table, "date", []string{"up"}, "exponential")
		assertKind(t, err, apperrors.ErrTypeInvalidParameter)

		_, err = Trend(table, "date", []string{"nope"}, TrendLinear)
		assertKind(t, err, apperrors.ErrTypeInvalidParameter)
	})
}

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, []float64{2, 3, 4}, movingAverage([]float64{1, 2, 3, 4, 5}, 3))
	assert.Equal(t, []float64{1, 2}, movingAverage([]float64{1, 2}, 1))
}

func TestSeasonality(t *testing.T) {
	table := seriesTable(t,
		[]string{"2023-01-15", "2023-07-15", "2024-01-15", "2024-07-15", ""},
		map[string][]string{"value": {"10", "20", "30", "50", "99"}})

	t.Run("year buckets", func(t *testing.T) {
		report, err := Seasonality(table, "date", "value", "")
		require.NoError(t, err)
		require.Len(t, report.Periods, 2)
		assert.Equal(t, 2023, report.Periods[0].Period)
		assert.Equal(t, 15.0, report.Periods[0].Mean)
		assert.Equal(t, 40.0, report.Periods[1].Mean)
		assert.Equal(t, 50.0, report.Periods[1].Max)
		assert.InDelta(t, 0.20203, report.SeasonalityStrength, 1e-4)
		assert.Equal(t, "medium", report.SeasonalityLevel)
	})

	t.Run("quarter buckets", func(t *testing.T) {
		report, err := Seasonality(table, "date", "value", PeriodQuarter)
		require.NoError(t, err)
		require.Len(t, report.Periods, 2)
		assert.Equal(t, 1, report.Periods[0].Period)
		assert.Equal(t, 3, report.Periods[1].Period)
		assert.Equal(t, 20.0, report.Periods[0].Mean)
	})

	t.Run("single observation buckets have zero strength", func(t *testing.T) {
		monthly := seriesTable(t, []string{"2023-01-15", "2023-02-15", "2023-03-15"},
			map[string][]string{"value": {"10", "20", "40"}})
		report, err := Seasonality(monthly, "date", "value", PeriodMonth)
		require.NoError(t, err)
		assert.Equal(t, 0.0, report.SeasonalityStrength)
		assert.Equal(t, "weak", report.SeasonalityLevel)
		for _, p := range report.Periods {
			if p.Count < 2 {
				assert.Equal(t, 0.0, p.Std)
			}
		}
	})

	t.Run("unsupported period", func(t *testing.T) {
		_, err := Seasonality(table, "date", "value", "week")
		assertKind(t, err, apperrors.ErrTypeInvalidParameter)
	})
}

func TestComparePeriods(t *testing.T) {
	table := seriesTable(t,
		[]string{"2023-01-01", "2023-02-01", "2023-03-01", "2024-01-01", "2024-02-01", "2024-03-01"},
		map[string][]string{"value": {"8", "10", "12", "14", "15", "16"}})
	y2023 := Period{Start: mustTime(t, "2023-01-01"), End: mustTime(t, "2023-12-31")}
	y2024 := Period{Start: mustTime(t, "2024-01-01"), End: mustTime(t, "2024-12-31")}

	report, err := ComparePeriods(table, "date", "value", y2023, y2024)
	require.NoError(t, err)
	assert.Equal(t, 10.0, report.Period1.Stats.Mean)
	assert.Equal(t, 15.0, report.Period2.Stats.Mean)
	assert.InDelta(t, 0.5, report.MeanChangeRate, 1e-12)

	require.NotNil(t, report.TTest)
	assert.InDelta(t, -3.873, report.TTest.TStatistic, 1e-3)
	assert.Equal(t, 4.0, report.TTest.DegreesOfFreedom)
	assert.Less(t, report.TTest.PValue, 0.05)
	assert.True(t, report.TTest.SignificantDifference)

	t.Run("inclusive bounds and small samples skip the test", func(t *testing.T) {
		p1 := Period{Start: mustTime(t, "2023-01-01"), End: mustTime(t, "2023-02-01")}
		report, err := ComparePeriods(table, "date", "value", p1, y2024)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Period1.Stats.Count)
		assert.Nil(t, report.TTest)
	})

	t.Run("zero base mean gives zero change", func(t *testing.T) {
		zeros := seriesTable(t, []string{"2023-01-01", "2024-01-01"},
			map[string][]string{"value": {"0", "5"}})
		report, err := ComparePeriods(zeros, "date", "value", y2023, y2024)
		require.NoError(t, err)
		assert.Equal(t, 0.0, report.MeanChangeRate)
	})

	t.Run("empty range", func(t *testing.T) {
		y2025 := Period{Start: mustTime(t, "2025-01-01"), End: mustTime(t, "2025-12-31")}
		_, err := ComparePeriods(table, "date", "value", y2023, y2025)
		assertKind(t, err, apperrors.ErrTypeInsufficientData)
	})
}

func TestDistribution(t *testing.T) {
	t.Run("uniform sample", func(t *testing.T) {
		table := buildTable(t, []string{"v"},
			[]string{"1"}, []string{"2"}, []string{"3"}, []string{"4"}, []string{"5"},
			[]string{"6"}, []string{"7"}, []string{"8"}, []string{"9"}, []string{"10"})
		report, err := Distribution(table, "v")
		require.NoError(t, err)
		assert.Equal(t, 10, report.Stats.Count)
		assert.Equal(t, 5.5, report.Stats.Median)
		assert.InDelta(t, 0.0, *report.Skewness, 1e-12)
		assert.InDelta(t, -1.2242, *report.Kurtosis, 1e-4)
		require.NotNil(t, report.NormalityTest)
		assert.False(t, math.IsNaN(report.NormalityTest.PValue))
		assert.GreaterOrEqual(t, report.NormalityTest.PValue, 0.0)
		assert.LessOrEqual(t, report.NormalityTest.PValue, 1.0)
	})

	t.Run("small sample skips normality", func(t *testing.T) {
		table := buildTable(t, []string{"v"}, []string{"1"}, []string{"2"}, []string{"4"})
		report, err := Distribution(table, "v")
		require.NoError(t, err)
		assert.Nil(t, report.NormalityTest)
		assert.Equal(t, "non_normal", report.DistributionType)
	})

	t.Run("constant sample has null moments", func(t *testing.T) {
		table := buildTable(t, []string{"v"},
			[]string{"3"}, []string{"3"}, []string{"3"}, []string{"3"},
			[]string{"3"}, []string{"3"}, []string{"3"}, []string{"3"})
		report, err := Distribution(table, "v")
		require.NoError(t, err)
		assert.Nil(t, report.Skewness)
		assert.Nil(t, report.Kurtosis)
		assert.Nil(t, report.NormalityTest)
	})

	t.Run("no valid values", func(t *testing.T) {
		table := buildTable(t, []string{"v", "w"}, []string{"", "1"})
		_, err := Distribution(table, "v")
		assertKind(t, err, apperrors.ErrTypeInsufficientData)

		_, err = Distribution(table, "missing")
		assertKind(t, err, apperrors.ErrTypeInvalidParameter)
	})
}

func TestCorrelation(t *testing.T) {
	table := buildTable(t,
		[]string{"x", "y", "z", "flat", "label"},
		[]string{"1", "3", "4", "2", "a"},
		[]string{"2", "5", "3", "2", "b"},
		[]string{"3", "7", "2", "2", "c"},
		[]string{"4", "9", "", "2", "d"},
	)

	report, err := Correlation(table, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z", "flat"}, report.Columns)
	assert.InDelta(t, 1.0, *report.Matrix["x"]["y"], 1e-9)
	assert.InDelta(t, -1.0, *report.Matrix["x"]["z"], 1e-9)
	assert.Nil(t, report.Matrix["x"]["flat"])
	assert.Nil(t, report.Matrix["flat"]["flat"])

	pairs := make(map[string]string)
	for _, p := range report.StrongCorrelations {
		pairs[p.Var1+"-"+p.Var2] = p.Strength
	}
	assert.Equal(t, "strong_positive", pairs["x-y"])
	assert.Equal(t, "strong_negative", pairs["x-z"])
	assert.Len(t, pairs, 3)

	t.Run("missing columns are listed", func(t *testing.T) {
		_, err := Correlation(table, []string{"x", "q", "r"})
		assertKind(t, err, apperrors.ErrTypeInvalidParameter)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, []string{"q", "r"}, appErr.Context["missing"])
	})

	t.Run("text columns are rejected", func(t *testing.T) {
		_, err := Correlation(table, []string{"x", "label"})
		assertKind(t, err, apperrors.ErrTypeInvalidParameter)
	})
}

func TestOutliers(t *testing.T) {
	table := buildTable(t, []string{"v", "c"},
		[]string{"1", "5"}, []string{"2", "5"}, []string{"3", "5"}, []string{"4", "5"}, []string{"100", "5"})

	iqr, err := Outliers(table, "v", OutlierIQR)
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, iqr.Outliers)
	assert.Equal(t, 1, iqr.OutlierCount)
	assert.Equal(t, 20.0, iqr.OutlierPercentage)
	assert.Equal(t, -1.0, *iqr.LowerBound)
	assert.Equal(t, 7.0, *iqr.UpperBound)

	z, err := Outliers(table, "v", OutlierZScore)
	require.NoError(t, err)
	assert.Empty(t, z.Outliers)
	assert.Equal(t, 3.0, *z.Threshold)

	constant, err := Outliers(table, "c", OutlierZScore)
	require.NoError(t, err)
	assert.Equal(t, 0, constant.OutlierCount)

	_, err = Outliers(table, "v", "mad")
	assertKind(t, err, apperrors.ErrTypeInvalidParameter)
}

func TestSummarize(t *testing.T) {
	table := buildTable(t,
		[]string{"date", "region", "revenue"},
		[]string{"2024-01-01", "north", "100"},
		[]string{"2024-02-01", "south", ""},
		[]string{"2024-03-01", "north", "300"},
		[]string{"2024-04-01", "", "400"},
	)

	report := Summarize(table, 2)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 3, report.Columns)
	assert.Equal(t, domain.KindTemporal, report.Kinds["date"])
	assert.Equal(t, 1, report.MissingValues["revenue"])
	assert.Equal(t, 25.0, report.MissingPercentage["region"])

	revenue := report.NumericStats["revenue"]
	assert.Equal(t, 3, revenue.Count)
	assert.InDelta(t, 266.667, revenue.Mean, 1e-3)
	assert.Equal(t, 300.0, revenue.Median)

	region := report.CategoricalStats["region"]
	assert.Equal(t, 2, region.UniqueCount)
	assert.Equal(t, []ValueCount{{"north", 2}, {"south", 1}}, region.TopValues)

	assert.Contains(t, report.Preview, "region")
	assert.Contains(t, report.Preview, "south")
	assert.NotContains(t, report.Preview, "2024-03-01")
}

func TestRun(t *testing.T) {
	table := seriesTable(t,
		[]string{"2023-01-01", "2023-02-01", "2024-01-01", "2024-02-01"},
		map[string][]string{"value": {"10", "10", "15", "15"}})

	result, err := Run(table, api.AnalysisRequest{
		Kind: api.KindComparePeriods,
		ComparePeriods: &api.ComparePeriodsParams{
			TimeColumn:  "date",
			ValueColumn: "value",
			Period1:     api.PeriodRange{Start: "2023-01-01", End: "2023/12/31"},
			Period2:     api.PeriodRange{Start: "2024-01-01", End: "2024-12-31"},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.(*ComparisonReport).MeanChangeRate, 1e-12)

	result, err = Run(table, api.AnalysisRequest{Kind: api.KindSummary})
	require.NoError(t, err)
	assert.Equal(t, 4, result.(*SummaryReport).Rows)
	assert.NotEmpty(t, result.(*SummaryReport).Preview)

	tests := []struct {
		name string
		req  api.AnalysisRequest
	}{
		{"missing params", api.AnalysisRequest{Kind: api.KindTrend}},
		{"unknown kind", api.AnalysisRequest{Kind: "forecast"}},
		{"bad date", api.AnalysisRequest{Kind: api.KindComparePeriods, ComparePeriods: &api.ComparePeriodsParams{
			ValueColumn: "value",
			Period1:     api.PeriodRange{Start: "yesterday", End: "2023-12-31"},
			Period2:     api.PeriodRange{Start: "2024-01-01", End: "2024-12-31"},
		}}},
		{"reversed period", api.AnalysisRequest{Kind: api.KindComparePeriods, ComparePeriods: &api.ComparePeriodsParams{
			ValueColumn: "value",
			Period1:     api.PeriodRange{Start: "2023-12-31", End: "2023-01-01"},
			Period2:     api.PeriodRange{Start: "2024-01-01", End: "2024-12-31"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(table, tt.req)
			assertKind(t, err, apperrors.ErrTypeInvalidParameter)
		})
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, ok := dataprocessing.ParseTime(s)
	require.True(t, ok, s)
	return v
}
