package main

import (
	"github.com/spf13/cobra"

	api "finsight/pkg/contracts/api/v1"
)

func newTrendCmd(a *app) *cobra.Command {
	var (
		sheet      string
		timeColumn string
		method     string
	)
	cmd := &cobra.Command{
		Use:   "trend <dataset> <column>...",
		Short: "Fit a linear or moving-average trend to value columns",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := api.TrendParams{TimeColumn: timeColumn, ValueColumns: args[1:], Method: method}
			ref := api.DatasetRef{Dataset: args[0], Sheet: sheet}
			return a.printResult(cmd, a.service.AnalyzeTrend(cmd.Context(), ref, params))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().StringVar(&timeColumn, "time-column", "date", "time column name")
	cmd.Flags().StringVar(&method, "method", "linear", "linear or moving_average")
	return cmd
}

func newSeasonalityCmd(a *app) *cobra.Command {
	var (
		sheet      string
		timeColumn string
		period     string
	)
	cmd := &cobra.Command{
		Use:   "seasonality <dataset> <column>",
		Short: "Measure seasonality of a value column by calendar period",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := api.SeasonalityParams{TimeColumn: timeColumn, ValueColumn: args[1], Period: period}
			ref := api.DatasetRef{Dataset: args[0], Sheet: sheet}
			return a.printResult(cmd, a.service.AnalyzeSeasonality(cmd.Context(), ref, params))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().StringVar(&timeColumn, "time-column", "date", "time column name")
	cmd.Flags().StringVar(&period, "period", "month", "year, quarter or month")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		sheet      string
		timeColumn string
		p1, p2     []string
	)
	cmd := &cobra.Command{
		Use:     "compare <dataset> <column>",
		Short:   "Compare a value column across two date ranges",
		Example: `  finsight compare sales revenue --period1 2023-01-01,2023-12-31 --period2 2024-01-01,2024-12-31`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := api.ComparePeriodsParams{
				TimeColumn:  timeColumn,
				ValueColumn: args[1],
				Period1:     periodRange(p1),
				Period2:     periodRange(p2),
			}
			ref := api.DatasetRef{Dataset: args[0], Sheet: sheet}
			return a.printResult(cmd, a.service.ComparePeriods(cmd.Context(), ref, params))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().StringVar(&timeColumn, "time-column", "date", "time column name")
	cmd.Flags().StringSliceVar(&p1, "period1", nil, "first period as start,end")
	cmd.Flags().StringSliceVar(&p2, "period2", nil, "second period as start,end")
	cmd.MarkFlagRequired("period1")
	cmd.MarkFlagRequired("period2")
	return cmd
}

func newDistributionCmd(a *app) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "distribution <dataset> <column>",
		Short: "Describe the distribution of a numeric column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := api.DatasetRef{Dataset: args[0], Sheet: sheet}
			params := api.DistributionParams{Column: args[1]}
			return a.printResult(cmd, a.service.AnalyzeDistribution(cmd.Context(), ref, params))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	return cmd
}

func newCorrelationCmd(a *app) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "correlation <dataset> [column]...",
		Short: "Correlate numeric columns (all numeric columns when none are given)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := api.DatasetRef{Dataset: args[0], Sheet: sheet}
			params := api.CorrelationParams{Columns: args[1:]}
			return a.printResult(cmd, a.service.CorrelationMatrix(cmd.Context(), ref, params))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	return cmd
}

func newOutliersCmd(a *app) *cobra.Command {
	var (
		sheet  string
		method string
	)
	cmd := &cobra.Command{
		Use:   "outliers <dataset> <column>",
		Short: "Flag outliers in a numeric column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := api.DatasetRef{Dataset: args[0], Sheet: sheet}
			params := api.OutlierParams{Column: args[1], Method: method}
			return a.printResult(cmd, a.service.DetectOutliers(cmd.Context(), ref, params))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().StringVar(&method, "method", "iqr", "iqr or zscore")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file.json>",
		Short: "Run independent analyses from a JSON batch file (- for stdin)",
		Long: `batch reads {"requests": [...]} where each request names a dataset, a kind
(trend, seasonality, compare_periods, distribution, correlation, outliers,
summary) and the params object of that kind. Results keep request order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.BatchRequest
			if err := readJSON(args[0], &req); err != nil {
				return err
			}
			return a.printResult(cmd, a.service.RunBatch(cmd.Context(), req))
		},
	}
}

// periodRange maps a start,end flag value to a PeriodRange; validation
// reports missing bounds.
func periodRange(bounds []string) api.PeriodRange {
	var r api.PeriodRange
	if len(bounds) > 0 {
		r.Start = bounds[0]
	}
	if len(bounds) > 1 {
		r.End = bounds[1]
	}
	return r
}
