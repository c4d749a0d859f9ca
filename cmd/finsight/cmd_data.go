package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"finsight/internal/exporter"
	"finsight/internal/services"
	api "finsight/pkg/contracts/api/v1"
)

func newDatasetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List data files and configured logical names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printResult(cmd, a.service.ListDatasets(cmd.Context()))
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	var (
		sheet   string
		preview int
	)
	cmd := &cobra.Command{
		Use:   "summary <dataset>",
		Short: "Show shape, column statistics and a preview of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.SummaryRequest{
				DatasetRef:  api.DatasetRef{Dataset: args[0], Sheet: sheet},
				PreviewRows: preview,
			}
			return a.printResult(cmd, a.service.GetSummary(cmd.Context(), req))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().IntVar(&preview, "preview", 0, "number of preview rows (default from config)")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <dataset>",
		Short: "Show shape, column kinds and null counts of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.InfoRequest{DatasetRef: api.DatasetRef{Dataset: args[0]}}
			return a.printResult(cmd, a.service.GetInfo(cmd.Context(), req))
		},
	}
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		sheet     string
		filter    string
		columns   []string
		limit     int
		out       string
		appendOut bool
	)
	cmd := &cobra.Command{
		Use:   "query <dataset>",
		Short: "Filter, project and limit a dataset",
		Example: `  finsight query 营业收入 --filter '{"region":"north","revenue":{"gt":100}}' --columns date,revenue
  finsight query sales --limit 10 --out top10.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseFilters(filter)
			if err != nil {
				return err
			}
			req := api.QueryRequest{
				DatasetRef: api.DatasetRef{Dataset: args[0], Sheet: sheet},
				Filters:    filters,
				Columns:    columns,
				Limit:      limit,
			}
			result := a.service.Query(cmd.Context(), req)
			if out != "" && result.OK() {
				if err := a.export(out, appendOut, result.Data.(*services.TableResult)); err != nil {
					return err
				}
			}
			return a.printResult(cmd, result)
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().StringVar(&filter, "filter", "", "filter as a JSON object: column -> value or {operator: operand}")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to keep")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows (0 for all)")
	cmd.Flags().StringVar(&out, "out", "", "also write the result rows to this CSV file")
	cmd.Flags().BoolVar(&appendOut, "append", false, "append to --out instead of replacing it")
	return cmd
}

func newTimeSeriesCmd(a *app) *cobra.Command {
	var (
		sheet      string
		timeColumn string
		columns    []string
		from, to   string
	)
	cmd := &cobra.Command{
		Use:   "timeseries <dataset>",
		Short: "Slice a dataset by time, ordered by its time column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.TimeSeriesRequest{
				DatasetRef:   api.DatasetRef{Dataset: args[0], Sheet: sheet},
				TimeColumn:   timeColumn,
				ValueColumns: columns,
				Range:        api.DateRange{From: from, To: to},
			}
			return a.printResult(cmd, a.service.TimeSeries(cmd.Context(), req))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().StringVar(&timeColumn, "time-column", "date", "time column name")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "value columns to keep (default all)")
	cmd.Flags().StringVar(&from, "from", "", "inclusive start date")
	cmd.Flags().StringVar(&to, "to", "", "inclusive end date")
	return cmd
}

func newAggregateCmd(a *app) *cobra.Command {
	var (
		sheet   string
		groupBy []string
		values  []string
		funcs   []string
	)
	cmd := &cobra.Command{
		Use:   "aggregate <dataset>",
		Short: "Group a dataset and aggregate value columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.AggregateRequest{
				DatasetRef:   api.DatasetRef{Dataset: args[0], Sheet: sheet},
				GroupBy:      groupBy,
				ValueColumns: values,
				Funcs:        funcs,
			}
			return a.printResult(cmd, a.service.Aggregate(cmd.Context(), req))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().StringSliceVar(&groupBy, "group-by", nil, "grouping columns")
	cmd.Flags().StringSliceVar(&values, "values", nil, "value columns")
	cmd.Flags().StringSliceVar(&funcs, "funcs", []string{"sum"}, "sum, mean, count, min, max, median, std")
	return cmd
}

func newRatiosCmd(a *app) *cobra.Command {
	var (
		sheet  string
		ratios []string
		limit  int
	)
	cmd := &cobra.Command{
		Use:     "ratios <dataset>",
		Short:   "Derive ratio columns such as margins",
		Example: `  finsight ratios 利润表 --ratio net_margin=net_profit/revenue --ratio cost/revenue`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := make([]api.RatioDef, 0, len(ratios))
			for _, r := range ratios {
				def, err := parseRatio(r)
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}
			req := api.RatiosRequest{
				DatasetRef: api.DatasetRef{Dataset: args[0], Sheet: sheet},
				Ratios:     defs,
				Limit:      limit,
			}
			return a.printResult(cmd, a.service.FinancialRatios(cmd.Context(), req))
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "workbook sheet name")
	cmd.Flags().StringArrayVar(&ratios, "ratio", nil, "ratio as [name=]numerator/denominator (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows (0 for all)")
	return cmd
}

// export writes the query rows to path through the CSV exporter
func (a *app) export(path string, appendRows bool, rows *services.TableResult) error {
	w := exporter.NewCSVWriter("", a.logger)

	var err error
	if appendRows {
		err = w.AppendTable(path, rows.Table)
	} else {
		err = w.WriteTable(path, rows.Table)
	}
	if err != nil {
		return fmt.Errorf("failed to export query result: %w", err)
	}

	a.logger.Info("query result exported",
		slog.String("path", path),
		slog.Int("rows", rows.Rows),
		slog.Bool("append", appendRows))
	return nil
}

// parseRatio parses "[name=]numerator/denominator"
func parseRatio(s string) (api.RatioDef, error) {
	var def api.RatioDef
	expr := s
	if name, rest, ok := strings.Cut(s, "="); ok {
		def.Name = strings.TrimSpace(name)
		expr = rest
	}
	num, den, ok := strings.Cut(expr, "/")
	if !ok {
		return def, fmt.Errorf("invalid ratio %q: expected numerator/denominator", s)
	}
	def.Numerator = strings.TrimSpace(num)
	def.Denominator = strings.TrimSpace(den)
	return def, nil
}
