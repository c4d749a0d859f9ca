package query

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	"finsight/internal/stats"
	"finsight/pkg/contracts/domain"
)

// AggFunc names an aggregation
type AggFunc string

const (
	AggSum    AggFunc = "sum"
	AggMean   AggFunc = "mean"
	AggCount  AggFunc = "count"
	AggMin    AggFunc = "min"
	AggMax    AggFunc = "max"
	AggMedian AggFunc = "median"
	AggStd    AggFunc = "std"
)

var aggFuncs = map[AggFunc]func([]float64) float64{
	AggSum:    stats.Sum,
	AggMean:   stats.Mean,
	AggCount:  func(v []float64) float64 { return float64(len(v)) },
	AggMin:    stats.Min,
	AggMax:    stats.Max,
	AggMedian: stats.Median,
	AggStd: func(v []float64) float64 {
		if len(v) < 2 {
			return math.NaN()
		}
		return stats.StdDev(v)
	},
}

// Aggregate groups rows by groupBy and applies every func to every value
// column. Output columns are named "<column>_<func>"; groups are ordered by
// key and rows with a missing key are dropped.
func Aggregate(table *domain.Table, groupBy, valueColumns []string, funcs []AggFunc) (*domain.Table, error) {
	if len(groupBy) == 0 || len(valueColumns) == 0 || len(funcs) == 0 {
		return nil, apperrors.NewInvalidParameterError("aggregate needs group columns, value columns and functions")
	}

	keys := make([]*domain.Column, len(groupBy))
	var missing []string
	for i, name := range groupBy {
		col, ok := table.Column(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		keys[i] = col
	}
	values := make([]*domain.Column, len(valueColumns))
	for i, name := range valueColumns {
		col, ok := table.Column(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		values[i] = col
	}
	if len(missing) > 0 {
		return nil, apperrors.NewInvalidParameterError(
			fmt.Sprintf("columns not found: %s", strings.Join(missing, ", "))).
			WithContext("missing", missing)
	}
	for _, f := range funcs {
		if _, ok := aggFuncs[f]; !ok {
			return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("unknown aggregation %q", f))
		}
	}
	countOnly := true
	for _, f := range funcs {
		countOnly = countOnly && f == AggCount
	}
	for _, col := range values {
		if col.Kind != domain.KindNumeric && !countOnly {
			return nil, apperrors.NewInvalidParameterError(
				fmt.Sprintf("column %q is not numeric", col.Name))
		}
	}

	groups := groupRows(table, keys)

	firsts := make([]int, len(groups))
	for i, g := range groups {
		firsts[i] = g[0]
	}
	cols := table.Select(groupBy).Take(firsts).Columns()

	for _, vc := range values {
		numeric := dataprocessing.CoerceNumeric(vc)
		for _, f := range funcs {
			fn := aggFuncs[f]
			raw := make([]string, len(groups))
			nums := make([]float64, len(groups))
			for gi, rows := range groups {
				sample := make([]float64, 0, len(rows))
				present := 0
				for _, r := range rows {
					if !vc.IsNull(r) {
						present++
					}
					if !math.IsNaN(numeric.Numbers[r]) {
						sample = append(sample, numeric.Numbers[r])
					}
				}
				if f == AggCount {
					nums[gi] = float64(present)
				} else {
					nums[gi] = fn(sample)
				}
				if !math.IsNaN(nums[gi]) {
					raw[gi] = strconv.FormatFloat(nums[gi], 'f', -1, 64)
				}
			}
			cols = append(cols, domain.NewNumericColumn(fmt.Sprintf("%s_%s", vc.Name, f), raw, nums))
		}
	}

	return domain.NewTable(table.Name, len(groups), cols)
}

// groupRows buckets row indices by key and sorts buckets by key
func groupRows(table *domain.Table, keys []*domain.Column) [][]int {
	index := make(map[string]int)
	var groups [][]int

rows:
	for r := 0; r < table.Rows(); r++ {
		parts := make([]string, len(keys))
		for i, k := range keys {
			if k.IsNull(r) {
				continue rows
			}
			parts[i] = k.Raw[r]
		}
		key := strings.Join(parts, "\x1f")
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], r)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ra, rb := groups[a][0], groups[b][0]
		for _, k := range keys {
			if c := compareCells(k, ra, rb); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return groups
}

func compareCells(col *domain.Column, a, b int) int {
	switch col.Kind {
	case domain.KindNumeric:
		return compareFloat(col.Numbers[a], col.Numbers[b])
	case domain.KindTemporal:
		return col.Times[a].Compare(col.Times[b])
	default:
		return strings.Compare(col.Raw[a], col.Raw[b])
	}
}
