package query

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"finsight/internal/dataprocessing"
	"finsight/pkg/contracts/domain"
)

// Window bounds a time slice; nil bounds are open. Both bounds are inclusive.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t lies inside the window. Missing times never do
// once a bound is set.
func (w Window) Contains(t time.Time) bool {
	if w.Start == nil && w.End == nil {
		return true
	}
	if t.IsZero() {
		return false
	}
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// TimeSlice returns the time column plus valueColumns (every column when
// empty) for rows inside the window, ordered by time with ties kept in
// their original order and missing times last.
func (q *Querier) TimeSlice(ctx context.Context, table *domain.Table, timeColumn string, valueColumns []string, window Window) (*domain.Table, Notes, error) {
	var notes Notes

	timeCol, err := dataprocessing.ResolveTimeColumn(table, timeColumn)
	if err != nil {
		return nil, notes, err
	}
	if timeColumn != "" && timeCol.Name != timeColumn {
		q.logger.WarnContext(ctx, "time column not found, using keyword match",
			slog.String("requested", timeColumn),
			slog.String("using", timeCol.Name))
	}

	coerced, err := table.WithColumn(timeCol)
	if err != nil {
		return nil, notes, err
	}

	if len(valueColumns) > 0 {
		cols := append([]string{timeCol.Name}, valueColumns...)
		coerced, notes.DroppedColumns = q.project(ctx, coerced, cols)
	}

	rows := make([]int, 0, table.Rows())
	for i := 0; i < table.Rows(); i++ {
		if window.Contains(timeCol.Times[i]) {
			rows = append(rows, i)
		}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		ta, tb := timeCol.Times[rows[a]], timeCol.Times[rows[b]]
		if ta.IsZero() || tb.IsZero() {
			return !ta.IsZero() && tb.IsZero()
		}
		return ta.Before(tb)
	})

	return coerced.Take(rows), notes, nil
}
