package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"finsight/pkg/contracts/domain"
)

// Notes records the parts of a request that were skipped
type Notes struct {
	DroppedColumns []string `json:"dropped_columns,omitempty"`
	SkippedFilters []string `json:"skipped_filters,omitempty"`
}

// Querier runs query-layer operations, logging skipped clauses
type Querier struct {
	logger *slog.Logger
}

// New creates a querier
func New(logger *slog.Logger) *Querier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Querier{logger: logger.With(slog.String("component", "query"))}
}

// Query filters, projects and limits table. Empty columns keeps every
// column; limit <= 0 keeps every row.
func (q *Querier) Query(ctx context.Context, table *domain.Table, filters Filters, columns []string, limit int) (*domain.Table, Notes) {
	var notes Notes

	rows, skipped := q.filterRows(ctx, table, filters)
	notes.SkippedFilters = skipped

	result := table
	if rows != nil {
		result = table.Take(rows)
	}

	if len(columns) > 0 {
		var dropped []string
		result, dropped = q.project(ctx, result, columns)
		notes.DroppedColumns = dropped
	}

	return result.Head(limit), notes
}

// project selects columns, dropping absent names with a warning
func (q *Querier) project(ctx context.Context, table *domain.Table, columns []string) (*domain.Table, []string) {
	var dropped []string
	for _, name := range columns {
		if !table.HasColumn(name) {
			dropped = append(dropped, name)
		}
	}
	if len(dropped) > 0 {
		q.logger.WarnContext(ctx, "requested columns not found, dropping from projection",
			slog.String("table", table.Name),
			slog.Any("columns", dropped))
	}
	return table.Select(columns), dropped
}

// filterRows returns the matching row indices, or nil when no clause applied
func (q *Querier) filterRows(ctx context.Context, table *domain.Table, filters Filters) ([]int, []string) {
	if len(filters) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		preds   []predicate
		skipped []string
	)
	for _, name := range names {
		col, ok := table.Column(name)
		if !ok {
			skipped = append(skipped, fmt.Sprintf("%s: column not found", name))
			continue
		}
		for _, clause := range clauses(filters[name]) {
			op := Operator(clause[0].(string))
			if !operators[op] {
				skipped = append(skipped, fmt.Sprintf("%s: unknown operator %q", name, op))
				continue
			}
			pred, err := buildPredicate(col, op, clause[1])
			if err != nil {
				skipped = append(skipped, fmt.Sprintf("%s: %v", name, err))
				continue
			}
			preds = append(preds, pred)
		}
	}

	if len(skipped) > 0 {
		q.logger.WarnContext(ctx, "filter clauses skipped",
			slog.String("table", table.Name),
			slog.Any("clauses", skipped))
	}
	if len(preds) == 0 {
		return nil, skipped
	}

	rows := make([]int, 0, table.Rows())
	for i := 0; i < table.Rows(); i++ {
		keep := true
		for _, p := range preds {
			if !p(i) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, i)
		}
	}
	return rows, skipped
}
