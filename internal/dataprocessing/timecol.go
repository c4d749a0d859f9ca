package dataprocessing

import (
	"fmt"
	"strings"

	apperrors "finsight/internal/errors"
	"finsight/pkg/contracts/domain"
)

// timeKeywords identify a time column when the requested name is absent
var timeKeywords = []string{"date", "时间", "日期", "time"}

// ResolveTimeColumn returns the column named name, or the first column whose
// name contains a time keyword. The returned column is coerced to temporal.
func ResolveTimeColumn(table *domain.Table, name string) (*domain.Column, error) {
	if name != "" {
		if col, ok := table.Column(name); ok {
			return CoerceTemporal(col), nil
		}
	}

	for _, col := range table.Columns() {
		lower := strings.ToLower(col.Name)
		for _, kw := range timeKeywords {
			if strings.Contains(lower, kw) {
				return CoerceTemporal(col), nil
			}
		}
	}

	return nil, apperrors.NewInvalidParameterError(
		fmt.Sprintf("time column %q not found and no column looks like a date", name)).
		WithContext("columns", table.ColumnNames())
}
