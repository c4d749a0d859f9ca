package analysis

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"finsight/internal/stats"
	"finsight/pkg/contracts/domain"
)

// DefaultPreviewRows is the preview size used when none is requested
const DefaultPreviewRows = 5

const topValueCount = 10

// ValueCount is one categorical value and its frequency
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalStats describes a text column
type CategoricalStats struct {
	UniqueCount int          `json:"unique_count"`
	TopValues   []ValueCount `json:"top_values"`
}

// SummaryReport is the dataset overview embedded in narrative prompts
type SummaryReport struct {
	Name              string                       `json:"name"`
	Rows              int                          `json:"rows"`
	Columns           int                          `json:"columns"`
	ColumnNames       []string                     `json:"column_names"`
	Kinds             map[string]domain.ColumnKind `json:"dtypes"`
	MissingValues     map[string]int               `json:"missing_values"`
	MissingPercentage map[string]float64           `json:"missing_percentage"`
	NumericStats      map[string]stats.Summary     `json:"numeric_stats"`
	CategoricalStats  map[string]CategoricalStats  `json:"categorical_stats"`
	Preview           string                       `json:"preview"`
}

// Summarize builds the overview of table with a Markdown preview of its
// first previewRows rows (DefaultPreviewRows when <= 0).
func Summarize(t *domain.Table, previewRows int) *SummaryReport {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}

	report := &SummaryReport{
		Name:              t.Name,
		Rows:              t.Rows(),
		Columns:           t.Width(),
		ColumnNames:       t.ColumnNames(),
		Kinds:             make(map[string]domain.ColumnKind, t.Width()),
		MissingValues:     make(map[string]int, t.Width()),
		MissingPercentage: make(map[string]float64, t.Width()),
		NumericStats:      make(map[string]stats.Summary),
		CategoricalStats:  make(map[string]CategoricalStats),
		Preview:           Preview(t, previewRows),
	}

	for _, col := range t.Columns() {
		nulls := col.NullCount()
		report.Kinds[col.Name] = col.Kind
		report.MissingValues[col.Name] = nulls
		if t.Rows() > 0 {
			report.MissingPercentage[col.Name] = float64(nulls) / float64(t.Rows()) * 100
		}

		switch col.Kind {
		case domain.KindNumeric:
			if vals := col.Floats(); len(vals) > 0 {
				report.NumericStats[col.Name] = stats.Describe(vals)
			}
		case domain.KindText:
			report.CategoricalStats[col.Name] = categorical(col)
		}
	}
	return report
}

// categorical counts distinct non-missing values, most frequent first
func categorical(col *domain.Column) CategoricalStats {
	counts := make(map[string]int)
	for i, v := range col.Raw {
		if !col.IsNull(i) {
			counts[v]++
		}
	}

	top := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		top = append(top, ValueCount{Value: v, Count: n})
	}
	sort.Slice(top, func(a, b int) bool {
		if top[a].Count != top[b].Count {
			return top[a].Count > top[b].Count
		}
		return top[a].Value < top[b].Value
	})
	if len(top) > topValueCount {
		top = top[:topValueCount]
	}
	return CategoricalStats{UniqueCount: len(counts), TopValues: top}
}

// Preview renders the first n rows as a Markdown table
func Preview(t *domain.Table, n int) string {
	header, rows := t.Head(n).Records()
	if len(header) == 0 {
		return ""
	}
	return table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(header...).
		Rows(rows...).
		String()
}
