// Package query narrows loaded tables without ever mutating them.
//
// Query applies predicate filters, then projection, then a row limit.
// Filters are given per column as either a scalar (equality) or an
// operator map:
//
//	query.Filters{
//	    "region":  "north",
//	    "revenue": map[string]any{"gte": 100, "lt": 500},
//	    "product": map[string]any{"in": []any{"A", "B"}},
//	}
//
// Unknown operators and filters on absent columns are skipped and reported
// in Notes rather than failing the query. Projection drops absent columns
// the same way.
//
// TimeSlice selects a time window ordered by the time column, Aggregate
// groups rows and DeriveRatios appends per-row ratio columns.
package query
