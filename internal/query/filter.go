package query

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"finsight/internal/dataprocessing"
	"finsight/pkg/contracts/domain"
)

// Operator is a recognized filter operator
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpLt: true,
	OpGte: true, OpLte: true, OpIn: true, OpContains: true,
}

// Filters maps a column name to a scalar or an operator -> operand map
type Filters map[string]any

// predicate reports whether row i of the column satisfies a clause
type predicate func(i int) bool

// clauses expands one column's condition into operator/operand pairs in a stable order
func clauses(cond any) [][2]any {
	m, ok := asMap(cond)
	if !ok {
		return [][2]any{{string(OpEq), cond}}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]any, len(keys))
	for i, k := range keys {
		out[i] = [2]any{k, m[k]}
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// buildPredicate compiles one clause against a column
func buildPredicate(col *domain.Column, op Operator, operand any) (predicate, error) {
	if op == OpIn {
		return buildIn(col, operand), nil
	}
	if op == OpContains {
		needle := fmt.Sprint(operand)
		return func(i int) bool {
			return !col.IsNull(i) && strings.Contains(col.Raw[i], needle)
		}, nil
	}

	cmp, ok := comparator(col, operand)
	if !ok {
		switch op {
		case OpEq:
			return func(int) bool { return false }, nil
		case OpNe:
			return func(int) bool { return true }, nil
		}
		return nil, fmt.Errorf("operand %v is not comparable with %s column", operand, col.Kind)
	}

	return func(i int) bool {
		if col.IsNull(i) {
			return op == OpNe
		}
		c := cmp(i)
		switch op {
		case OpEq:
			return c == 0
		case OpNe:
			return c != 0
		case OpGt:
			return c > 0
		case OpLt:
			return c < 0
		case OpGte:
			return c >= 0
		default:
			return c <= 0
		}
	}, nil
}

// comparator returns a three-way comparison of row i against operand
func comparator(col *domain.Column, operand any) (func(i int) int, bool) {
	switch col.Kind {
	case domain.KindNumeric:
		v, ok := toFloat(operand)
		if !ok {
			return nil, false
		}
		return func(i int) int { return compareFloat(col.Numbers[i], v) }, true
	case domain.KindTemporal:
		v, ok := toTime(operand)
		if !ok {
			return nil, false
		}
		return func(i int) int { return col.Times[i].Compare(v) }, true
	default:
		v := toString(operand)
		return func(i int) int { return strings.Compare(col.Raw[i], v) }, true
	}
}

func buildIn(col *domain.Column, operand any) predicate {
	members := toSlice(operand)
	preds := make([]predicate, 0, len(members))
	for _, m := range members {
		if p, err := buildPredicate(col, OpEq, m); err == nil {
			preds = append(preds, p)
		}
	}
	return func(i int) bool {
		for _, p := range preds {
			if p(i) {
				return true
			}
		}
		return false
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case fmt.Stringer:
		return dataprocessing.ParseNumber(n.String())
	case string:
		return dataprocessing.ParseNumber(n)
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		return dataprocessing.ParseTime(t)
	}
	return time.Time{}, false
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// toSlice flattens any slice or array operand; scalars become a single member
func toSlice(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
