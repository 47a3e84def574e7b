// Package querysql compiles queryir queries to parameterized SQLite.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/cnl/internal/queryir"
)

// Compile converts q to SQL and its parameters. q is validated first, so
// every interpolated name is a plain identifier; values are always
// parameters. Every query has an ORDER BY, defaulting to id.
func Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}
	switch query := q.(type) {
	case queryir.Select:
		return compileSelect(query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func compileSelect(q queryir.Select) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(q.Columns, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(q.From)

	var params []any
	if q.Filter != nil {
		where, ps, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = ps
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(orderBy(q.OrderBy))

	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	return b.String(), params, nil
}

// orderBy renders the ORDER BY keys. COLLATE BINARY keeps text ordering
// stable across SQLite builds.
func orderBy(keys []queryir.Order) string {
	if len(keys) == 0 {
		return "id COLLATE BINARY ASC"
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts[i] = k.Field + " COLLATE BINARY " + dir
	}
	return strings.Join(parts, ", ")
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		param, err := queryir.Param(pred.Value)
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		return pred.Field + " = ?", []any{param}, nil
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, ps, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, ps...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}
