package queryir

import (
	"fmt"
	"sort"
	"strings"
)

// Query is a query node. Sealed to this package.
type Query interface {
	queryNode()
}

// Predicate is a filter condition. Sealed to this package.
type Predicate interface {
	predicateNode()
}

// Select reads rows of one table.
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order> LIMIT <limit>
type Select struct {
	From    string
	Columns []string  // nil selects every column
	Filter  Predicate // nil matches every row
	OrderBy []Order   // empty orders by id
	Limit   int       // 0 means no limit
}

func (Select) queryNode() {}

// Order is one ORDER BY key.
type Order struct {
	Field string
	Desc  bool
}

// Equals matches rows whose Field equals Value. Value is a string, an
// integer or a bool.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// And matches rows that satisfy every predicate. An empty And matches
// every row.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where builds the conjunction of column = value conditions, ordered by
// column name. It returns nil for no conditions.
func Where(conds map[string]any) Predicate {
	if len(conds) == 0 {
		return nil
	}
	keys := make([]string, 0, len(conds))
	for k := range conds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, len(keys))
	for i, k := range keys {
		preds[i] = Equals{Field: k, Value: conds[k]}
	}
	return And{Predicates: preds}
}

// Describe renders a predicate for messages, e.g. "id=doc-1 AND idx=3".
func Describe(p Predicate) string {
	switch pred := p.(type) {
	case nil:
		return "(no conditions)"
	case Equals:
		return fmt.Sprintf("%s=%v", pred.Field, pred.Value)
	case And:
		if len(pred.Predicates) == 0 {
			return "(no conditions)"
		}
		parts := make([]string, len(pred.Predicates))
		for i, sub := range pred.Predicates {
			parts[i] = Describe(sub)
		}
		return strings.Join(parts, " AND ")
	default:
		return fmt.Sprintf("%T", p)
	}
}
