package queryir

import (
	"fmt"
	"regexp"
)

// identifier matches names that are safe to interpolate as SQL table
// and column names.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IdentifierError reports a table or column name that is not a plain
// identifier.
type IdentifierError struct {
	Kind string // "table" or "column"
	Name string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("invalid %s name %q: must match pattern %s", e.Kind, e.Name, identifier.String())
}

// Validate checks every identifier and value in q.
func Validate(q Query) error {
	switch query := q.(type) {
	case nil:
		return fmt.Errorf("nil query")
	case Select:
		return validateSelect(query)
	default:
		return fmt.Errorf("unsupported query type %T", q)
	}
}

func validateSelect(sel Select) error {
	if !identifier.MatchString(sel.From) {
		return &IdentifierError{Kind: "table", Name: sel.From}
	}
	for _, c := range sel.Columns {
		if !identifier.MatchString(c) {
			return &IdentifierError{Kind: "column", Name: c}
		}
	}
	for _, o := range sel.OrderBy {
		if !identifier.MatchString(o.Field) {
			return &IdentifierError{Kind: "column", Name: o.Field}
		}
	}
	if sel.Limit < 0 {
		return fmt.Errorf("negative limit %d", sel.Limit)
	}
	return validatePredicate(sel.Filter)
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Equals:
		if !identifier.MatchString(pred.Field) {
			return &IdentifierError{Kind: "column", Name: pred.Field}
		}
		if _, err := Param(pred.Value); err != nil {
			return fmt.Errorf("column %s: %w", pred.Field, err)
		}
		return nil
	case And:
		for _, sub := range pred.Predicates {
			if err := validatePredicate(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported predicate type %T", p)
	}
}

// Param converts an Equals value to a SQL parameter. Booleans become 0
// or 1, matching how the transcript tables store flags.
func Param(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case uint64:
		return int64(val), nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("non-integer number %v", val)
		}
		return int64(val), nil
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
