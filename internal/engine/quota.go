package engine

import (
	"errors"
	"fmt"
)

// stepQuota counts chart feeds spent by one prediction and enforces a
// maximum.
//
// Rounds bound the depth of the search; the step quota bounds its width,
// since every round may multiply the number of frontiers.
type stepQuota struct {
	max     int
	current int
}

func newStepQuota(max int) *stepQuota {
	return &stepQuota{max: max}
}

// Check spends one step. It returns a *BudgetExceededError once the quota
// is used up.
func (q *stepQuota) Check() error {
	q.current++
	if q.current > q.max {
		return &BudgetExceededError{Steps: q.current, Limit: q.max}
	}
	return nil
}

// Current returns the number of steps spent.
func (q *stepQuota) Current() int {
	return q.current
}

// BudgetExceededError reports a prediction cut short by its step budget.
type BudgetExceededError struct {
	Steps int
	Limit int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("prediction exceeded step budget: %d steps > %d limit", e.Steps, e.Limit)
}

// IsBudgetExceeded reports whether err is, or wraps, a BudgetExceededError.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
