package engine

import (
	"errors"
	"fmt"
)

// StepQuota counts evaluations within one cascade and enforces a limit.
//
// The graph's depth limit stops recursion; the quota stops a cascade that
// stays shallow but keeps evaluating, such as a set inside an effect that
// feeds a long chain of nodes over and over.
type StepQuota struct {
	maxSteps int
	current  int
}

// NewStepQuota creates a quota allowing maxSteps evaluations. A limit of
// zero or less disables it.
func NewStepQuota(maxSteps int) *StepQuota {
	return &StepQuota{maxSteps: maxSteps}
}

// Check counts one step and fails once the count passes the limit.
func (q *StepQuota) Check(cascade string) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{Cascade: cascade, Steps: q.current, Limit: q.maxSteps}
	}
	return nil
}

// Current returns the number of steps taken.
func (q *StepQuota) Current() int {
	return q.current
}

// MaxSteps returns the limit.
func (q *StepQuota) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError ends a cascade that ran past its step quota.
type StepsExceededError struct {
	Cascade string
	Steps   int
	Limit   int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("cascade %s exceeded max steps quota: %d steps > %d limit",
		e.Cascade, e.Steps, e.Limit)
}

// IsStepsExceededError reports whether err is or wraps a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
