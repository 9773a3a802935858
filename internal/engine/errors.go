package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error raised by the engine itself rather than by the
// graph or by node code.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Cascade identifies the affected cascade, when there is one.
	Cascade string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates a cascade ran past its step quota.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeStopped indicates work was submitted to a stopped engine.
	ErrCodeStopped RuntimeErrorCode = "ENGINE_STOPPED"

	// ErrCodeNotSettable indicates a set or fire on a node without an
	// accessor.
	ErrCodeNotSettable RuntimeErrorCode = "NOT_SETTABLE"
)

func (e *RuntimeError) Error() string {
	if e.Cascade != "" {
		return fmt.Sprintf("%s: %s (cascade=%s)", e.Code, e.Message, e.Cascade)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsQuotaError reports whether err is a quota failure, either as a
// RuntimeError or a bare StepsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodeQuotaExceeded {
		return true
	}
	return IsStepsExceededError(err)
}

// IsStopped reports whether err was returned because the engine stopped.
func IsStopped(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeStopped
}

// NewQuotaError wraps a StepsExceededError for the cascade it ended.
func NewQuotaError(se *StepsExceededError) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("cascade exceeded max steps (%d > %d)", se.Steps, se.Limit),
		Cascade: se.Cascade,
		Err:     se,
	}
}

func errStopped() *RuntimeError {
	return &RuntimeError{Code: ErrCodeStopped, Message: "engine is stopped"}
}
