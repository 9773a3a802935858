package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes graph errors.
type ErrorCode string

const (
	// ErrCodeIllegalDefinition: reserved or underscore-prefixed name,
	// duplicate declaration, or a declaration that cannot be classified.
	ErrCodeIllegalDefinition ErrorCode = "ILLEGAL_DEFINITION"

	// ErrCodeUndefinedReference: a parameter name that resolves to no node.
	ErrCodeUndefinedReference ErrorCode = "UNDEFINED_REFERENCE"

	// ErrCodeIllegalSubdefinition: a subdefinition depending on non-libraries.
	ErrCodeIllegalSubdefinition ErrorCode = "ILLEGAL_SUBDEFINITION"

	// ErrCodeLoadFailed: library or module fetch or execution failed.
	ErrCodeLoadFailed ErrorCode = "LOAD_FAILED"

	// ErrCodeDepthExceeded: a propagation cascade nested deeper than the
	// configured maximum.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
)

// Error is the structured error returned by graph construction and
// evaluation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the declaring or referencing node, if any.
	Node string

	// Reference is the unresolved local name (UndefinedReference only).
	Reference string

	// Scope is the lexical chain active at the failure.
	Scope Chain

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Scope) > 0 {
		fmt.Fprintf(&b, " (scope=%s)", e.Scope)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNotReady is returned when a synthetic node has not produced a value
// yet. Propagation treats it as a suspended evaluation: the node's eventual
// result re-runs its dependents.
var ErrNotReady = errors.New("graph: value not ready")

// errSuperseded abandons an evaluation that already re-ran through the
// cascade started while forcing one of its dependencies.
var errSuperseded = errors.New("graph: evaluation superseded")

// FuncError wraps an error returned by a node body. The innermost failing
// node is reported; enclosing cascades pass it through unchanged.
type FuncError struct {
	Node string
	Err  error
}

// Error implements the error interface.
func (e *FuncError) Error() string {
	return fmt.Sprintf("node %q: %v", e.Node, e.Err)
}

// Unwrap returns the body's error.
func (e *FuncError) Unwrap() error {
	return e.Err
}

func illegalDefinition(name string, chain Chain, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeIllegalDefinition,
		Message: "illegal definition: " + fmt.Sprintf(format, args...),
		Node:    name,
		Scope:   chain,
	}
}

func undefinedReference(reference, node string, chain Chain) *Error {
	return &Error{
		Code:      ErrCodeUndefinedReference,
		Message:   fmt.Sprintf("reference to undefined node %q as dependency of %q", reference, node),
		Node:      node,
		Reference: reference,
		Scope:     chain,
	}
}

func loadFailed(node string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf(format, args...),
		Node:    node,
		Err:     err,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// IsIllegalDefinition reports whether err is an IllegalDefinition error.
func IsIllegalDefinition(err error) bool {
	return hasCode(err, ErrCodeIllegalDefinition)
}

// IsUndefinedReference reports whether err is an UndefinedReference error.
func IsUndefinedReference(err error) bool {
	return hasCode(err, ErrCodeUndefinedReference)
}

// IsIllegalSubdefinition reports whether err is an IllegalSubdefinition error.
func IsIllegalSubdefinition(err error) bool {
	return hasCode(err, ErrCodeIllegalSubdefinition)
}

// IsLoadFailed reports whether err is a library or module load failure.
func IsLoadFailed(err error) bool {
	return hasCode(err, ErrCodeLoadFailed)
}

// IsDepthExceeded reports whether a cascade hit the depth limit.
func IsDepthExceeded(err error) bool {
	return hasCode(err, ErrCodeDepthExceeded)
}
