package compiler

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validation error codes (E100-E199)
const (
	ErrUnknownType    = "E101" // type names no node kind
	ErrMissingField   = "E102" // required field absent
	ErrUnknownFunc    = "E103" // fn not in the catalog
	ErrIllegalName    = "E104" // reserved or underscore-prefixed name
	ErrInvalidParams  = "E105" // params not a list of names, or a reserved one
	ErrUnknownHelper  = "E106" // data helper not in the catalog
	ErrUnknownShim    = "E107" // library shim not in the catalog
	ErrUnknownField   = "E108" // field not valid for the node type
	ErrInvalidValue   = "E109" // field of the wrong type
	ErrUnknownSource  = "E110" // event source not recognized
	ErrUnknownFactory = "E111" // library factory not in the catalog
)

// ValidationError is one problem in a document.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate parses and compiles a document and returns every problem found.
// A source that does not parse yields a single error with an empty code.
func (c *Compiler) Validate(name, src string) []ValidationError {
	_, err := c.CompileString(name, src)
	return ValidationErrors(err)
}

// ValidationErrors flattens a compile error into its individual problems.
func ValidationErrors(err error) []ValidationError {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return []ValidationError{{Field: "document", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var ve ValidationError
		if errors.As(e, &ve) {
			out = append(out, ve)
			continue
		}
		out = append(out, ValidationError{Field: "document", Message: e.Error()})
	}
	return out
}

// problems accumulates validation errors while a document is compiled.
type problems struct {
	errs *multierror.Error
}

func (p *problems) add(field, code, format string, args ...any) {
	p.errs = multierror.Append(p.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (p *problems) err() error {
	if p.errs == nil {
		return nil
	}
	p.errs.ErrorFormat = listFormat
	return p.errs.ErrorOrNil()
}

func listFormat(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msg := fmt.Sprintf("%d problems:", len(errs))
	for _, e := range errs {
		msg += "\n  " + e.Error()
	}
	return msg
}
