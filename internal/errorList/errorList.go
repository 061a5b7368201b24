// Package errorList collects the failures of a verification run into a
// single error value.
package errorList

import (
	"errors"
	"fmt"
)

// ErrTooManyErrors is added to the ErrorList by the Trim method.
var ErrTooManyErrors = errors.New("too many errors")

// ErrorList wraps multiple errors as a single error.
//
// It implements Unwrap() []error, so errors.Is and errors.As look through
// every element.
type ErrorList []error

func (errs ErrorList) Error() string {
	switch len(errs) {
	case 0:
		return "<no errors>"
	case 1:
		return errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", errs[0].Error(), len(errs[1:]))
}

func (errs ErrorList) Unwrap() []error {
	return errs
}

// ErrOrNil returns nil if ErrorList is empty, or the error otherwise.
func (errs ErrorList) ErrOrNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Append an error to the list.
//
// Nested ErrorLists are flattened. A nil err leaves the list unchanged.
func (errs ErrorList) Append(err error) ErrorList {
	if err == nil {
		return errs
	}
	if nested, ok := err.(ErrorList); ok {
		return append(errs, nested...)
	}
	return append(errs, err)
}

// Trim the error list if it has more than limit errors. If the list is trimmed,
// all extraneous errors are replaced with a single ErrTooManyErrors, making the
// returned ErrorList length of limit+1. A limit of zero or less disables
// trimming.
func (errs ErrorList) Trim(limit int) ErrorList {
	if limit <= 0 || len(errs) <= limit {
		return errs
	}
	return append(errs[:limit:limit], ErrTooManyErrors)
}
