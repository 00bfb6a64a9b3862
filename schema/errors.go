package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for each failure class of a pipeline run. Use errors.Is to match.
var (
	ErrIO                 = errors.New("io error")
	ErrParse              = errors.New("parse error")
	ErrJoinIntegrity      = errors.New("join integrity error")
	ErrCategoryOutOfRange = errors.New("category out of range")
)

// IOError reports an input file that could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// ParseError reports malformed JSON or a missing required field.
// Field is the JSON path of the offending value when it is known.
type ParseError struct {
	Path  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cannot parse %s at %s: %v", e.Path, e.Field, e.Err)
	}
	return fmt.Sprintf("cannot parse %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// JoinIntegrityError reports a device that cannot be joined to exactly one account.
type JoinIntegrityError struct {
	AccountID string
	Reason    string
}

func (e *JoinIntegrityError) Error() string {
	return fmt.Sprintf("account %q: %s", e.AccountID, e.Reason)
}

// Is matches ErrJoinIntegrity.
func (e *JoinIntegrityError) Is(target error) bool { return target == ErrJoinIntegrity }

// CategoryOutOfRangeError reports a value outside the known category set or risk range.
type CategoryOutOfRangeError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *CategoryOutOfRangeError) Error() string {
	return fmt.Sprintf("%s value %q is out of range (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Is matches ErrCategoryOutOfRange.
func (e *CategoryOutOfRangeError) Is(target error) bool { return target == ErrCategoryOutOfRange }
