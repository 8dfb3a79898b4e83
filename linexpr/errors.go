package linexpr

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is returned for input that is not a well-formed expression.
	ErrSyntax = errors.New("linexpr: syntax error")

	// ErrNonLinear is returned for products, quotients or powers that
	// involve variables on both sides.
	ErrNonLinear = errors.New("linexpr: expression is not linear")

	// ErrDivisionByZero is returned when a term is divided by a constant
	// that evaluates to zero.
	ErrDivisionByZero = errors.New("linexpr: division by zero")
)

// ParseError describes why an input was rejected. It wraps one of the
// package's sentinel errors.
type ParseError struct {
	Input string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s in %q", e.Err, e.Input)
	}

	return fmt.Sprintf("%s in %q: %s", e.Err, e.Input, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(input string, err error, format string, args ...any) *ParseError {
	return &ParseError{
		Input: input,
		Msg:   fmt.Sprintf(format, args...),
		Err:   err,
	}
}
