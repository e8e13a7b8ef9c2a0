package jsonv

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEnd        = errors.New("jsonv: unexpected end of input")
	ErrUnexpectedToken      = errors.New("jsonv: unexpected token")
	ErrUnterminatedString   = errors.New("jsonv: unterminated string")
	ErrInvalidEscape        = errors.New("jsonv: invalid escape sequence")
	ErrInvalidSurrogatePair = errors.New("jsonv: invalid surrogate pair")
	ErrInvalidNumber        = errors.New("jsonv: invalid number")
	ErrNumberTooLong        = errors.New("jsonv: number literal too long")
	ErrNumberOutOfRange     = errors.New("jsonv: number out of range")
	ErrMalformedObject      = errors.New("jsonv: malformed object")
	ErrTrailingData         = errors.New("jsonv: trailing data after value")
	ErrTooDeeplyNested      = errors.New("jsonv: nesting too deep")
)

// SyntaxError pins one of the sentinel errors above to a byte offset in the input.
type SyntaxError struct {
	Err    error
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v (offset %d)", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
