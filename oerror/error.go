package oerror

import "fmt"

// Error is the error type returned by scavenger packages for conditions that are detected once
// (at construction or at a network boundary) rather than per tick.
type Error struct {
	Err string
}

// New creates a new Error with the message given.
func New(msg string) *Error {
	return &Error{Err: msg}
}

// Newf creates a new Error, formatting the message with the arguments given.
func Newf(format string, args ...any) *Error {
	return &Error{Err: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Err
}

// Is reports whether target is an *Error carrying the same message, so that sentinel values
// declared with New can be matched with errors.Is after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == e.Err
}
