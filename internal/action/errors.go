package action

import "fmt"

// UsageError is a malformed invocation. It is reported before any I/O.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// ArityError is an odd argument count for an action that takes pairs.
type ArityError struct {
	Mode  Mode
	Count int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s's arguments must be even numbers", e.Mode)
}
