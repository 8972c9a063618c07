package sqliteucf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEscape is returned when a LIKE escape is not exactly one character.
	ErrInvalidEscape = errors.New("escape expression must be a single character")

	// ErrInvalidUTF8 is returned when a LIKE pattern is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// PatternError describes a LIKE pattern that could not be compiled.
type PatternError struct {
	Pattern string
	Offset  int // byte offset of the problem, or -1 if unknown
	Err     error
}

func (e *PatternError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("sqliteucf: pattern %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("sqliteucf: pattern %q at offset %d: %v", e.Pattern, e.Offset, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
