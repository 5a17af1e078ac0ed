package compiler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLex      = errors.New("lexical error")
	ErrSyntax   = errors.New("syntax error")
	ErrSemantic = errors.New("semantic error")
)

// Error is a compile-time diagnostic. Kind is one of ErrLex, ErrSyntax or
// ErrSemantic and is matched with errors.Is.
type Error struct {
	Kind    error
	Line    int
	Format  string
	Args    []any
	Snippet string // trimmed source line, may be empty
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s on line %d: %s", e.Kind, e.Line, e.Message())
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

// Message is the error text without kind or location.
func (e *Error) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

func (e *Error) Unwrap() error { return e.Kind }

// sourceLine returns line n of src, trimmed, or "" when out of range.
func sourceLine(src string, n int) string {
	lines := strings.Split(src, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[n-1])
}
