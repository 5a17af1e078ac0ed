package psm

import (
	"errors"
	"fmt"
	"strings"

	"minigopher/pkg/postfix"
)

// Fault kinds, matched with errors.Is.
var (
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrUnresolvedLabel = errors.New("unresolved label")
	ErrUninitialized   = errors.New("uninitialized variable")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrUndeclared      = errors.New("undeclared variable")
	ErrInvalidTarget   = errors.New("invalid assignment target")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStepLimit       = errors.New("step limit exceeded")
)

// Fault is a runtime error. It aborts execution and leaves the machine in
// the Faulted state with IP at the offending instruction. Line is the
// instruction's line in the loaded program text, 0 when built in memory.
type Fault struct {
	Kind     error
	IP       int
	Line     int
	Instr    postfix.Instr
	Operands []string
	Format   string
	Args     []any
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("%s at ip %d", f.Kind, f.IP)
	if f.Line > 0 {
		msg += fmt.Sprintf(", line %d", f.Line)
	}
	msg += fmt.Sprintf(" (%s %s)", f.Instr.Operand, f.Instr.Tag)
	if f.Format != "" {
		msg += ": " + f.Message()
	}
	if len(f.Operands) > 0 {
		msg += " [" + strings.Join(f.Operands, ", ") + "]"
	}
	return msg
}

// Message is the detail text without kind or location.
func (f *Fault) Message() string {
	return fmt.Sprintf(f.Format, f.Args...)
}

func (f *Fault) Unwrap() error { return f.Kind }
