// Package postfix defines the stack-oriented intermediate representation
// produced by the MiniGopher compiler and consumed by the stack machine.
//
// A Program is a flat instruction stream plus three side tables: declared
// variables, label bindings and the literal constants seen in the source.
// Write and Load convert it to and from the sectioned text format.
package postfix

import (
	"fmt"
	"strings"
)

// Instr is one postfix instruction.
type Instr struct {
	Operand string
	Tag     Tag
	Op      Operator // decoded operator, OpNone for non-operator tags
}

func (in Instr) String() string {
	return fmt.Sprintf("%-12s %s", in.Operand, in.Tag)
}

// IsLabelDef reports whether in defines a label ("L3:").
func (in Instr) IsLabelDef() bool {
	return in.Tag == TagLabel && strings.HasSuffix(in.Operand, ":")
}

// LabelName returns the label name without a trailing colon.
func (in Instr) LabelName() string {
	return strings.TrimSuffix(in.Operand, ":")
}

// Var is a declared variable in declaration order.
type Var struct {
	Name string
	Type Type
}

// Constant is a literal recorded by the lexer.
type Constant struct {
	Lexeme string
	Type   Type
}

// Program is a complete postfix program.
type Program struct {
	Vars      []Var
	Labels    map[string]int // label name -> index of its definition
	LabelList []string       // labels in creation order
	Constants []Constant
	Code      []Instr

	// Lines maps each instruction to its line in the text it was loaded
	// from. It is nil for programs built in memory and is never written.
	Lines []int
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{Labels: make(map[string]int)}
}

// LookupVar returns the variable declared as name.
func (p *Program) LookupVar(name string) (Var, bool) {
	for _, v := range p.Vars {
		if v.Name == name {
			return v, true
		}
	}
	return Var{}, false
}

// Line returns the source line of instruction ip, or 0 when unknown.
func (p *Program) Line(ip int) int {
	if ip < 0 || ip >= len(p.Lines) {
		return 0
	}
	return p.Lines[ip]
}

// Listing renders the code one instruction per line with indices, and the
// source line of each instruction when the program was loaded from text.
func (p *Program) Listing() string {
	var sb strings.Builder
	for i, in := range p.Code {
		if line := p.Line(i); line > 0 {
			fmt.Fprintf(&sb, "%4d  %-32s line %d\n", i, in.String(), line)
			continue
		}
		fmt.Fprintf(&sb, "%4d  %s\n", i, in)
	}
	return sb.String()
}
