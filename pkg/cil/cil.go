// Package cil derives a CIL-style bytecode listing from a postfix program.
//
// The translation is mechanical: each postfix instruction maps to a fixed
// opcode sequence, and a static type stack decides where conversions are
// needed. An intnum operand combined with a floatnum one is widened with
// conv.r4, either right after the operand (right side) or retroactively at
// the recorded end of its code (left side).
package cil

import (
	"fmt"

	"minigopher/pkg/postfix"
)

// Opcode is a CIL mnemonic.
type Opcode int

const (
	OpLabel Opcode = iota // label definition, Arg is the name
	OpLdcI4
	OpLdcI4_0
	OpLdcI4_1
	OpLdcR4
	OpLdloc
	OpStloc
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpClt
	OpCgt
	OpCeq
	OpConvR4
	OpConvR8
	OpConvI4
	OpBr
	OpBrfalse
	OpCall
	OpRet
)

var mnemonics = [...]string{
	OpLabel:   "",
	OpLdcI4:   "ldc.i4",
	OpLdcI4_0: "ldc.i4.0",
	OpLdcI4_1: "ldc.i4.1",
	OpLdcR4:   "ldc.r4",
	OpLdloc:   "ldloc",
	OpStloc:   "stloc",
	OpAdd:     "add",
	OpSub:     "sub",
	OpMul:     "mul",
	OpDiv:     "div",
	OpRem:     "rem",
	OpNeg:     "neg",
	OpClt:     "clt",
	OpCgt:     "cgt",
	OpCeq:     "ceq",
	OpConvR4:  "conv.r4",
	OpConvR8:  "conv.r8",
	OpConvI4:  "conv.i4",
	OpBr:      "br",
	OpBrfalse: "brfalse",
	OpCall:    "call",
	OpRet:     "ret",
}

func (op Opcode) String() string {
	if int(op) >= 0 && int(op) < len(mnemonics) {
		return mnemonics[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Instr is one bytecode instruction.
type Instr struct {
	Op  Opcode
	Arg string
}

func (in Instr) String() string {
	if in.Op == OpLabel {
		return in.Arg + ":"
	}
	if in.Arg == "" {
		return in.Op.String()
	}
	return in.Op.String() + " " + in.Arg
}

// Local is a slot in the method's .locals table.
type Local struct {
	Name string
	Type postfix.Type
}

// Module is a translated program.
type Module struct {
	Name      string
	Locals    []Local
	Constants []postfix.Constant
	Code      []Instr
}

// TypeName is the CIL name of a value type.
func TypeName(t postfix.Type) string {
	switch t {
	case postfix.TypeInt:
		return "int32"
	case postfix.TypeFloat:
		return "float32"
	case postfix.TypeBool:
		return "bool"
	}
	return "object"
}

// Runtime calls used by the translation.
const (
	callPow      = "float64 [mscorlib]System.Math::Pow(float64, float64)"
	callReadLine = "string [mscorlib]System.Console::ReadLine()"
)

func callWriteLine(t postfix.Type) string {
	return fmt.Sprintf("void [mscorlib]System.Console::WriteLine(%s)", TypeName(t))
}

func callParse(t postfix.Type) string {
	switch t {
	case postfix.TypeFloat:
		return "float32 [mscorlib]System.Single::Parse(string)"
	case postfix.TypeBool:
		return "bool [mscorlib]System.Boolean::Parse(string)"
	}
	return "int32 [mscorlib]System.Int32::Parse(string)"
}
