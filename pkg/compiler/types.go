package compiler

import (
	"fmt"

	"minigopher/pkg/postfix"
)

// Type is the semantic type of a variable or expression.
type Type int

const (
	TypeError Type = iota
	IntNum
	FloatNum
	Bool
	Undeclared
)

var typeNames = [...]string{
	TypeError:  "type_error",
	IntNum:     "intnum",
	FloatNum:   "floatnum",
	Bool:       "bool",
	Undeclared: "undeclared_variable",
}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsNumeric reports whether t takes part in arithmetic.
func (t Type) IsNumeric() bool { return t == IntNum || t == FloatNum }

// typeFromKeyword maps a TypeSpec keyword to its semantic type.
func typeFromKeyword(kw string) (Type, bool) {
	switch kw {
	case "int":
		return IntNum, true
	case "float":
		return FloatNum, true
	case "bool":
		return Bool, true
	}
	return TypeError, false
}

// IR converts t to the postfix value type.
func (t Type) IR() postfix.Type {
	switch t {
	case IntNum:
		return postfix.TypeInt
	case FloatNum:
		return postfix.TypeFloat
	case Bool:
		return postfix.TypeBool
	}
	return postfix.TypeInvalid
}

// ResultType applies the promotion rules to a binary operator. Arithmetic
// needs numeric operands and yields floatnum when either side is floatnum;
// "/" of two intnums is integer division. Relational operators yield bool.
func ResultType(op postfix.Operator, l, r Type) Type {
	if op.IsRelational() {
		if isComparable(l) && isComparable(r) {
			return Bool
		}
		return TypeError
	}
	if !l.IsNumeric() || !r.IsNumeric() {
		return TypeError
	}
	if l == FloatNum || r == FloatNum {
		return FloatNum
	}
	return IntNum
}

func isComparable(t Type) bool {
	return t == IntNum || t == FloatNum || t == Bool
}

// Assignable reports whether a value of type expr can be stored in a
// variable of type target.
func Assignable(target, expr Type) bool {
	return target == expr || (target == FloatNum && expr == IntNum)
}
