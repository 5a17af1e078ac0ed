package postfix

import "fmt"

// Operator is the decoded form of an operator instruction.
type Operator int

const (
	OpNone Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpPos // unary +
	OpNeg // unary -
	OpLT
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE
	OpAssign
)

type opInfo struct {
	symbol string
	tag    Tag
}

var operators = [...]opInfo{
	OpNone:   {"", TagInvalid},
	OpAdd:    {"+", TagAddOp},
	OpSub:    {"-", TagAddOp},
	OpMul:    {"*", TagMultOp},
	OpDiv:    {"/", TagMultOp},
	OpMod:    {"%", TagMultOp},
	OpPow:    {"**", TagPowerOp},
	OpPos:    {"+", TagUnaryOp},
	OpNeg:    {"-", TagUnaryOp},
	OpLT:     {"<", TagRelOp},
	OpLE:     {"<=", TagRelOp},
	OpGT:     {">", TagRelOp},
	OpGE:     {">=", TagRelOp},
	OpEQ:     {"==", TagRelOp},
	OpNE:     {"!=", TagRelOp},
	OpAssign: {"=", TagAssignOp},
}

// Symbol is the operand text written for the operator.
func (op Operator) Symbol() string {
	if op > OpNone && int(op) < len(operators) {
		return operators[op].symbol
	}
	return ""
}

// Tag is the instruction tag an operator is serialized with.
func (op Operator) Tag() Tag {
	if op > OpNone && int(op) < len(operators) {
		return operators[op].tag
	}
	return TagInvalid
}

func (op Operator) String() string {
	if op > OpNone && int(op) < len(operators) {
		if op.Tag() == TagUnaryOp {
			return "unary" + operators[op].symbol
		}
		return operators[op].symbol
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// IsRelational reports whether op yields a bool.
func (op Operator) IsRelational() bool {
	return op.Tag() == TagRelOp
}

// DecodeOperator resolves an operand symbol under an operator tag.
func DecodeOperator(symbol string, tag Tag) (Operator, bool) {
	for i := OpAdd; int(i) < len(operators); i++ {
		if operators[i].symbol == symbol && operators[i].tag == tag {
			return i, true
		}
	}
	return OpNone, false
}

// BinaryOperator maps a source symbol to its binary operator.
func BinaryOperator(symbol string) (Operator, bool) {
	for i := OpAdd; int(i) < len(operators); i++ {
		if operators[i].symbol == symbol && operators[i].tag != TagUnaryOp && i != OpAssign {
			return i, true
		}
	}
	return OpNone, false
}

// UnaryOperator maps a sign symbol to its unary operator.
func UnaryOperator(symbol string) (Operator, bool) {
	return DecodeOperator(symbol, TagUnaryOp)
}
