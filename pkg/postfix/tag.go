package postfix

import "fmt"

// Tag classifies a postfix instruction.
type Tag int

const (
	TagInvalid Tag = iota

	// Push class: operand goes onto the stack unevaluated.
	TagIntNum   // integer literal
	TagFloatNum // floating literal
	TagBoolVal  // true / false
	TagLVal     // variable used as assignment target
	TagRVal     // variable read
	TagLabel    // "L3" reference, or "L3:" definition

	// Operators
	TagAddOp
	TagMultOp
	TagPowerOp
	TagUnaryOp
	TagRelOp
	TagAssignOp

	// Control and I/O
	TagJF
	TagJump
	TagIn
	TagOut
)

var tagNames = [...]string{
	TagInvalid:  "invalid",
	TagIntNum:   "intnum",
	TagFloatNum: "floatnum",
	TagBoolVal:  "boolval",
	TagLVal:     "l-val",
	TagRVal:     "r-val",
	TagLabel:    "label",
	TagAddOp:    "add_op",
	TagMultOp:   "mult_op",
	TagPowerOp:  "power_op",
	TagUnaryOp:  "unary_op",
	TagRelOp:    "rel_op",
	TagAssignOp: "assign_op",
	TagJF:       "jf",
	TagJump:     "jump",
	TagIn:       "in",
	TagOut:      "out",
}

func (t Tag) String() string {
	if int(t) >= 0 && int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// ParseTag maps the serialized tag name back to a Tag.
func ParseTag(s string) (Tag, bool) {
	for i, name := range tagNames {
		if Tag(i) != TagInvalid && name == s {
			return Tag(i), true
		}
	}
	return TagInvalid, false
}

// IsLiteral reports whether t tags a constant value.
func (t Tag) IsLiteral() bool {
	return t == TagIntNum || t == TagFloatNum || t == TagBoolVal
}

// IsVariable reports whether t tags a variable reference.
func (t Tag) IsVariable() bool {
	return t == TagLVal || t == TagRVal
}

// Type is the value type of a variable or a stack entry.
type Type int

const (
	TypeInvalid Type = iota
	TypeInt
	TypeFloat
	TypeBool
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "intnum"
	case TypeFloat:
		return "floatnum"
	case TypeBool:
		return "bool"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType accepts the serialized type names and the surface keywords.
func ParseType(s string) (Type, bool) {
	switch s {
	case "intnum", "int":
		return TypeInt, true
	case "floatnum", "float":
		return TypeFloat, true
	case "bool", "boolval":
		return TypeBool, true
	}
	return TypeInvalid, false
}

// Tag returns the literal tag carrying a value of type t.
func (t Type) Tag() Tag {
	switch t {
	case TypeInt:
		return TagIntNum
	case TypeFloat:
		return TagFloatNum
	case TypeBool:
		return TagBoolVal
	}
	return TagInvalid
}

// TypeOf returns the value type a literal tag carries.
func TypeOf(t Tag) Type {
	switch t {
	case TagIntNum:
		return TypeInt
	case TagFloatNum:
		return TypeFloat
	case TagBoolVal:
		return TypeBool
	}
	return TypeInvalid
}
