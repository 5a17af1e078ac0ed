package psm

import (
	"math"
	"strconv"
	"strings"

	"minigopher/pkg/postfix"
)

// Entry is an evaluation stack slot: the operand text and its tag.
type Entry struct {
	Value string
	Tag   postfix.Tag
}

func (e Entry) String() string {
	return e.Value + ":" + e.Tag.String()
}

// Variable is the runtime state of a declared variable.
type Variable struct {
	Name     string
	Type     postfix.Type
	Value    string
	Assigned bool
}

// value is a resolved operand.
type value struct {
	text string
	typ  postfix.Type
}

func (v value) asInt() int64 {
	n, _ := strconv.ParseInt(v.text, 10, 64)
	return n
}

func (v value) asFloat() float64 {
	f, _ := strconv.ParseFloat(v.text, 64)
	return f
}

func (v value) asBool() bool { return v.text == "true" }

func intValue(n int64) value {
	return value{text: strconv.FormatInt(n, 10), typ: postfix.TypeInt}
}

func floatValue(f float64) value {
	return value{text: FormatFloat(f), typ: postfix.TypeFloat}
}

func boolValue(b bool) value {
	return value{text: strconv.FormatBool(b), typ: postfix.TypeBool}
}

// widen converts an intnum value to floatnum.
func (v value) widen() value {
	if v.typ != postfix.TypeInt {
		return v
	}
	return floatValue(float64(v.asInt()))
}

// FormatFloat prints f so it always reads back as a floating literal.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

// parseInput converts a line of input into a value of type t.
func parseInput(line string, t postfix.Type) (value, bool) {
	s := strings.TrimSpace(line)
	switch t {
	case postfix.TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value{}, false
		}
		return intValue(n), true
	case postfix.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value{}, false
		}
		return floatValue(f), true
	case postfix.TypeBool:
		if s == "true" || s == "false" {
			return value{text: s, typ: postfix.TypeBool}, true
		}
	}
	return value{}, false
}

// intPow computes base**exp; negative exponents truncate toward zero.
func intPow(base, exp int64) int64 {
	if exp < 0 {
		return int64(math.Trunc(math.Pow(float64(base), float64(exp))))
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// floorMod is the remainder with the sign of the divisor.
func floorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func floorModFloat(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}
