package compiler

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing"

	"minigopher/pkg/postfix"
)

func TestResultType(t *testing.T) {
	tests := []struct {
		op   postfix.Operator
		l, r Type
		want Type
	}{
		{postfix.OpAdd, IntNum, IntNum, IntNum},
		{postfix.OpAdd, IntNum, FloatNum, FloatNum},
		{postfix.OpSub, FloatNum, IntNum, FloatNum},
		{postfix.OpMul, FloatNum, FloatNum, FloatNum},
		{postfix.OpDiv, IntNum, IntNum, IntNum},
		{postfix.OpDiv, IntNum, FloatNum, FloatNum},
		{postfix.OpMod, IntNum, IntNum, IntNum},
		{postfix.OpPow, IntNum, IntNum, IntNum},
		{postfix.OpPow, FloatNum, IntNum, FloatNum},
		{postfix.OpAdd, Bool, IntNum, TypeError},
		{postfix.OpMul, IntNum, Bool, TypeError},
		{postfix.OpAdd, Undeclared, IntNum, TypeError},
		{postfix.OpAdd, TypeError, IntNum, TypeError},
		{postfix.OpLT, IntNum, FloatNum, Bool},
		{postfix.OpEQ, Bool, Bool, Bool},
		{postfix.OpNE, Bool, IntNum, Bool},
		{postfix.OpGE, FloatNum, FloatNum, Bool},
		{postfix.OpEQ, TypeError, IntNum, TypeError},
		{postfix.OpLE, IntNum, Undeclared, TypeError},
	}
	for _, tt := range tests {
		if got := ResultType(tt.op, tt.l, tt.r); got != tt.want {
			t.Errorf("ResultType(%s, %s, %s) = %s, want %s", tt.op, tt.l, tt.r, got, tt.want)
		}
	}
}

func TestAssignable(t *testing.T) {
	tests := []struct {
		target, expr Type
		want         bool
	}{
		{IntNum, IntNum, true},
		{FloatNum, IntNum, true},
		{FloatNum, FloatNum, true},
		{IntNum, FloatNum, false},
		{Bool, Bool, true},
		{Bool, IntNum, false},
		{IntNum, Bool, false},
	}
	for _, tt := range tests {
		if got := Assignable(tt.target, tt.expr); got != tt.want {
			t.Errorf("Assignable(%s, %s) = %v, want %v", tt.target, tt.expr, got, tt.want)
		}
	}
}

func TestTypeIR(t *testing.T) {
	tests := map[Type]postfix.Type{
		IntNum:     postfix.TypeInt,
		FloatNum:   postfix.TypeFloat,
		Bool:       postfix.TypeBool,
		TypeError:  postfix.TypeInvalid,
		Undeclared: postfix.TypeInvalid,
	}
	for in, want := range tests {
		if got := in.IR(); got != want {
			t.Errorf("%s.IR() = %s, want %s", in, got, want)
		}
	}
}

func TestVarTable(t *testing.T) {
	vt := NewVarTable()
	a, ok := vt.Declare("b", IntNum, false)
	if !ok || a.Index != 1 || a.Status != Undefined {
		t.Fatalf("Declare b = %+v, %v", a, ok)
	}
	if _, ok := vt.Declare("a", Bool, true); !ok {
		t.Fatal("Declare a failed")
	}
	if _, ok := vt.Declare("b", FloatNum, false); ok {
		t.Error("duplicate Declare should fail")
	}
	all := vt.All()
	if len(all) != 2 || all[0].Name != "b" || all[1].Name != "a" {
		t.Errorf("All() = %v", all)
	}
	want := "a              2  const bool      undefined\nb              1  var   intnum    undefined\n"
	if got := vt.String(); got != want {
		t.Errorf("String() =\n%q\nwant\n%q", got, want)
	}
}

func TestCompile(t *testing.T) {
	art, err := Compile(sampleSource, "sample")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if art.Tokens.Len() == 0 || art.Program == nil || art.Vars == nil {
		t.Fatalf("incomplete artifacts: %+v", art)
	}
	if art.CIL == nil || art.CIL.Name != "sample" || len(art.CIL.Code) == 0 {
		t.Errorf("CIL module = %+v", art.CIL)
	}

	if _, err := Compile("var x int = 1 @;", "bad"); !errors.Is(err, ErrLex) {
		t.Errorf("lexical failure error = %v", err)
	}
	if _, err := Compile("func main() { x = 1; }", "bad"); !errors.Is(err, ErrSemantic) {
		t.Errorf("semantic failure error = %v", err)
	}
}

func TestParseTraceLevel(t *testing.T) {
	tests := map[string]tracing.TraceLevel{
		"debug": tracing.LevelDebug,
		"info":  tracing.LevelInfo,
		"error": tracing.LevelError,
		"bogus": tracing.LevelError,
	}
	for name, want := range tests {
		if got := ParseTraceLevel(name); got != want {
			t.Errorf("ParseTraceLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
