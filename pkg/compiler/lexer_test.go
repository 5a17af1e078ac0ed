package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestLexSingleLexeme(t *testing.T) {
	tests := []struct {
		input string
		class TokenClass
		index int
	}{
		{"x", ClassIdent, 1},
		{"abc12", ClassIdent, 1},
		{"var", ClassKeyword, 0},
		{"main", ClassKeyword, 0},
		{"while", ClassKeyword, 0},
		{"true", ClassBoolVal, 0},
		{"false", ClassBoolVal, 0},
		{"42", ClassIntNum, 1},
		{"0", ClassIntNum, 1},
		{"3.14", ClassFloatNum, 1},
		{"=", ClassAssignOp, 0},
		{":=", ClassShortAssignOp, 0},
		{"+", ClassAddOp, 0},
		{"-", ClassAddOp, 0},
		{"*", ClassMultOp, 0},
		{"/", ClassMultOp, 0},
		{"%", ClassMultOp, 0},
		{"**", ClassPowerOp, 0},
		{"<", ClassRelOp, 0},
		{"<=", ClassRelOp, 0},
		{">", ClassRelOp, 0},
		{">=", ClassRelOp, 0},
		{"==", ClassRelOp, 0},
		{"!=", ClassRelOp, 0},
		{"(", ClassBracketsOp, 0},
		{")", ClassBracketsOp, 0},
		{"{", ClassBlockOp, 0},
		{"}", ClassBlockOp, 0},
		{";", ClassPunct, 0},
		{",", ClassPunct, 0},
		{":", ClassPunct, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			table, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tt.input, err)
			}
			if table.Len() != 1 {
				t.Fatalf("Lex(%q) produced %d tokens, want 1", tt.input, table.Len())
			}
			tok, _ := table.At(1)
			want := Token{Num: 1, Line: 1, Lexeme: tt.input, Class: tt.class, Index: tt.index}
			if tok != want {
				t.Errorf("Lex(%q) = %+v, want %+v", tt.input, tok, want)
			}
		})
	}
}

type lexed struct {
	Lexeme string
	Class  TokenClass
}

func simplify(table *TokenTable) []lexed {
	out := make([]lexed, 0, table.Len())
	for _, tok := range table.Tokens {
		out = append(out, lexed{tok.Lexeme, tok.Class})
	}
	return out
}

func TestLexSequences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []lexed
	}{
		{
			name:  "no spaces",
			input: "a:=b**2",
			want: []lexed{
				{"a", ClassIdent}, {":=", ClassShortAssignOp}, {"b", ClassIdent},
				{"**", ClassPowerOp}, {"2", ClassIntNum},
			},
		},
		{
			name:  "relational run",
			input: "a<=b>c!=d==e",
			want: []lexed{
				{"a", ClassIdent}, {"<=", ClassRelOp}, {"b", ClassIdent}, {">", ClassRelOp},
				{"c", ClassIdent}, {"!=", ClassRelOp}, {"d", ClassIdent}, {"==", ClassRelOp},
				{"e", ClassIdent},
			},
		},
		{
			name:  "number followed by letters",
			input: "12abc",
			want:  []lexed{{"12", ClassIntNum}, {"abc", ClassIdent}},
		},
		{
			name:  "float then identifier",
			input: "1.5e",
			want:  []lexed{{"1.5", ClassFloatNum}, {"e", ClassIdent}},
		},
		{
			name:  "star then star-star",
			input: "a * b ** c",
			want: []lexed{
				{"a", ClassIdent}, {"*", ClassMultOp}, {"b", ClassIdent},
				{"**", ClassPowerOp}, {"c", ClassIdent},
			},
		},
		{
			name:  "case label colon",
			input: "case 1:",
			want:  []lexed{{"case", ClassKeyword}, {"1", ClassIntNum}, {":", ClassPunct}},
		},
		{
			name:  "whitespace only",
			input: " \t\r\n\n ",
			want:  []lexed{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex error: %v", err)
			}
			if got := simplify(table); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lex(%q) =\n%v\nwant\n%v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLexLineNumbers(t *testing.T) {
	src := "var a int;\n\nfunc main() {\n  a\n= 1;\n}"
	table, err := Lex(src)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"var": 1, "func": 3, "{": 3, "a": 4, "=": 5, "}": 6}
	for _, tok := range table.Tokens {
		if line, ok := want[tok.Lexeme]; ok && tok.Lexeme != "a" && tok.Line != line {
			t.Errorf("token %q on line %d, want %d", tok.Lexeme, tok.Line, line)
		}
	}
	// the second "a" is the one inside main
	var lines []int
	for _, tok := range table.Tokens {
		if tok.Lexeme == "a" {
			lines = append(lines, tok.Line)
		}
	}
	if !reflect.DeepEqual(lines, []int{1, 4}) {
		t.Errorf("lines of a = %v, want [1 4]", lines)
	}
	for i, tok := range table.Tokens {
		if tok.Num != i+1 {
			t.Fatalf("token %d numbered %d", i+1, tok.Num)
		}
	}
}

func TestLexInterning(t *testing.T) {
	table, err := Lex("x y x 1 2.5 1 y")
	if err != nil {
		t.Fatal(err)
	}
	var got []int
	for _, tok := range table.Tokens {
		got = append(got, tok.Index)
	}
	if want := []int{1, 2, 1, 1, 2, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("indices = %v, want %v", got, want)
	}

	idents := table.Idents.All()
	if len(idents) != 2 || idents[0].Name != "x" || idents[1].Name != "y" {
		t.Errorf("identifiers = %v", idents)
	}
	consts := table.Consts.All()
	wantConsts := []Constant{{"1", ClassIntNum, 1}, {"2.5", ClassFloatNum, 2}}
	if !reflect.DeepEqual(consts, wantConsts) {
		t.Errorf("constants = %v, want %v", consts, wantConsts)
	}
	if _, ok := table.At(0); ok {
		t.Error("At(0) should be out of range")
	}
	if _, ok := table.At(table.Len() + 1); ok {
		t.Error("At(Len+1) should be out of range")
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		message string
	}{
		{"unknown character", "x @ y", 1, `unexpected character '@'`},
		{"underscore", "\n\n  _x", 3, `unexpected character '_'`},
		{"lone bang", "a ! b", 1, `unexpected character ' ' after '!'`},
		{"bang at end", "a !", 1, `expected '=' after '!' at end of input`},
		{"dot without digits", "x = 3.;", 1, `malformed float literal "3.;"`},
		{"dot at end", "\n5.", 2, `malformed float literal "5." at end of input`},
		{"int overflow", "x := 1;\ny := 99999999999999999999;", 2, `integer literal "99999999999999999999" is out of range`},
		{"largest int", "9223372036854775808", 1, `integer literal "9223372036854775808" is out of range`},
		{"float overflow", "1" + strings.Repeat("0", 400) + ".5", 1, `float literal "1` + strings.Repeat("0", 400) + `.5" is out of range`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Lex(tt.input)
			if err == nil {
				t.Fatalf("expected error, got %d tokens", table.Len())
			}
			if table != nil {
				t.Error("partial table returned on error")
			}
			if !errors.Is(err, ErrLex) {
				t.Errorf("error %v is not ErrLex", err)
			}
			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not *Error", err)
			}
			if ce.Line != tt.line {
				t.Errorf("line = %d, want %d", ce.Line, tt.line)
			}
			if ce.Message() != tt.message {
				t.Errorf("message = %q, want %q", ce.Message(), tt.message)
			}
		})
	}
}

func BenchmarkLex(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := Lex(sampleSource); err != nil {
			b.Fatal(err)
		}
	}
}
