package compiler

import "fmt"

// TokenClass identifies the category of a lexed token.
type TokenClass int

const (
	ClassError TokenClass = iota // never emitted; lexing stops instead

	ClassKeyword       // var const int float bool print scan func if else ...
	ClassIdent         // identifier
	ClassIntNum        // 42
	ClassFloatNum      // 3.14
	ClassBoolVal       // true / false
	ClassAssignOp      // =
	ClassShortAssignOp // :=
	ClassAddOp         // + -
	ClassMultOp        // * / %
	ClassPowerOp       // **
	ClassRelOp         // < <= > >= == !=
	ClassBracketsOp    // ( )
	ClassBlockOp       // { }
	ClassPunct         // ; , :

	ClassWhitespace // consumed, never emitted
	ClassEOL        // consumed, never emitted
)

var classNames = [...]string{
	ClassError:         "error",
	ClassKeyword:       "keyword",
	ClassIdent:         "id",
	ClassIntNum:        "intnum",
	ClassFloatNum:      "floatnum",
	ClassBoolVal:       "boolval",
	ClassAssignOp:      "assign_op",
	ClassShortAssignOp: "short_assign_op",
	ClassAddOp:         "add_op",
	ClassMultOp:        "mult_op",
	ClassPowerOp:       "power_op",
	ClassRelOp:         "rel_op",
	ClassBracketsOp:    "brackets_op",
	ClassBlockOp:       "block_op",
	ClassPunct:         "punct",
	ClassWhitespace:    "ws",
	ClassEOL:           "eol",
}

func (c TokenClass) String() string {
	if int(c) >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("TokenClass(%d)", int(c))
}

// keywords is the fixed keyword table consulted after an identifier is accepted.
var keywords = map[string]bool{
	"var": true, "const": true, "int": true, "float": true, "bool": true,
	"print": true, "scan": true, "func": true, "if": true, "else": true,
	"switch": true, "case": true, "default": true, "for": true, "while": true,
	"main": true,
}

// operatorClasses classifies the fixed operator and punctuation lexemes.
var operatorClasses = map[string]TokenClass{
	"=":  ClassAssignOp,
	":=": ClassShortAssignOp,
	"+":  ClassAddOp,
	"-":  ClassAddOp,
	"*":  ClassMultOp,
	"/":  ClassMultOp,
	"%":  ClassMultOp,
	"**": ClassPowerOp,
	"<":  ClassRelOp,
	"<=": ClassRelOp,
	">":  ClassRelOp,
	">=": ClassRelOp,
	"==": ClassRelOp,
	"!=": ClassRelOp,
	"(":  ClassBracketsOp,
	")":  ClassBracketsOp,
	"{":  ClassBlockOp,
	"}":  ClassBlockOp,
	";":  ClassPunct,
	",":  ClassPunct,
	":":  ClassPunct,
}

// Token is one entry of the token table.
type Token struct {
	Num    int // 1-based position in the token table
	Line   int
	Lexeme string
	Class  TokenClass
	Index  int // identifier or constant table index, 0 when not interned
}

func (t Token) String() string {
	idx := ""
	if t.Index > 0 {
		idx = fmt.Sprint(t.Index)
	}
	return fmt.Sprintf("%4d  %-4d %-12q %-16s %s", t.Num, t.Line, t.Lexeme, t.Class, idx)
}

// Is reports whether t is the given lexeme of the given class.
func (t Token) Is(class TokenClass, lexeme string) bool {
	return t.Class == class && t.Lexeme == lexeme
}

// TokenTable is the immutable lexer output.
type TokenTable struct {
	Tokens []Token
	Idents *IdentTable
	Consts *ConstTable
}

// Len is the number of tokens.
func (tt *TokenTable) Len() int { return len(tt.Tokens) }

// At returns token n, numbered from 1.
func (tt *TokenTable) At(n int) (Token, bool) {
	if n < 1 || n > len(tt.Tokens) {
		return Token{}, false
	}
	return tt.Tokens[n-1], true
}
