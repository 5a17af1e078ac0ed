package compiler

import "strconv"

// charClass is the input alphabet of the lexer automaton.
type charClass int

const (
	chLetter charClass = iota
	chDigit
	chDot
	chColon
	chEqual
	chStar
	chLess
	chGreater
	chBang
	chOperator // + - / % ( ) ; { } ,
	chSpace
	chEOL
	chOther
	chEOF // end of buffer, behaves like chOther for finalization
)

// Automaton states. Values match the numbering used in diagnostics dumps.
const (
	stInit       = 0
	stIdent      = 1
	stIdentEnd   = 2 // *
	stInt        = 3
	stDot        = 4
	stFrac       = 5
	stFloatEnd   = 6  // *
	stIntEnd     = 7  // *
	stColon      = 8
	stShortAsg   = 9  // :=
	stColonEnd   = 10 // * :
	stOperator   = 11
	stEqual      = 12
	stAssignEnd  = 13 // * =
	stEqEq       = 14 // ==
	stStar       = 15
	stStarEnd    = 16 // * *
	stPower      = 17 // **
	stLess       = 18
	stLessEnd    = 19 // * <
	stLessEq     = 20 // <=
	stGreater    = 21
	stGreaterEnd = 22 // * >
	stGreaterEq  = 23 // >=
	stBang       = 24
	stNotEq      = 25 // !=

	stErrChar = 101
	stErrBang = 102
)

type transKey struct {
	state int
	class charClass
}

// transitions is the state transition function. A missing (state, class)
// pair falls back to (state, chOther).
var transitions = map[transKey]int{
	{stInit, chLetter}:   stIdent,
	{stInit, chDigit}:    stInt,
	{stInit, chColon}:    stColon,
	{stInit, chOperator}: stOperator,
	{stInit, chEqual}:    stEqual,
	{stInit, chStar}:     stStar,
	{stInit, chLess}:     stLess,
	{stInit, chGreater}:  stGreater,
	{stInit, chBang}:     stBang,
	{stInit, chSpace}:    stInit,
	{stInit, chEOL}:      stInit,
	{stInit, chOther}:    stErrChar,

	{stIdent, chLetter}: stIdent,
	{stIdent, chDigit}:  stIdent,
	{stIdent, chOther}:  stIdentEnd,

	{stInt, chDigit}: stInt,
	{stInt, chDot}:   stDot,
	{stInt, chOther}: stIntEnd,

	{stDot, chDigit}: stFrac,
	{stDot, chOther}: stErrChar,

	{stFrac, chDigit}: stFrac,
	{stFrac, chOther}: stFloatEnd,

	{stColon, chEqual}: stShortAsg,
	{stColon, chOther}: stColonEnd,

	{stEqual, chEqual}: stEqEq,
	{stEqual, chOther}: stAssignEnd,

	{stStar, chStar}:  stPower,
	{stStar, chOther}: stStarEnd,

	{stLess, chEqual}: stLessEq,
	{stLess, chOther}: stLessEnd,

	{stGreater, chEqual}: stGreaterEq,
	{stGreater, chOther}: stGreaterEnd,

	{stBang, chEqual}: stNotEq,
	{stBang, chOther}: stErrBang,
}

var finalStates = map[int]bool{
	stIdentEnd: true, stFloatEnd: true, stIntEnd: true,
	stShortAsg: true, stColonEnd: true, stOperator: true,
	stAssignEnd: true, stEqEq: true, stStarEnd: true, stPower: true,
	stLessEnd: true, stLessEq: true, stGreaterEnd: true, stGreaterEq: true,
	stNotEq: true,
}

// retracting states accepted on a lookahead that belongs to the next token.
var retracting = map[int]bool{
	stIdentEnd: true, stFloatEnd: true, stIntEnd: true, stColonEnd: true,
	stAssignEnd: true, stStarEnd: true, stLessEnd: true, stGreaterEnd: true,
}

func nextState(state int, class charClass) int {
	if next, ok := transitions[transKey{state, class}]; ok {
		return next
	}
	if next, ok := transitions[transKey{state, chOther}]; ok {
		return next
	}
	return stErrChar
}

func classOf(r rune) charClass {
	switch {
	case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		return chLetter
	case r >= '0' && r <= '9':
		return chDigit
	}
	switch r {
	case '.':
		return chDot
	case ':':
		return chColon
	case '=':
		return chEqual
	case '*':
		return chStar
	case '<':
		return chLess
	case '>':
		return chGreater
	case '!':
		return chBang
	case '+', '-', '/', '%', '(', ')', ';', '{', '}', ',':
		return chOperator
	case ' ', '\t', '\r':
		return chSpace
	case '\n':
		return chEOL
	}
	return chOther
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src   []rune
	pos   int // index of the next rune to consume; len(src) yields chEOF once
	line  int
	table *TokenTable
}

func newLexer(src string) *Lexer {
	return &Lexer{
		src:  []rune(src),
		line: 1,
		table: &TokenTable{
			Idents: NewIdentTable(),
			Consts: NewConstTable(),
		},
	}
}

// read consumes one character.
func (l *Lexer) read() (rune, charClass) {
	if l.pos >= len(l.src) {
		l.pos++
		return 0, chEOF
	}
	r := l.src[l.pos]
	l.pos++
	c := classOf(r)
	if c == chEOL {
		l.line++
	}
	return r, c
}

// unread returns the last character so it starts the next token.
func (l *Lexer) unread() {
	l.pos--
	if l.pos < len(l.src) && l.src[l.pos] == '\n' {
		l.line--
	}
}

// Lex runs the automaton over src and returns the token table. Any error
// state aborts lexing; the partial table is discarded.
func Lex(src string) (*TokenTable, error) {
	l := newLexer(src)
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.table, nil
}

func (l *Lexer) run() error {
	state := stInit
	var lexeme []rune
	startLine := l.line

	for {
		r, class := l.read()
		if state == stInit {
			if class == chEOF {
				return nil
			}
			startLine = l.line
		}

		next := nextState(state, class)
		switch {
		case next == stErrChar || next == stErrBang:
			return l.fail(state, next, startLine, string(lexeme), r, class)

		case finalStates[next]:
			if retracting[next] {
				l.unread()
			} else {
				lexeme = append(lexeme, r)
			}
			if err := l.accept(next, string(lexeme), startLine); err != nil {
				return err
			}
			lexeme = lexeme[:0]
			state = stInit

		default:
			if next != stInit {
				lexeme = append(lexeme, r)
			}
			state = next
		}
	}
}

// accept performs the semantic action of a final state. Numeric literals
// must fit the machine's int64 and float64.
func (l *Lexer) accept(state int, lexeme string, line int) error {
	tok := Token{Num: len(l.table.Tokens) + 1, Line: line, Lexeme: lexeme}
	switch state {
	case stIdentEnd:
		switch {
		case lexeme == "true" || lexeme == "false":
			tok.Class = ClassBoolVal
		case keywords[lexeme]:
			tok.Class = ClassKeyword
		default:
			tok.Class = ClassIdent
			tok.Index = l.table.Idents.Intern(lexeme)
		}
	case stIntEnd:
		if _, err := strconv.ParseInt(lexeme, 10, 64); err != nil {
			return l.outOfRange("integer", lexeme, line)
		}
		tok.Class = ClassIntNum
		tok.Index = l.table.Consts.Intern(lexeme, ClassIntNum)
	case stFloatEnd:
		if _, err := strconv.ParseFloat(lexeme, 64); err != nil {
			return l.outOfRange("float", lexeme, line)
		}
		tok.Class = ClassFloatNum
		tok.Index = l.table.Consts.Intern(lexeme, ClassFloatNum)
	default:
		tok.Class = operatorClasses[lexeme]
	}
	l.table.Tokens = append(l.table.Tokens, tok)
	return nil
}

func (l *Lexer) outOfRange(kind, lexeme string, line int) error {
	return &Error{Kind: ErrLex, Line: line, Snippet: l.sourceLine(line),
		Format: kind + " literal %q is out of range", Args: []any{lexeme}}
}

func (l *Lexer) fail(from, errState, line int, lexeme string, r rune, class charClass) error {
	e := &Error{Kind: ErrLex, Line: line, Snippet: l.sourceLine(line)}
	switch {
	case errState == stErrBang && class == chEOF:
		e.Format = "expected '=' after '!' at end of input"
	case errState == stErrBang:
		e.Format, e.Args = "unexpected character %q after '!'", []any{r}
	case from == stDot && class == chEOF:
		e.Format, e.Args = "malformed float literal %q at end of input", []any{lexeme}
	case from == stDot:
		e.Format, e.Args = "malformed float literal %q", []any{lexeme + string(r)}
	default:
		e.Format, e.Args = "unexpected character %q", []any{r}
	}
	return e
}

func (l *Lexer) sourceLine(n int) string {
	return sourceLine(string(l.src), n)
}
