package compiler

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"minigopher/pkg/postfix"
)

// Parser consumes the token table and emits postfix code while checking
// declarations, initialization and types in a single pass.
//
// Grammar:
//
//	program      = { declaration } mainSection
//	declaration  = varDecl | shortVarDecl | constDecl
//	varDecl      = "var" IDENT typeSpec [ "=" expression ] ";"
//	shortVarDecl = IDENT ":=" expression ";"
//	constDecl    = "const" IDENT typeSpec "=" expression ";"
//	typeSpec     = "int" | "float" | "bool"
//	mainSection  = "func" "main" "(" ")" "{" { statement | declaration } "}"
//	statement    = assign | output | input | for | while | if | switch
//	assign       = IDENT "=" expression ";"
//	output       = "print" "(" expression { "," expression } ")" ";"
//	input        = "scan" "(" IDENT { "," IDENT } ")" ";"
//	for          = "for" "(" shortVarDecl expression ";" IDENT "=" arithmExpr ")" doBlock
//	while        = "while" expression doBlock
//	if           = "if" expression doBlock [ "else" doBlock ]
//	switch       = "switch" expression "{" { case } [ default ] "}"
//	case         = "case" expression ":" doBlock
//	default      = "default" ":" doBlock
//	doBlock      = statement | "{" { statement } "}"
//	expression   = arithmExpr [ relOp arithmExpr ]
//	arithmExpr   = [ sign ] term { addOp term }
//	term         = factor { multOp factor }
//	factor       = primary [ "**" factor ]
//	primary      = IDENT | INTNUM | FLOATNUM | BOOLVAL | "(" expression ")"
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string

	vars     *VarTable
	out      *postfix.Builder
	switches int // counter for hidden switch subject variables

	tr    tracing.Trace
	depth int
}

func NewParser(table *TokenTable, rawSource string) *Parser {
	return &Parser{
		tokens:      table.Tokens,
		sourceLines: strings.Split(rawSource, "\n"),
		vars:        NewVarTable(),
		out:         postfix.NewBuilder(),
		tr:          T(),
	}
}

// Unit is the result of a successful parse.
type Unit struct {
	Program *postfix.Program
	Vars    *VarTable
}

// Parse recognizes a whole program and returns its postfix code.
func Parse(table *TokenTable, rawSource string) (*Unit, error) {
	p := NewParser(table, rawSource)
	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	for _, c := range table.Consts.All() {
		t := postfix.TypeInt
		if c.Class == ClassFloatNum {
			t = postfix.TypeFloat
		}
		p.out.AddConstant(c.Lexeme, t)
	}
	return &Unit{Program: p.out.Program(), Vars: p.vars}, nil
}

// rule traces entry into a grammar rule; call the returned func on exit.
func (p *Parser) rule(name string) func() {
	p.tr.Debugf("%s%s()", strings.Repeat("  ", p.depth), name)
	p.depth++
	return func() { p.depth-- }
}

func (p *Parser) newError(kind error, tok Token, format string, args ...any) error {
	snippet := ""
	if idx := tok.Line - 1; idx >= 0 && idx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[idx])
	}
	return &Error{Kind: kind, Line: tok.Line, Format: format, Args: args, Snippet: snippet}
}

func (p *Parser) syntaxError(tok Token, format string, args ...any) error {
	return p.newError(ErrSyntax, tok, format, args...)
}

func (p *Parser) semanticError(tok Token, format string, args ...any) error {
	return p.newError(ErrSemantic, tok, format, args...)
}

// peek returns the current token without consuming it. Past the end it
// returns a ClassError token positioned on the last line.
func (p *Parser) peek() Token {
	return p.peekAt(0)
}

func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		line := 1
		if n := len(p.tokens); n > 0 {
			line = p.tokens[n-1].Line
		}
		return Token{Class: ClassError, Line: line}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func describe(tok Token) string {
	if tok.Class == ClassError {
		return "end of program"
	}
	return fmt.Sprintf("%s %q", tok.Class, tok.Lexeme)
}

// expect consumes the current token if it is lexeme of class.
func (p *Parser) expect(class TokenClass, lexeme string) (Token, error) {
	tok := p.peek()
	if !tok.Is(class, lexeme) {
		if p.atEnd() {
			return tok, p.syntaxError(tok, "unexpected end of program, expected %q", lexeme)
		}
		return tok, p.syntaxError(tok, "expected %q, got %s", lexeme, describe(tok))
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent() (Token, error) {
	tok := p.peek()
	if tok.Class != ClassIdent {
		if p.atEnd() {
			return tok, p.syntaxError(tok, "unexpected end of program, expected identifier")
		}
		return tok, p.syntaxError(tok, "expected identifier, got %s", describe(tok))
	}
	return p.advance(), nil
}

func (p *Parser) isKeyword(lexeme string) bool {
	return p.peek().Is(ClassKeyword, lexeme)
}

func (p *Parser) isPunct(lexeme string) bool {
	return p.peek().Is(ClassPunct, lexeme)
}

// declare adds a variable to both the semantic table and the program.
func (p *Parser) declare(tok Token, typ Type, isConst bool) (*Variable, error) {
	v, ok := p.vars.Declare(tok.Lexeme, typ, isConst)
	if !ok {
		return nil, p.semanticError(tok, "variable %q is already declared", tok.Lexeme)
	}
	p.out.DeclareVar(tok.Lexeme, typ.IR())
	return v, nil
}

// lookupTarget resolves a variable about to be written.
func (p *Parser) lookupTarget(tok Token) (*Variable, error) {
	v, ok := p.vars.Lookup(tok.Lexeme)
	if !ok {
		return nil, p.semanticError(tok, "undeclared variable %q", tok.Lexeme)
	}
	if v.Const {
		return nil, p.semanticError(tok, "cannot assign to constant %q", tok.Lexeme)
	}
	return v, nil
}

func (p *Parser) checkAssignable(tok Token, v *Variable, expr Type) error {
	if !Assignable(v.Type, expr) {
		return p.semanticError(tok, "cannot assign %s value to %s variable %q", expr, v.Type, v.Name)
	}
	return nil
}

func (p *Parser) parseProgram() error {
	defer p.rule("Program")()
	for !p.isKeyword("func") {
		if p.atEnd() {
			return p.syntaxError(p.peek(), "unexpected end of program, expected \"func\"")
		}
		if err := p.parseDeclaration(); err != nil {
			return err
		}
	}
	if err := p.parseMainSection(); err != nil {
		return err
	}
	if !p.atEnd() {
		tok := p.peek()
		return p.syntaxError(tok, "unexpected %s after the end of main", describe(tok))
	}
	return nil
}

func (p *Parser) isDeclarationStart() bool {
	if p.isKeyword("var") || p.isKeyword("const") {
		return true
	}
	return p.peek().Class == ClassIdent && p.peekAt(1).Class == ClassShortAssignOp
}

func (p *Parser) parseDeclaration() error {
	defer p.rule("Declaration")()
	switch {
	case p.isKeyword("var"):
		return p.parseVarDecl(false)
	case p.isKeyword("const"):
		return p.parseVarDecl(true)
	case p.peek().Class == ClassIdent && p.peekAt(1).Class == ClassShortAssignOp:
		return p.parseShortVarDecl()
	}
	return p.syntaxError(p.peek(), "expected declaration, got %s", describe(p.peek()))
}

// parseVarDecl handles both "var" and "const"; const requires an initializer.
func (p *Parser) parseVarDecl(isConst bool) error {
	if isConst {
		defer p.rule("ConstDecl")()
	} else {
		defer p.rule("VariableDecl")()
	}
	p.advance()
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	typ, err := p.parseTypeSpec()
	if err != nil {
		return err
	}
	v, err := p.declare(name, typ, isConst)
	if err != nil {
		return err
	}

	if p.peek().Class == ClassAssignOp {
		p.advance()
		p.out.LVal(name.Lexeme)
		t, err := p.parseExpression()
		if err != nil {
			return err
		}
		if err := p.checkAssignable(name, v, t); err != nil {
			return err
		}
		p.out.Op(postfix.OpAssign)
		v.Status = Assigned
	} else if isConst {
		return p.syntaxError(p.peek(), "constant %q needs a value, got %s", name.Lexeme, describe(p.peek()))
	}

	_, err = p.expect(ClassPunct, ";")
	return err
}

func (p *Parser) parseTypeSpec() (Type, error) {
	tok := p.peek()
	if tok.Class == ClassKeyword {
		if t, ok := typeFromKeyword(tok.Lexeme); ok {
			p.advance()
			return t, nil
		}
	}
	return TypeError, p.syntaxError(tok, "expected type int, float or bool, got %s", describe(tok))
}

func (p *Parser) parseShortVarDecl() error {
	defer p.rule("ShortVarDecl")()
	name := p.advance()
	if _, dup := p.vars.Lookup(name.Lexeme); dup {
		return p.semanticError(name, "variable %q is already declared", name.Lexeme)
	}
	p.advance() // :=
	p.out.LVal(name.Lexeme)
	t, err := p.parseExpression()
	if err != nil {
		return err
	}
	v, err := p.declare(name, t, false)
	if err != nil {
		return err
	}
	p.out.Op(postfix.OpAssign)
	v.Status = Assigned
	_, err = p.expect(ClassPunct, ";")
	return err
}

func (p *Parser) parseMainSection() error {
	defer p.rule("MainSection")()
	if _, err := p.expect(ClassKeyword, "func"); err != nil {
		return err
	}
	if _, err := p.expect(ClassKeyword, "main"); err != nil {
		return err
	}
	if _, err := p.expect(ClassBracketsOp, "("); err != nil {
		return err
	}
	if _, err := p.expect(ClassBracketsOp, ")"); err != nil {
		return err
	}
	if _, err := p.expect(ClassBlockOp, "{"); err != nil {
		return err
	}
	for !p.peek().Is(ClassBlockOp, "}") {
		if p.atEnd() {
			return p.syntaxError(p.peek(), "unexpected end of program, expected \"}\"")
		}
		var err error
		if p.isDeclarationStart() {
			err = p.parseDeclaration()
		} else {
			err = p.parseStatement()
		}
		if err != nil {
			return err
		}
	}
	p.advance()
	return nil
}

func (p *Parser) parseStatement() error {
	defer p.rule("Statement")()
	tok := p.peek()
	switch {
	case tok.Class == ClassIdent:
		if p.peekAt(1).Class == ClassShortAssignOp {
			return p.syntaxError(tok, "declaration of %q is not allowed inside a block", tok.Lexeme)
		}
		return p.parseAssign()
	case tok.Is(ClassKeyword, "print"):
		return p.parseOutput()
	case tok.Is(ClassKeyword, "scan"):
		return p.parseInput()
	case tok.Is(ClassKeyword, "for"):
		return p.parseFor()
	case tok.Is(ClassKeyword, "while"):
		return p.parseWhile()
	case tok.Is(ClassKeyword, "if"):
		return p.parseIf()
	case tok.Is(ClassKeyword, "switch"):
		return p.parseSwitch()
	}
	if p.atEnd() {
		return p.syntaxError(tok, "unexpected end of program, expected statement")
	}
	return p.syntaxError(tok, "expected statement, got %s", describe(tok))
}

// parseAssignment parses IDENT "=" rhs, where rhs is produced by parseRHS.
func (p *Parser) parseAssignment(parseRHS func() (Type, error)) error {
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	v, err := p.lookupTarget(name)
	if err != nil {
		return err
	}
	if tok := p.peek(); tok.Class != ClassAssignOp {
		return p.syntaxError(tok, "expected \"=\" after %q, got %s", name.Lexeme, describe(tok))
	}
	p.advance()
	p.out.LVal(name.Lexeme)
	t, err := parseRHS()
	if err != nil {
		return err
	}
	if err := p.checkAssignable(name, v, t); err != nil {
		return err
	}
	p.out.Op(postfix.OpAssign)
	v.Status = Assigned
	return nil
}

func (p *Parser) parseAssign() error {
	defer p.rule("Assign")()
	if err := p.parseAssignment(p.parseExpression); err != nil {
		return err
	}
	_, err := p.expect(ClassPunct, ";")
	return err
}

func (p *Parser) parseOutput() error {
	defer p.rule("Output")()
	p.advance()
	if _, err := p.expect(ClassBracketsOp, "("); err != nil {
		return err
	}
	for {
		if _, err := p.parseExpression(); err != nil {
			return err
		}
		p.out.Out()
		if !p.isPunct(",") {
			break
		}
		p.advance()
	}
	if _, err := p.expect(ClassBracketsOp, ")"); err != nil {
		return err
	}
	_, err := p.expect(ClassPunct, ";")
	return err
}

func (p *Parser) parseInput() error {
	defer p.rule("Input")()
	p.advance()
	if _, err := p.expect(ClassBracketsOp, "("); err != nil {
		return err
	}
	for {
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		v, err := p.lookupTarget(name)
		if err != nil {
			return err
		}
		p.out.LVal(name.Lexeme)
		p.out.In()
		v.Status = Assigned
		if !p.isPunct(",") {
			break
		}
		p.advance()
	}
	if _, err := p.expect(ClassBracketsOp, ")"); err != nil {
		return err
	}
	_, err := p.expect(ClassPunct, ";")
	return err
}

// parseCondition parses an expression that must be bool.
func (p *Parser) parseCondition(construct string) error {
	tok := p.peek()
	t, err := p.parseExpression()
	if err != nil {
		return err
	}
	if t != Bool {
		return p.semanticError(tok, "%s condition must be bool, got %s", construct, t)
	}
	return nil
}

func (p *Parser) parseIf() error {
	defer p.rule("If")()
	p.advance()
	if err := p.parseCondition("if"); err != nil {
		return err
	}
	elseLabel := p.out.NewLabel()
	p.out.JumpIfFalse(elseLabel)
	if err := p.parseDoBlock(); err != nil {
		return err
	}
	if !p.isKeyword("else") {
		p.out.Label(elseLabel)
		return nil
	}
	p.advance()
	endLabel := p.out.NewLabel()
	p.out.Jump(endLabel)
	p.out.Label(elseLabel)
	if err := p.parseDoBlock(); err != nil {
		return err
	}
	p.out.Label(endLabel)
	return nil
}

func (p *Parser) parseWhile() error {
	defer p.rule("While")()
	p.advance()
	start := p.out.NewLabel()
	p.out.Label(start)
	if err := p.parseCondition("while"); err != nil {
		return err
	}
	end := p.out.NewLabel()
	p.out.JumpIfFalse(end)
	if err := p.parseDoBlock(); err != nil {
		return err
	}
	p.out.Jump(start)
	p.out.Label(end)
	return nil
}

// parseFor emits init, start:, cond, jf end, body, increment, jump start, end:.
// The increment is parsed before the body, so its code is cut and re-spliced.
func (p *Parser) parseFor() error {
	defer p.rule("For")()
	p.advance()
	if _, err := p.expect(ClassBracketsOp, "("); err != nil {
		return err
	}
	if tok := p.peek(); tok.Class != ClassIdent || p.peekAt(1).Class != ClassShortAssignOp {
		return p.syntaxError(tok, "expected short variable declaration in for, got %s", describe(tok))
	}
	if err := p.parseShortVarDecl(); err != nil {
		return err
	}

	start := p.out.NewLabel()
	p.out.Label(start)
	if err := p.parseCondition("for"); err != nil {
		return err
	}
	if _, err := p.expect(ClassPunct, ";"); err != nil {
		return err
	}
	end := p.out.NewLabel()
	p.out.JumpIfFalse(end)

	mark := p.out.Len()
	if err := p.parseAssignment(p.parseArithmExpr); err != nil {
		return err
	}
	increment := p.out.Cut(mark)

	if _, err := p.expect(ClassBracketsOp, ")"); err != nil {
		return err
	}
	if err := p.parseDoBlock(); err != nil {
		return err
	}
	p.out.Splice(increment)
	p.out.Jump(start)
	p.out.Label(end)
	return nil
}

// parseSwitch stores the subject in a hidden variable and compares it with
// each case expression in turn.
func (p *Parser) parseSwitch() error {
	defer p.rule("Switch")()
	kw := p.advance()
	p.switches++
	subject := fmt.Sprintf("_sw%d", p.switches)

	p.out.LVal(subject)
	subjectType, err := p.parseExpression()
	if err != nil {
		return err
	}
	v, err := p.declare(Token{Lexeme: subject, Line: kw.Line}, subjectType, false)
	if err != nil {
		return err
	}
	v.Hidden = true
	v.Status = Assigned
	p.out.Op(postfix.OpAssign)

	if _, err := p.expect(ClassBlockOp, "{"); err != nil {
		return err
	}
	end := p.out.NewLabel()
	for p.isKeyword("case") {
		if err := p.parseCase(subject, subjectType, end); err != nil {
			return err
		}
	}
	if p.isKeyword("default") {
		if err := p.parseDefault(); err != nil {
			return err
		}
	}
	if _, err := p.expect(ClassBlockOp, "}"); err != nil {
		return err
	}
	p.out.Label(end)
	return nil
}

func (p *Parser) parseCase(subject string, subjectType Type, end string) error {
	defer p.rule("Case")()
	p.advance()
	p.out.RVal(subject)
	tok := p.peek()
	t, err := p.parseExpression()
	if err != nil {
		return err
	}
	if ResultType(postfix.OpEQ, subjectType, t) == TypeError {
		return p.semanticError(tok, "case value of type %s cannot match %s subject", t, subjectType)
	}
	p.out.Op(postfix.OpEQ)
	next := p.out.NewLabel()
	p.out.JumpIfFalse(next)
	if _, err := p.expect(ClassPunct, ":"); err != nil {
		return err
	}
	if err := p.parseDoBlock(); err != nil {
		return err
	}
	p.out.Jump(end)
	p.out.Label(next)
	return nil
}

func (p *Parser) parseDefault() error {
	defer p.rule("Default")()
	p.advance()
	if _, err := p.expect(ClassPunct, ":"); err != nil {
		return err
	}
	return p.parseDoBlock()
}

func (p *Parser) parseDoBlock() error {
	defer p.rule("DoBlock")()
	if !p.peek().Is(ClassBlockOp, "{") {
		return p.parseStatement()
	}
	p.advance()
	for !p.peek().Is(ClassBlockOp, "}") {
		if p.atEnd() {
			return p.syntaxError(p.peek(), "unexpected end of program, expected \"}\"")
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	p.advance()
	return nil
}

func (p *Parser) parseExpression() (Type, error) {
	defer p.rule("Expression")()
	left, err := p.parseArithmExpr()
	if err != nil {
		return TypeError, err
	}
	tok := p.peek()
	if tok.Class != ClassRelOp {
		return left, nil
	}
	p.advance()
	right, err := p.parseArithmExpr()
	if err != nil {
		return TypeError, err
	}
	op, _ := postfix.BinaryOperator(tok.Lexeme)
	return p.emitBinary(tok, op, left, right)
}

func (p *Parser) emitBinary(tok Token, op postfix.Operator, left, right Type) (Type, error) {
	t := ResultType(op, left, right)
	if t == TypeError {
		return TypeError, p.semanticError(tok, "operator %s cannot be applied to %s and %s", op, left, right)
	}
	p.out.Op(op)
	return t, nil
}

func (p *Parser) parseArithmExpr() (Type, error) {
	defer p.rule("ArithmExpr")()
	var sign *Token
	if tok := p.peek(); tok.Class == ClassAddOp {
		p.advance()
		sign = &tok
	}
	t, err := p.parseTerm()
	if err != nil {
		return TypeError, err
	}
	if sign != nil {
		if !t.IsNumeric() {
			return TypeError, p.semanticError(*sign, "unary %s requires a numeric operand, got %s", sign.Lexeme, t)
		}
		op, _ := postfix.UnaryOperator(sign.Lexeme)
		p.out.Op(op)
	}
	for p.peek().Class == ClassAddOp {
		tok := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return TypeError, err
		}
		op, _ := postfix.BinaryOperator(tok.Lexeme)
		if t, err = p.emitBinary(tok, op, t, right); err != nil {
			return TypeError, err
		}
	}
	return t, nil
}

func (p *Parser) parseTerm() (Type, error) {
	defer p.rule("Term")()
	t, err := p.parseFactor()
	if err != nil {
		return TypeError, err
	}
	for p.peek().Class == ClassMultOp {
		tok := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return TypeError, err
		}
		op, _ := postfix.BinaryOperator(tok.Lexeme)
		if t, err = p.emitBinary(tok, op, t, right); err != nil {
			return TypeError, err
		}
	}
	return t, nil
}

// parseFactor is right-associative: 2 ** 3 ** 2 is 2 ** (3 ** 2).
func (p *Parser) parseFactor() (Type, error) {
	defer p.rule("Factor")()
	t, err := p.parsePrimary()
	if err != nil {
		return TypeError, err
	}
	tok := p.peek()
	if tok.Class != ClassPowerOp {
		return t, nil
	}
	p.advance()
	right, err := p.parseFactor()
	if err != nil {
		return TypeError, err
	}
	return p.emitBinary(tok, postfix.OpPow, t, right)
}

func (p *Parser) parsePrimary() (Type, error) {
	defer p.rule("Primary")()
	tok := p.peek()
	switch tok.Class {
	case ClassIdent:
		p.advance()
		v, ok := p.vars.Lookup(tok.Lexeme)
		if !ok {
			return Undeclared, p.semanticError(tok, "undeclared variable %q", tok.Lexeme)
		}
		if v.Status != Assigned {
			return TypeError, p.semanticError(tok, "variable %q is used before it is assigned", tok.Lexeme)
		}
		p.out.RVal(tok.Lexeme)
		return v.Type, nil
	case ClassIntNum:
		p.advance()
		p.out.Literal(tok.Lexeme, postfix.TypeInt)
		return IntNum, nil
	case ClassFloatNum:
		p.advance()
		p.out.Literal(tok.Lexeme, postfix.TypeFloat)
		return FloatNum, nil
	case ClassBoolVal:
		p.advance()
		p.out.Literal(tok.Lexeme, postfix.TypeBool)
		return Bool, nil
	}
	if tok.Is(ClassBracketsOp, "(") {
		p.advance()
		t, err := p.parseExpression()
		if err != nil {
			return TypeError, err
		}
		if _, err := p.expect(ClassBracketsOp, ")"); err != nil {
			return TypeError, err
		}
		return t, nil
	}
	if p.atEnd() {
		return TypeError, p.syntaxError(tok, "unexpected end of program, expected expression")
	}
	return TypeError, p.syntaxError(tok, "expected expression, got %s", describe(tok))
}
