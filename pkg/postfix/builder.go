package postfix

import "fmt"

// Builder appends instructions to a Program as a parser walks its input.
type Builder struct {
	prog      *Program
	nextLabel int
	consts    map[string]bool
}

// NewBuilder returns a builder over an empty program.
func NewBuilder() *Builder {
	return &Builder{prog: NewProgram(), consts: make(map[string]bool)}
}

// Program returns the program built so far.
func (b *Builder) Program() *Program { return b.prog }

// Len is the number of instructions emitted.
func (b *Builder) Len() int { return len(b.prog.Code) }

func (b *Builder) emit(operand string, tag Tag, op Operator) {
	b.prog.Code = append(b.prog.Code, Instr{Operand: operand, Tag: tag, Op: op})
}

// DeclareVar adds a variable to the .vars table.
func (b *Builder) DeclareVar(name string, t Type) {
	b.prog.Vars = append(b.prog.Vars, Var{Name: name, Type: t})
}

// AddConstant records a literal once.
func (b *Builder) AddConstant(lexeme string, t Type) {
	if b.consts[lexeme] {
		return
	}
	b.consts[lexeme] = true
	b.prog.Constants = append(b.prog.Constants, Constant{Lexeme: lexeme, Type: t})
}

// Literal pushes a constant value.
func (b *Builder) Literal(lexeme string, t Type) {
	b.emit(lexeme, t.Tag(), OpNone)
}

// LVal pushes an assignment target.
func (b *Builder) LVal(name string) { b.emit(name, TagLVal, OpNone) }

// RVal pushes a variable read.
func (b *Builder) RVal(name string) { b.emit(name, TagRVal, OpNone) }

// Op emits an operator instruction.
func (b *Builder) Op(op Operator) {
	b.emit(op.Symbol(), op.Tag(), op)
}

// Out emits a print of the value on top of the stack.
func (b *Builder) Out() { b.emit("OUT", TagOut, OpNone) }

// In emits a read into the target on top of the stack.
func (b *Builder) In() { b.emit("IN", TagIn, OpNone) }

// NewLabel allocates the next label name. It is not bound until Label.
func (b *Builder) NewLabel() string {
	b.nextLabel++
	name := fmt.Sprintf("L%d", b.nextLabel)
	b.prog.LabelList = append(b.prog.LabelList, name)
	return name
}

// Label emits the definition of name at the current position.
func (b *Builder) Label(name string) {
	b.prog.Labels[name] = len(b.prog.Code)
	b.emit(name+":", TagLabel, OpNone)
}

// JumpIfFalse emits a conditional jump consuming the condition on the stack.
func (b *Builder) JumpIfFalse(name string) {
	b.emit(name, TagLabel, OpNone)
	b.emit("JF", TagJF, OpNone)
}

// Jump emits an unconditional jump.
func (b *Builder) Jump(name string) {
	b.emit(name, TagLabel, OpNone)
	b.emit("JUMP", TagJump, OpNone)
}

// Cut removes and returns every instruction emitted since mark.
func (b *Builder) Cut(mark int) []Instr {
	if mark < 0 || mark > len(b.prog.Code) {
		return nil
	}
	tail := append([]Instr(nil), b.prog.Code[mark:]...)
	b.prog.Code = b.prog.Code[:mark]
	return tail
}

// Splice appends previously cut instructions, rebinding any label they define.
func (b *Builder) Splice(code []Instr) {
	for _, in := range code {
		if in.IsLabelDef() {
			b.prog.Labels[in.LabelName()] = len(b.prog.Code)
		}
		b.prog.Code = append(b.prog.Code, in)
	}
}
