package cil

import (
	"fmt"

	"minigopher/pkg/postfix"
)

// operand is an entry of the static type stack.
type operand struct {
	typ    postfix.Type // value type; TypeInvalid for targets and labels
	target string       // l-val name
	label  string       // label reference
	end    int          // len(code) right after this operand's code
}

type translator struct {
	prog   *postfix.Program
	locals map[string]postfix.Type
	code   []Instr
	stack  []operand
	ip     int
}

// Translate converts p into a bytecode module named name.
func Translate(p *postfix.Program, name string) (*Module, error) {
	t := &translator{prog: p, locals: make(map[string]postfix.Type)}
	m := &Module{Name: name, Constants: p.Constants}
	for _, v := range p.Vars {
		t.locals[v.Name] = v.Type
		m.Locals = append(m.Locals, Local{Name: v.Name, Type: v.Type})
	}
	for i, in := range p.Code {
		t.ip = i
		if err := t.step(in); err != nil {
			return nil, err
		}
	}
	if len(t.stack) != 0 {
		return nil, fmt.Errorf("cil: %d operands left on the stack at end of code", len(t.stack))
	}
	t.emit(OpRet, "")
	m.Code = t.code
	return m, nil
}

func (t *translator) errorf(format string, args ...any) error {
	return fmt.Errorf("cil: instruction %d: %s", t.ip, fmt.Sprintf(format, args...))
}

func (t *translator) emit(op Opcode, arg string) {
	t.code = append(t.code, Instr{Op: op, Arg: arg})
}

// insertAt places an instruction at offset, shifting later code.
func (t *translator) insertAt(offset int, op Opcode) {
	t.code = append(t.code, Instr{})
	copy(t.code[offset+1:], t.code[offset:])
	t.code[offset] = Instr{Op: op}
}

func (t *translator) push(o operand) {
	o.end = len(t.code)
	t.stack = append(t.stack, o)
}

func (t *translator) pop() (operand, error) {
	if len(t.stack) == 0 {
		return operand{}, t.errorf("stack underflow")
	}
	o := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return o, nil
}

func (t *translator) popValue() (operand, error) {
	o, err := t.pop()
	if err != nil {
		return o, err
	}
	if o.typ == postfix.TypeInvalid {
		return o, t.errorf("expected a value on the stack")
	}
	return o, nil
}

func (t *translator) popPair() (operand, operand, error) {
	r, err := t.popValue()
	if err != nil {
		return r, r, err
	}
	l, err := t.popValue()
	return l, r, err
}

func (t *translator) popTarget() (string, postfix.Type, error) {
	o, err := t.pop()
	if err != nil {
		return "", postfix.TypeInvalid, err
	}
	if o.target == "" {
		return "", postfix.TypeInvalid, t.errorf("expected an assignment target")
	}
	typ, ok := t.locals[o.target]
	if !ok {
		return "", postfix.TypeInvalid, t.errorf("undeclared variable %q", o.target)
	}
	return o.target, typ, nil
}

func (t *translator) popLabel() (string, error) {
	o, err := t.pop()
	if err != nil {
		return "", err
	}
	if o.label == "" {
		return "", t.errorf("expected a label on the stack")
	}
	return o.label, nil
}

// widen converts whichever of l, r is intnum to floatnum when the pair is mixed.
func (t *translator) widen(l, r operand) postfix.Type {
	if l.typ == r.typ {
		return l.typ
	}
	switch {
	case l.typ == postfix.TypeInt && r.typ == postfix.TypeFloat:
		t.insertAt(l.end, OpConvR4)
	case l.typ == postfix.TypeFloat && r.typ == postfix.TypeInt:
		t.emit(OpConvR4, "")
	default:
		return l.typ
	}
	return postfix.TypeFloat
}

func (t *translator) step(in postfix.Instr) error {
	switch in.Tag {
	case postfix.TagIntNum:
		t.emit(OpLdcI4, in.Operand)
		t.push(operand{typ: postfix.TypeInt})
	case postfix.TagFloatNum:
		t.emit(OpLdcR4, in.Operand)
		t.push(operand{typ: postfix.TypeFloat})
	case postfix.TagBoolVal:
		if in.Operand == "true" {
			t.emit(OpLdcI4_1, "")
		} else {
			t.emit(OpLdcI4_0, "")
		}
		t.push(operand{typ: postfix.TypeBool})
	case postfix.TagRVal:
		typ, ok := t.locals[in.Operand]
		if !ok {
			return t.errorf("undeclared variable %q", in.Operand)
		}
		t.emit(OpLdloc, in.Operand)
		t.push(operand{typ: typ})
	case postfix.TagLVal:
		t.push(operand{target: in.Operand})
	case postfix.TagLabel:
		if in.IsLabelDef() {
			t.emit(OpLabel, in.LabelName())
			return nil
		}
		t.push(operand{label: in.Operand})
	case postfix.TagJF:
		label, err := t.popLabel()
		if err != nil {
			return err
		}
		if _, err := t.popValue(); err != nil {
			return err
		}
		t.emit(OpBrfalse, label)
	case postfix.TagJump:
		label, err := t.popLabel()
		if err != nil {
			return err
		}
		t.emit(OpBr, label)
	case postfix.TagOut:
		v, err := t.popValue()
		if err != nil {
			return err
		}
		t.emit(OpCall, callWriteLine(v.typ))
	case postfix.TagIn:
		name, typ, err := t.popTarget()
		if err != nil {
			return err
		}
		t.emit(OpCall, callReadLine)
		t.emit(OpCall, callParse(typ))
		t.emit(OpStloc, name)
	case postfix.TagAssignOp:
		v, err := t.popValue()
		if err != nil {
			return err
		}
		name, typ, err := t.popTarget()
		if err != nil {
			return err
		}
		if typ == postfix.TypeFloat && v.typ == postfix.TypeInt {
			t.emit(OpConvR4, "")
		}
		t.emit(OpStloc, name)
	case postfix.TagUnaryOp:
		v, err := t.popValue()
		if err != nil {
			return err
		}
		if in.Op == postfix.OpNeg {
			t.emit(OpNeg, "")
		}
		t.push(operand{typ: v.typ})
	case postfix.TagAddOp, postfix.TagMultOp, postfix.TagPowerOp, postfix.TagRelOp:
		return t.binary(in.Op)
	default:
		return t.errorf("unsupported tag %s", in.Tag)
	}
	return nil
}

func (t *translator) binary(op postfix.Operator) error {
	l, r, err := t.popPair()
	if err != nil {
		return err
	}

	if op == postfix.OpPow {
		t.insertAt(l.end, OpConvR8)
		t.emit(OpConvR8, "")
		t.emit(OpCall, callPow)
		if l.typ == postfix.TypeInt && r.typ == postfix.TypeInt {
			t.emit(OpConvI4, "")
			t.push(operand{typ: postfix.TypeInt})
		} else {
			t.emit(OpConvR4, "")
			t.push(operand{typ: postfix.TypeFloat})
		}
		return nil
	}

	typ := t.widen(l, r)
	switch op {
	case postfix.OpAdd:
		t.emit(OpAdd, "")
	case postfix.OpSub:
		t.emit(OpSub, "")
	case postfix.OpMul:
		t.emit(OpMul, "")
	case postfix.OpDiv:
		t.emit(OpDiv, "")
	case postfix.OpMod:
		t.emit(OpRem, "")
	case postfix.OpLT:
		t.emit(OpClt, "")
	case postfix.OpGT:
		t.emit(OpCgt, "")
	case postfix.OpEQ:
		t.emit(OpCeq, "")
	case postfix.OpNE:
		t.emitNegated(OpCeq)
	case postfix.OpLE:
		t.emitNegated(OpCgt)
	case postfix.OpGE:
		t.emitNegated(OpClt)
	default:
		return t.errorf("unsupported operator %s", op)
	}
	if op.IsRelational() {
		typ = postfix.TypeBool
	}
	t.push(operand{typ: typ})
	return nil
}

// emitNegated emits cmp followed by a logical not.
func (t *translator) emitNegated(cmp Opcode) {
	t.emit(cmp, "")
	t.emit(OpLdcI4_0, "")
	t.emit(OpCeq, "")
}
