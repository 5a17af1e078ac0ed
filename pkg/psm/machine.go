// Package psm implements the postfix stack machine: an interpreter for
// postfix programs that re-checks types and initialization at run time.
package psm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"minigopher/pkg/postfix"
)

// State is the machine lifecycle state.
type State int

const (
	Loading State = iota
	Ready
	Running
	Waiting // blocked in scan until PushInput
	Halted
	Faulted
)

var stateNames = [...]string{
	Loading: "loading",
	Ready:   "ready",
	Running: "running",
	Waiting: "waiting",
	Halted:  "halted",
	Faulted: "faulted",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func parseState(s string) (State, bool) {
	for i, name := range stateNames {
		if name == s {
			return State(i), true
		}
	}
	return Loading, false
}

// Options configure a Machine. The zero value prints to os.Stdout and
// waits for PushInput on scan.
type Options struct {
	Output   io.Writer
	Input    InputSource
	MaxSteps int    // 0 means unlimited
	Prompt   string // prefix of the scan prompt
	Trace    tracing.Trace
}

var (
	defaultTraceOnce sync.Once
	defaultTrace     tracing.Trace
)

func fallbackTrace() tracing.Trace {
	defaultTraceOnce.Do(func() {
		defaultTrace = gologadapter.New()
		defaultTrace.SetTraceLevel(tracing.LevelError)
	})
	return defaultTrace
}

// Machine executes one postfix program.
type Machine struct {
	Program *postfix.Program
	IP      int
	Stack   []Entry
	State   State
	Steps   int
	Err     error // the fault once State is Faulted

	Output io.Writer
	Input  InputSource

	vars     map[string]*Variable
	order    []string
	pending  []string
	maxSteps int
	prompt   string
	tr       tracing.Trace
}

// New builds a machine in the Ready state with every variable undefined.
func New(p *postfix.Program, opts Options) *Machine {
	m := &Machine{
		Program:  p,
		State:    Loading,
		Output:   opts.Output,
		Input:    opts.Input,
		vars:     make(map[string]*Variable, len(p.Vars)),
		maxSteps: opts.MaxSteps,
		prompt:   opts.Prompt,
		tr:       opts.Trace,
	}
	if m.tr == nil {
		m.tr = fallbackTrace()
	}
	for _, v := range p.Vars {
		m.vars[v.Name] = &Variable{Name: v.Name, Type: v.Type}
		m.order = append(m.order, v.Name)
	}
	m.State = Ready
	return m
}

// Load reads a serialized program and returns a Ready machine for it.
func Load(r io.Reader, opts Options) (*Machine, error) {
	p, err := postfix.Load(r)
	if err != nil {
		return nil, err
	}
	return New(p, opts), nil
}

// LoadFile reads the program stored at path.
func LoadFile(path string, opts Options) (*Machine, error) {
	p, err := postfix.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(p, opts), nil
}

func (m *Machine) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

// Variables returns the runtime variables in declaration order.
func (m *Machine) Variables() []Variable {
	out := make([]Variable, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.vars[name])
	}
	return out
}

// Lookup returns the runtime state of a variable.
func (m *Machine) Lookup(name string) (Variable, bool) {
	v, ok := m.vars[name]
	if !ok {
		return Variable{}, false
	}
	return *v, true
}

// PushInput queues a line for scan and resumes a waiting machine.
func (m *Machine) PushInput(line string) {
	m.pending = append(m.pending, line)
	if m.State == Waiting {
		m.State = Running
	}
}

// Awaiting returns the variable a waiting machine wants to scan.
func (m *Machine) Awaiting() (Variable, bool) {
	if m.State != Waiting || len(m.Stack) == 0 {
		return Variable{}, false
	}
	v, ok := m.vars[m.Stack[len(m.Stack)-1].Value]
	if !ok {
		return Variable{}, false
	}
	return *v, true
}

// Done reports whether the machine has stopped for good.
func (m *Machine) Done() bool {
	return m.State == Halted || m.State == Faulted
}

func (m *Machine) current() postfix.Instr {
	if m.IP >= 0 && m.IP < len(m.Program.Code) {
		return m.Program.Code[m.IP]
	}
	return postfix.Instr{}
}

func (m *Machine) fault(kind error, operands []string, format string, args ...any) error {
	f := &Fault{
		Kind:     kind,
		IP:       m.IP,
		Line:     m.Program.Line(m.IP),
		Instr:    m.current(),
		Operands: operands,
		Format:   format,
		Args:     args,
	}
	m.State = Faulted
	m.Err = f
	m.tr.Infof("psm: %v", f)
	return f
}

// checkLabels verifies every label reference before the first instruction runs.
func (m *Machine) checkLabels() error {
	for i, in := range m.Program.Code {
		if in.Tag != postfix.TagLabel || in.IsLabelDef() {
			continue
		}
		idx, ok := m.Program.Labels[in.Operand]
		if !ok || idx < 0 || idx >= len(m.Program.Code) {
			m.IP = i
			return m.fault(ErrUnresolvedLabel, []string{in.Operand}, "label %q is not bound", in.Operand)
		}
	}
	return nil
}

// Step executes one instruction. It returns the fault, if any; a waiting
// or finished machine does nothing.
func (m *Machine) Step() error {
	switch m.State {
	case Halted:
		return nil
	case Faulted:
		return m.Err
	case Waiting:
		if len(m.pending) == 0 && m.Input == nil {
			return nil
		}
		m.State = Running
	case Ready:
		if err := m.checkLabels(); err != nil {
			return err
		}
		m.State = Running
	case Loading:
		return errors.New("psm: machine is not loaded")
	}

	if m.IP >= len(m.Program.Code) {
		m.State = Halted
		return nil
	}
	if m.maxSteps > 0 && m.Steps >= m.maxSteps {
		return m.fault(ErrStepLimit, nil, "stopped after %d steps", m.Steps)
	}

	in := m.Program.Code[m.IP]
	m.tr.Debugf("%4d  %-12s %-10s %v", m.IP, in.Operand, in.Tag, m.Stack)

	next, err := m.exec(in)
	if err != nil {
		return err
	}
	if m.State == Waiting {
		return nil
	}
	m.Steps++
	m.IP = next
	if m.IP >= len(m.Program.Code) {
		m.State = Halted
	}
	return nil
}

// Run steps until the machine halts, faults or waits for input.
func (m *Machine) Run() error {
	for {
		if err := m.Step(); err != nil {
			return err
		}
		if m.Done() || m.State == Waiting {
			return nil
		}
	}
}

func (m *Machine) push(e Entry) {
	m.Stack = append(m.Stack, e)
}

func (m *Machine) pop() (Entry, error) {
	if len(m.Stack) == 0 {
		return Entry{}, m.fault(ErrStackUnderflow, nil, "pop on empty stack")
	}
	e := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return e, nil
}

func (m *Machine) variable(e Entry) (*Variable, error) {
	v, ok := m.vars[e.Value]
	if !ok {
		return nil, m.fault(ErrUndeclared, []string{e.String()}, "variable %q is not declared", e.Value)
	}
	return v, nil
}

// resolve turns a stack entry into a typed value, reading variables.
func (m *Machine) resolve(e Entry) (value, error) {
	switch {
	case e.Tag.IsLiteral():
		return value{text: e.Value, typ: postfix.TypeOf(e.Tag)}, nil
	case e.Tag.IsVariable():
		v, err := m.variable(e)
		if err != nil {
			return value{}, err
		}
		if !v.Assigned {
			return value{}, m.fault(ErrUninitialized, []string{e.String()}, "variable %q has no value", v.Name)
		}
		return value{text: v.Value, typ: v.Type}, nil
	}
	return value{}, m.fault(ErrTypeMismatch, []string{e.String()}, "%s is not a value", e.Tag)
}

func (m *Machine) popValue() (value, Entry, error) {
	e, err := m.pop()
	if err != nil {
		return value{}, e, err
	}
	v, err := m.resolve(e)
	return v, e, err
}

func (m *Machine) popLabel() (int, error) {
	e, err := m.pop()
	if err != nil {
		return 0, err
	}
	if e.Tag != postfix.TagLabel {
		return 0, m.fault(ErrTypeMismatch, []string{e.String()}, "expected a label")
	}
	idx, ok := m.Program.Labels[e.Value]
	if !ok || idx < 0 || idx >= len(m.Program.Code) {
		return 0, m.fault(ErrUnresolvedLabel, []string{e.Value}, "label %q is not bound", e.Value)
	}
	return idx, nil
}

func (m *Machine) store(v *Variable, val value) {
	v.Value = val.text
	v.Assigned = true
}

// exec runs in and returns the next instruction pointer.
func (m *Machine) exec(in postfix.Instr) (int, error) {
	next := m.IP + 1
	switch in.Tag {
	case postfix.TagIntNum, postfix.TagFloatNum, postfix.TagBoolVal,
		postfix.TagLVal, postfix.TagRVal:
		m.push(Entry{Value: in.Operand, Tag: in.Tag})

	case postfix.TagLabel:
		if !in.IsLabelDef() {
			m.push(Entry{Value: in.Operand, Tag: in.Tag})
		}

	case postfix.TagJF:
		target, err := m.popLabel()
		if err != nil {
			return 0, err
		}
		cond, e, err := m.popValue()
		if err != nil {
			return 0, err
		}
		if cond.typ != postfix.TypeBool {
			return 0, m.fault(ErrTypeMismatch, []string{e.String()}, "condition is %s, not bool", cond.typ)
		}
		if !cond.asBool() {
			next = target
		}

	case postfix.TagJump:
		target, err := m.popLabel()
		if err != nil {
			return 0, err
		}
		next = target

	case postfix.TagOut:
		v, _, err := m.popValue()
		if err != nil {
			return 0, err
		}
		fmt.Fprintln(m.outputSink(), v.text)

	case postfix.TagIn:
		return next, m.input()

	case postfix.TagUnaryOp:
		v, e, err := m.popValue()
		if err != nil {
			return 0, err
		}
		res, err := m.unary(in.Op, v, e)
		if err != nil {
			return 0, err
		}
		m.push(Entry{Value: res.text, Tag: res.typ.Tag()})

	case postfix.TagAssignOp:
		return next, m.assign()

	case postfix.TagAddOp, postfix.TagMultOp, postfix.TagPowerOp, postfix.TagRelOp:
		r, re, err := m.popValue()
		if err != nil {
			return 0, err
		}
		l, le, err := m.popValue()
		if err != nil {
			return 0, err
		}
		res, err := m.binary(in.Op, l, r, []string{le.String(), re.String()})
		if err != nil {
			return 0, err
		}
		m.push(Entry{Value: res.text, Tag: res.typ.Tag()})

	default:
		return 0, m.fault(ErrTypeMismatch, nil, "unknown instruction tag %s", in.Tag)
	}
	return next, nil
}

func (m *Machine) input() error {
	if len(m.Stack) == 0 {
		_, err := m.pop()
		return err
	}
	if len(m.pending) == 0 && m.Input == nil {
		m.State = Waiting
		return nil
	}
	e, _ := m.pop()
	if !e.Tag.IsVariable() {
		return m.fault(ErrInvalidTarget, []string{e.String()}, "scan needs a variable")
	}
	v, err := m.variable(e)
	if err != nil {
		return err
	}

	var line string
	if len(m.pending) > 0 {
		line, m.pending = m.pending[0], m.pending[1:]
	} else {
		line, err = m.Input.ReadLine(fmt.Sprintf("%s%s (%s): ", m.prompt, v.Name, v.Type))
		if errors.Is(err, io.EOF) {
			return m.fault(ErrInvalidInput, []string{e.String()}, "no input for %q", v.Name)
		}
		if err != nil {
			return m.fault(ErrInvalidInput, []string{e.String()}, "reading %q: %v", v.Name, err)
		}
	}
	val, ok := parseInput(line, v.Type)
	if !ok {
		return m.fault(ErrInvalidInput, []string{strings.TrimSpace(line)}, "%q is not a valid %s value for %q", strings.TrimSpace(line), v.Type, v.Name)
	}
	m.store(v, val)
	return nil
}

func (m *Machine) assign() error {
	r, re, err := m.popValue()
	if err != nil {
		return err
	}
	target, err := m.pop()
	if err != nil {
		return err
	}
	if target.Tag != postfix.TagLVal {
		return m.fault(ErrInvalidTarget, []string{target.String(), re.String()}, "cannot assign to %s", target.Tag)
	}
	v, err := m.variable(target)
	if err != nil {
		return err
	}
	switch {
	case v.Type == r.typ:
	case v.Type == postfix.TypeFloat && r.typ == postfix.TypeInt:
		r = r.widen()
	default:
		return m.fault(ErrTypeMismatch, []string{target.String(), re.String()},
			"cannot assign %s to %s variable %q", r.typ, v.Type, v.Name)
	}
	m.store(v, r)
	return nil
}

func (m *Machine) unary(op postfix.Operator, v value, e Entry) (value, error) {
	if v.typ != postfix.TypeInt && v.typ != postfix.TypeFloat {
		return value{}, m.fault(ErrTypeMismatch, []string{e.String()}, "unary %s needs a number, got %s", op.Symbol(), v.typ)
	}
	if op != postfix.OpNeg {
		return v, nil
	}
	if v.typ == postfix.TypeInt {
		return intValue(-v.asInt()), nil
	}
	return floatValue(-v.asFloat()), nil
}

func (m *Machine) binary(op postfix.Operator, l, r value, operands []string) (value, error) {
	// operands must share a type; only assignment widens
	if l.typ != r.typ {
		return value{}, m.fault(ErrTypeMismatch, operands, "%s and %s operands for %s", l.typ, r.typ, op)
	}
	if op.IsRelational() {
		return boolValue(compare(op, l, r)), nil
	}
	switch l.typ {
	case postfix.TypeInt:
		return m.intArith(op, l.asInt(), r.asInt(), operands)
	case postfix.TypeFloat:
		return m.floatArith(op, l.asFloat(), r.asFloat(), operands)
	}
	return value{}, m.fault(ErrTypeMismatch, operands, "operator %s needs numbers, got %s", op, l.typ)
}

func (m *Machine) intArith(op postfix.Operator, a, b int64, operands []string) (value, error) {
	switch op {
	case postfix.OpAdd:
		return intValue(a + b), nil
	case postfix.OpSub:
		return intValue(a - b), nil
	case postfix.OpMul:
		return intValue(a * b), nil
	case postfix.OpDiv:
		if b == 0 {
			return value{}, m.fault(ErrDivisionByZero, operands, "%d / 0", a)
		}
		return intValue(a / b), nil
	case postfix.OpMod:
		if b == 0 {
			return value{}, m.fault(ErrDivisionByZero, operands, "%d %% 0", a)
		}
		return intValue(floorMod(a, b)), nil
	case postfix.OpPow:
		if a == 0 && b < 0 {
			return value{}, m.fault(ErrDivisionByZero, operands, "0 ** %d", b)
		}
		return intValue(intPow(a, b)), nil
	}
	return value{}, m.fault(ErrTypeMismatch, operands, "operator %s is not arithmetic", op)
}

func (m *Machine) floatArith(op postfix.Operator, a, b float64, operands []string) (value, error) {
	switch op {
	case postfix.OpAdd:
		return floatValue(a + b), nil
	case postfix.OpSub:
		return floatValue(a - b), nil
	case postfix.OpMul:
		return floatValue(a * b), nil
	case postfix.OpDiv:
		if b == 0 {
			return value{}, m.fault(ErrDivisionByZero, operands, "%s / 0", FormatFloat(a))
		}
		return floatValue(a / b), nil
	case postfix.OpMod:
		if b == 0 {
			return value{}, m.fault(ErrDivisionByZero, operands, "%s %% 0", FormatFloat(a))
		}
		return floatValue(floorModFloat(a, b)), nil
	case postfix.OpPow:
		if a == 0 && b < 0 {
			return value{}, m.fault(ErrDivisionByZero, operands, "0.0 ** %s", FormatFloat(b))
		}
		return floatValue(math.Pow(a, b)), nil
	}
	return value{}, m.fault(ErrTypeMismatch, operands, "operator %s is not arithmetic", op)
}

// compare applies a relational operator to two values of the same type.
func compare(op postfix.Operator, l, r value) bool {
	var c int
	switch l.typ {
	case postfix.TypeInt:
		c = cmp3(l.asInt() < r.asInt(), l.asInt() > r.asInt())
	case postfix.TypeFloat:
		c = cmp3(l.asFloat() < r.asFloat(), l.asFloat() > r.asFloat())
	case postfix.TypeBool:
		c = cmp3(!l.asBool() && r.asBool(), l.asBool() && !r.asBool())
	}
	switch op {
	case postfix.OpLT:
		return c < 0
	case postfix.OpLE:
		return c <= 0
	case postfix.OpGT:
		return c > 0
	case postfix.OpGE:
		return c >= 0
	case postfix.OpEQ:
		return c == 0
	case postfix.OpNE:
		return c != 0
	}
	return false
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}
