package postfix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrLoad is matched by every error Load returns.
var ErrLoad = errors.New("load error")

// LoadError reports a malformed program file.
type LoadError struct {
	Line   int
	Format string
	Args   []any
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s on line %d: %s", ErrLoad, e.Line, e.Message())
}

// Message is the error text without location.
func (e *LoadError) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

func (e *LoadError) Unwrap() error { return ErrLoad }

func loadErr(line int, format string, args ...any) error {
	return &LoadError{Line: line, Format: format, Args: args}
}

type sourceLine struct {
	no     int
	fields []string
	raw    string
}

type loader struct {
	lines []sourceLine
	pos   int
	last  int // number of the last physical line, for errors at EOF
}

// Load parses a program in the sectioned text format. Sections must appear
// in order and each must be closed. Loading is all or nothing.
func Load(r io.Reader) (*Program, error) {
	l := &loader{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	no := 0
	for sc.Scan() {
		no++
		text := strings.TrimSpace(stripComments(sc.Text()))
		if text == "" {
			continue
		}
		l.lines = append(l.lines, sourceLine{no: no, fields: strings.Fields(text), raw: text})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	l.last = no
	return l.program()
}

// LoadString parses program text.
func LoadString(src string) (*Program, error) {
	return Load(strings.NewReader(src))
}

// LoadFile parses the program stored at path.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func stripComments(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func (l *loader) next() (sourceLine, bool) {
	if l.pos >= len(l.lines) {
		return sourceLine{no: l.last}, false
	}
	ln := l.lines[l.pos]
	l.pos++
	return ln, true
}

func (l *loader) header(want string) error {
	ln, ok := l.next()
	if !ok {
		return loadErr(ln.no, "missing header %q", want)
	}
	if strings.Join(ln.fields, " ") != want {
		return loadErr(ln.no, "unexpected header %q, want %q", ln.raw, want)
	}
	return nil
}

// section reads the entries of one section, calling fn for each.
func (l *loader) section(name string, fn func(ln sourceLine) error) error {
	ln, ok := l.next()
	if !ok {
		return loadErr(ln.no, "section header %q expected", name+"(")
	}
	if ln.raw != name+"(" {
		return loadErr(ln.no, "section header %q expected, got %q", name+"(", ln.raw)
	}
	for {
		ln, ok := l.next()
		if !ok {
			return loadErr(ln.no, "missing terminator for section %q", name)
		}
		if ln.raw == ")" {
			return nil
		}
		if len(ln.fields) != 2 {
			return loadErr(ln.no, "two elements expected, got %d", len(ln.fields))
		}
		if err := fn(ln); err != nil {
			return err
		}
	}
}

func (l *loader) program() (*Program, error) {
	p := NewProgram()
	if err := l.header(TargetHeader); err != nil {
		return nil, err
	}
	if err := l.header(VersionHeader); err != nil {
		return nil, err
	}

	seenVar := make(map[string]bool)
	err := l.section(".vars", func(ln sourceLine) error {
		name, typ := ln.fields[0], ln.fields[1]
		if !isIdentifier(name) {
			return loadErr(ln.no, "invalid variable name %q", name)
		}
		if seenVar[name] {
			return loadErr(ln.no, "duplicate variable %q", name)
		}
		t, ok := ParseType(typ)
		if !ok {
			return loadErr(ln.no, "unknown type %q for variable %q", typ, name)
		}
		seenVar[name] = true
		p.Vars = append(p.Vars, Var{Name: name, Type: t})
		return nil
	})
	if err != nil {
		return nil, err
	}

	labelLines := make(map[string]int)
	err = l.section(".labels", func(ln sourceLine) error {
		name := ln.fields[0]
		if !isIdentifier(name) {
			return loadErr(ln.no, "invalid label name %q", name)
		}
		if _, dup := p.Labels[name]; dup {
			return loadErr(ln.no, "duplicate label %q", name)
		}
		idx, err := strconv.Atoi(ln.fields[1])
		if err != nil || idx < 0 {
			return loadErr(ln.no, "invalid index %q for label %q", ln.fields[1], name)
		}
		p.Labels[name] = idx
		p.LabelList = append(p.LabelList, name)
		labelLines[name] = ln.no
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = l.section(".constants", func(ln sourceLine) error {
		lit := ln.fields[0]
		t, ok := ParseType(ln.fields[1])
		if !ok {
			return loadErr(ln.no, "unknown type %q for constant %q", ln.fields[1], lit)
		}
		if !validLiteral(lit, t) {
			return loadErr(ln.no, "invalid %s literal %q", t, lit)
		}
		p.Constants = append(p.Constants, Constant{Lexeme: lit, Type: t})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = l.section(".code", func(ln sourceLine) error {
		operand := ln.fields[0]
		tag, ok := ParseTag(ln.fields[1])
		if !ok {
			return loadErr(ln.no, "unknown tag %q", ln.fields[1])
		}
		in := Instr{Operand: operand, Tag: tag}
		switch tag {
		case TagIntNum, TagFloatNum, TagBoolVal:
			if !validLiteral(operand, TypeOf(tag)) {
				return loadErr(ln.no, "invalid %s literal %q", tag, operand)
			}
		case TagLVal, TagRVal:
			if !isIdentifier(operand) {
				return loadErr(ln.no, "invalid variable name %q", operand)
			}
		case TagLabel:
			if !isIdentifier(strings.TrimSuffix(operand, ":")) {
				return loadErr(ln.no, "invalid label %q", operand)
			}
		case TagAddOp, TagMultOp, TagPowerOp, TagUnaryOp, TagRelOp, TagAssignOp:
			op, ok := DecodeOperator(operand, tag)
			if !ok {
				return loadErr(ln.no, "operator %q is not valid for tag %s", operand, tag)
			}
			in.Op = op
		}
		p.Code = append(p.Code, in)
		p.Lines = append(p.Lines, ln.no)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ln, ok := l.next(); ok {
		return nil, loadErr(ln.no, "unexpected content after code section: %q", ln.raw)
	}

	for name, idx := range p.Labels {
		if idx >= len(p.Code) {
			return nil, loadErr(labelLines[name], "label %q points past the end of code (%d)", name, idx)
		}
	}
	return p, nil
}

func validLiteral(s string, t Type) bool {
	switch t {
	case TypeInt:
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	case TypeFloat:
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	case TypeBool:
		return s == "true" || s == "false"
	}
	return false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isAlpha {
			return false
		}
		if !isAlpha && !isDigit {
			return false
		}
	}
	return true
}
