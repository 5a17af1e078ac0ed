package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Identifier is an interned identifier lexeme.
type Identifier struct {
	Name  string
	Index int
}

// IdentTable interns identifiers in order of first appearance.
type IdentTable struct {
	byName map[string]int
	list   []Identifier
}

func NewIdentTable() *IdentTable {
	return &IdentTable{byName: make(map[string]int)}
}

// Intern returns the index of name, adding it when first seen.
func (t *IdentTable) Intern(name string) int {
	if idx, ok := t.byName[name]; ok {
		return idx
	}
	idx := len(t.list) + 1
	t.byName[name] = idx
	t.list = append(t.list, Identifier{Name: name, Index: idx})
	return idx
}

// Lookup returns the index of name.
func (t *IdentTable) Lookup(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// All returns the identifiers in index order.
func (t *IdentTable) All() []Identifier {
	return append([]Identifier(nil), t.list...)
}

// Constant is an interned numeric literal.
type Constant struct {
	Lexeme string
	Class  TokenClass // ClassIntNum or ClassFloatNum
	Index  int
}

// ConstTable interns numeric literals, deduplicated by lexeme.
type ConstTable struct {
	byLexeme map[string]int
	list     []Constant
}

func NewConstTable() *ConstTable {
	return &ConstTable{byLexeme: make(map[string]int)}
}

// Intern returns the index of lexeme, adding it when first seen.
func (t *ConstTable) Intern(lexeme string, class TokenClass) int {
	if idx, ok := t.byLexeme[lexeme]; ok {
		return idx
	}
	idx := len(t.list) + 1
	t.byLexeme[lexeme] = idx
	t.list = append(t.list, Constant{Lexeme: lexeme, Class: class, Index: idx})
	return idx
}

// Lookup returns the constant stored for lexeme.
func (t *ConstTable) Lookup(lexeme string) (Constant, bool) {
	idx, ok := t.byLexeme[lexeme]
	if !ok {
		return Constant{}, false
	}
	return t.list[idx-1], true
}

// All returns the constants in index order.
func (t *ConstTable) All() []Constant {
	return append([]Constant(nil), t.list...)
}

// Status is the initialization state of a variable.
type Status int

const (
	Undefined Status = iota
	Assigned
)

func (s Status) String() string {
	if s == Assigned {
		return "assigned"
	}
	return "undefined"
}

// Variable is a declared name in the single program scope.
type Variable struct {
	Name   string
	Index  int
	Type   Type
	Status Status
	Const  bool
	Hidden bool // compiler-generated, e.g. a cached switch subject
}

// VarTable holds every declared variable.
type VarTable struct {
	byName map[string]*Variable
	order  []*Variable
}

func NewVarTable() *VarTable {
	return &VarTable{byName: make(map[string]*Variable)}
}

// Declare adds name. It reports false if name is already declared.
func (t *VarTable) Declare(name string, typ Type, isConst bool) (*Variable, bool) {
	if _, dup := t.byName[name]; dup {
		return nil, false
	}
	v := &Variable{Name: name, Index: len(t.order) + 1, Type: typ, Const: isConst}
	t.byName[name] = v
	t.order = append(t.order, v)
	return v, true
}

// Lookup returns the variable declared as name.
func (t *VarTable) Lookup(name string) (*Variable, bool) {
	v, ok := t.byName[name]
	return v, ok
}

// All returns variables in declaration order.
func (t *VarTable) All() []Variable {
	out := make([]Variable, 0, len(t.order))
	for _, v := range t.order {
		out = append(out, *v)
	}
	return out
}

// String dumps the table sorted by name.
func (t *VarTable) String() string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, n := range names {
		v := t.byName[n]
		kind := "var"
		if v.Const {
			kind = "const"
		}
		fmt.Fprintf(&sb, "%-12s %3d  %-5s %-9s %s\n", n, v.Index, kind, v.Type, v.Status)
	}
	return sb.String()
}
