package compiler

import (
	"fmt"

	"minigopher/pkg/cil"
	"minigopher/pkg/postfix"
)

// Artifacts is everything one compilation produces.
type Artifacts struct {
	Tokens  *TokenTable
	Vars    *VarTable
	Program *postfix.Program
	CIL     *cil.Module
}

// Compile runs lex, parse and the bytecode translation over src. name is
// used as the assembly name of the CIL module.
func Compile(src, name string) (*Artifacts, error) {
	tr := T()

	tokens, err := Lex(src)
	if err != nil {
		tr.Errorf("lex error: %v", err)
		return nil, err
	}
	tr.Infof("lexed %d tokens, %d identifiers, %d constants",
		tokens.Len(), len(tokens.Idents.All()), len(tokens.Consts.All()))

	unit, err := Parse(tokens, src)
	if err != nil {
		tr.Errorf("parse error: %v", err)
		return nil, err
	}
	tr.Infof("parsed %d variables, %d postfix instructions", len(unit.Program.Vars), len(unit.Program.Code))

	module, err := cil.Translate(unit.Program, name)
	if err != nil {
		return nil, fmt.Errorf("bytecode translation: %w", err)
	}

	return &Artifacts{
		Tokens:  tokens,
		Vars:    unit.Vars,
		Program: unit.Program,
		CIL:     module,
	}, nil
}
