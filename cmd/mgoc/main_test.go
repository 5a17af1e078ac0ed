package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"minigopher/pkg/compiler"
	"minigopher/pkg/postfix"
)

func TestDumpProgram(t *testing.T) {
	art, err := compiler.Compile("var x int = 1;\nfunc main() {\n\tprint(x);\n}\n", "dump")
	if err != nil {
		t.Fatal(err)
	}
	text := postfix.Format(art.Program)
	codeStart := 0
	for i, l := range strings.Split(text, "\n") {
		if l == ".code(" {
			codeStart = i + 2
		}
	}
	p, err := postfix.LoadString(text)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	dumpProgram(&out, p)
	got := out.String()
	for _, want := range []string{
		"Variables\n  x            intnum\n",
		"Constants\n  1            intnum\n",
		"Debug map\n",
		fmt.Sprintf("  instruction 0: line %d\n", codeStart),
		fmt.Sprintf("  instruction %d: line %d\n", len(p.Code)-1, codeStart+len(p.Code)-1),
		fmt.Sprintf("line %d\n", codeStart),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("dump lacks %q:\n%s", want, got)
		}
	}
}
