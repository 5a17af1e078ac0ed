// Command mgoc compiles a MiniGopher source and dumps every intermediate
// table: tokens, identifiers, constants, variables, the postfix listing and
// the CIL listing. Given a .postfix file it loads the program instead and
// dumps its tables together with the instruction to line map.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"minigopher/pkg/cil"
	"minigopher/pkg/compiler"
	"minigopher/pkg/diag"
	"minigopher/pkg/postfix"
	"minigopher/pkg/utils"
)

const testSource = `var x int = 2;
var y float;

func main() {
	y = x ** 2 / 4;
	print(y);
}
`

func main() {
	lang := flag.String("lang", "en", "diagnostics language: en or uk")
	trace := flag.String("trace", "error", "trace level: error, info or debug")
	flag.Parse()

	compiler.SetTraceLevel(*trace)
	tag := diag.Language(*lang)

	if flag.NArg() > 0 && filepath.Ext(flag.Arg(0)) == ".postfix" {
		p, err := postfix.LoadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, diag.Render(err, tag))
			os.Exit(1)
		}
		dumpProgram(os.Stdout, p)
		os.Exit(0)
	}

	src := testSource
	name := "sample"
	if flag.NArg() > 0 {
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
		name = utils.ModuleName(flag.Arg(0))
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, diag.Render(err, tag))
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", tokens.Len())
	fmt.Println("   n  line lexeme       class            index")
	for _, tok := range tokens.Tokens {
		fmt.Println(tok)
	}
	fmt.Println()

	fmt.Println("Identifiers")
	for _, id := range tokens.Idents.All() {
		fmt.Printf("  %3d  %s\n", id.Index, id.Name)
	}
	fmt.Println()

	fmt.Println("Constants")
	for _, c := range tokens.Consts.All() {
		fmt.Printf("  %3d  %-12s %s\n", c.Index, c.Lexeme, c.Class)
	}
	fmt.Println()

	// Parse
	unit, err := compiler.Parse(tokens, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, diag.Render(err, tag))
		os.Exit(1)
	}

	fmt.Println("Variables")
	fmt.Print(unit.Vars)
	fmt.Println()

	fmt.Println("Postfix")
	fmt.Print(unit.Program.Listing())
	fmt.Println()

	// Bytecode
	module, err := cil.Translate(unit.Program, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "translation error:", err)
		os.Exit(1)
	}

	fmt.Println("CIL")
	fmt.Print(cil.Format(module))
}

// dumpProgram prints the tables of a loaded program.
func dumpProgram(w io.Writer, p *postfix.Program) {
	fmt.Fprintln(w, "Variables")
	for _, v := range p.Vars {
		fmt.Fprintf(w, "  %-12s %s\n", v.Name, v.Type)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Labels")
	for _, name := range p.LabelList {
		fmt.Fprintf(w, "  %-12s %d\n", name, p.Labels[name])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Constants")
	for _, c := range p.Constants {
		fmt.Fprintf(w, "  %-12s %s\n", c.Lexeme, c.Type.Tag())
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Postfix")
	fmt.Fprint(w, p.Listing())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Debug map")
	for ip := range p.Code {
		fmt.Fprintf(w, "  instruction %d: line %d\n", ip, p.Line(ip))
	}
}
