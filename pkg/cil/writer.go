package cil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Write renders m as an assembler listing.
func Write(w io.Writer, m *Module) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	if len(m.Constants) > 0 {
		line("// constants")
		for _, c := range m.Constants {
			line("//   %-12s %s", c.Lexeme, TypeName(c.Type))
		}
		line("")
	}

	line(".assembly extern mscorlib {}")
	line(".assembly %s {}", m.Name)
	line(".module %s.exe", m.Name)
	line("")
	line(".class private auto ansi beforefieldinit Program extends [mscorlib]System.Object")
	line("{")
	line("  .method private hidebysig static void Main() cil managed")
	line("  {")
	line("    .entrypoint")
	if len(m.Locals) > 0 {
		line("    .locals init (")
		for i, l := range m.Locals {
			sep := ","
			if i == len(m.Locals)-1 {
				sep = ""
			}
			line("      [%d] %s %s%s", i, TypeName(l.Type), l.Name, sep)
		}
		line("    )")
	}
	line("")
	for _, in := range m.Code {
		if in.Op == OpLabel {
			line("  %s", in)
			continue
		}
		line("    %s", in)
	}
	line("  }")
	line("}")
	return bw.Flush()
}

// Format returns the listing of m.
func Format(m *Module) string {
	var sb strings.Builder
	_ = Write(&sb, m)
	return sb.String()
}

// WriteFile writes the listing of m to path.
func WriteFile(path string, m *Module) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
