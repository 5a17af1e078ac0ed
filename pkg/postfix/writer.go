package postfix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	TargetHeader  = ".target: PSM"
	VersionHeader = ".version: 1.0"
)

// Write serializes p in the sectioned text format.
func Write(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	line(TargetHeader)
	line(VersionHeader)
	line("")

	line(".vars(")
	for _, v := range p.Vars {
		line("   %-13s %s", v.Name, v.Type)
	}
	line(")")
	line("")

	line(".labels(")
	for _, name := range p.LabelList {
		idx, ok := p.Labels[name]
		if !ok {
			continue
		}
		line("   %-13s %d", name, idx)
	}
	line(")")
	line("")

	line(".constants(")
	for _, c := range p.Constants {
		line("   %-13s %s", c.Lexeme, c.Type.Tag())
	}
	line(")")
	line("")

	line(".code(")
	for _, in := range p.Code {
		line("   %-13s %s", in.Operand, in.Tag)
	}
	line(")")

	return bw.Flush()
}

// Format returns the serialized text of p.
func Format(p *Program) string {
	var sb strings.Builder
	_ = Write(&sb, p)
	return sb.String()
}

// WriteFile serializes p to path.
func WriteFile(path string, p *Program) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
