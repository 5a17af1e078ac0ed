package main

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterh/liner"
	"golang.org/x/text/language"

	"minigopher/pkg/compiler"
	"minigopher/pkg/psm"
)

// scriptedEditor answers prompts from a fixed list, then aborts.
type scriptedEditor struct {
	answers []string
	history []string
	prompts []string
}

func (e *scriptedEditor) Prompt(prompt string) (string, error) {
	e.prompts = append(e.prompts, prompt)
	if len(e.answers) == 0 {
		return "", liner.ErrPromptAborted
	}
	line := e.answers[0]
	e.answers = e.answers[1:]
	return line, nil
}

func (e *scriptedEditor) AppendHistory(item string) { e.history = append(e.history, item) }

func (e *scriptedEditor) ReadHistory(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		e.history = append(e.history, sc.Text())
		n++
	}
	return n, sc.Err()
}

func (e *scriptedEditor) WriteHistory(w io.Writer) (int, error) {
	n := 0
	for _, item := range e.history {
		if _, err := io.WriteString(w, item+"\n"); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func newSession(t *testing.T, src string, answers ...string) (*session, *scriptedEditor, *bytes.Buffer) {
	t.Helper()
	art, err := compiler.Compile(src, "console")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out := new(bytes.Buffer)
	dir := t.TempDir()
	ed := &scriptedEditor{answers: answers}
	return &session{
		vm:       psm.New(art.Program, psm.Options{Output: out}),
		editor:   ed,
		prompt:   "> ",
		history:  filepath.Join(dir, historyFile),
		snapshot: filepath.Join(dir, "app.psm"),
		tag:      language.English,
		out:      out,
	}, ed, out
}

func readHistory(t *testing.T, s *session) string {
	t.Helper()
	data, err := os.ReadFile(s.history)
	if err != nil {
		t.Fatalf("history not written: %v", err)
	}
	return string(data)
}

func TestSessionFaultKeepsHistory(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	s, _, out := newSession(t, "var n int;\nfunc main() {\n\tscan(n);\n\tprint(n / 0);\n}\n", "7")
	if err := os.WriteFile(s.history, []byte("older\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code := s.run(); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if s.vm.State != psm.Faulted {
		t.Errorf("state = %s, want faulted", s.vm.State)
	}
	if got := readHistory(t, s); got != "older\n7\n" {
		t.Errorf("history = %q", got)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestSessionCompletes(t *testing.T) {
	s, ed, out := newSession(t, "var a int;\nvar b int;\nfunc main() {\n\tscan(a, b);\n\tprint(a * b);\n}\n", "6", "7")
	if code := s.run(); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q", out.String())
	}
	if len(ed.prompts) != 2 || ed.prompts[1] != "> b (intnum): " {
		t.Errorf("prompts = %q", ed.prompts)
	}
	if got := readHistory(t, s); got != "6\n7\n" {
		t.Errorf("history = %q", got)
	}
}

func TestSessionAbortHibernates(t *testing.T) {
	s, _, out := newSession(t, "var n int;\nfunc main() {\n\tscan(n);\n\tprint(n + 1);\n}\n")
	if code := s.run(); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "hibernated at ip 1 -> "+s.snapshot) {
		t.Errorf("output = %q", out.String())
	}

	restored, err := psm.RestoreFromFile(s.snapshot, psm.Options{Output: out})
	if err != nil {
		t.Fatal(err)
	}
	out.Reset()
	restored.PushInput("41")
	if err := restored.Run(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42\n" {
		t.Errorf("resumed output = %q", out.String())
	}
	if _, err := os.Stat(s.history); err != nil {
		t.Errorf("history not written on abort: %v", err)
	}
}
