// Command console compiles and runs a MiniGopher program interactively.
// scan reads through a line editor with history; Ctrl-C at a scan prompt
// hibernates the machine so that -resume can continue it later.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/peterh/liner"
	"golang.org/x/text/language"

	"minigopher/pkg/compiler"
	"minigopher/pkg/config"
	"minigopher/pkg/diag"
	"minigopher/pkg/psm"
	"minigopher/pkg/utils"
)

const historyFile = ".mgo_history"

func main() {
	os.Exit(run())
}

// run returns the process exit code so that deferred cleanup, the history
// file in particular, happens before the process exits.
func run() int {
	configPath := flag.String("config", config.DefaultFile, "configuration file")
	resume := flag.String("resume", "", "continue a hibernated .psm snapshot instead of compiling")
	showPostfix := flag.Bool("show-postfix", false, "print the postfix listing before running")
	flag.Parse()

	cfg, err := config.Load(*configPath, *configPath == config.DefaultFile)
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	compiler.SetTraceLevel(cfg.Trace)
	tag := diag.Language(cfg.Language)
	opts := psm.Options{Output: os.Stdout, MaxSteps: cfg.MaxSteps}

	var vm *psm.Machine
	var snapshot string
	switch {
	case *resume != "":
		vm, err = psm.RestoreFromFile(*resume, opts)
		if err != nil {
			log.Printf("Failed to restore %s: %v", *resume, err)
			return 1
		}
		snapshot = *resume
	case flag.NArg() > 0:
		fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			log.Printf("Bad path: %v", err)
			return 1
		}
		source, err := os.ReadFile(fullPath)
		if err != nil {
			log.Printf("Failed to read source file: %v", err)
			return 1
		}
		art, err := compiler.Compile(string(source), utils.ModuleName(fullPath))
		if err != nil {
			log.Print(diag.Render(err, tag))
			return 1
		}
		if *showPostfix {
			fmt.Print(art.Program.Listing())
		}
		vm = psm.New(art.Program, opts)
		snapshot = utils.ReplaceExt(fullPath, ".psm")
	default:
		fmt.Fprintln(os.Stderr, "usage: console [-resume file.psm] [file.mgo]")
		return 2
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	s := &session{
		vm:       vm,
		editor:   ln,
		prompt:   cfg.Prompt,
		history:  filepath.Join(home, historyFile),
		snapshot: snapshot,
		tag:      tag,
		out:      os.Stdout,
	}
	return s.run()
}

// lineEditor is the part of *liner.State a session uses.
type lineEditor interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
}

type session struct {
	vm       *psm.Machine
	editor   lineEditor
	prompt   string
	history  string
	snapshot string
	tag      language.Tag
	out      io.Writer
}

// run drives the machine to completion and returns the exit code. An
// aborted prompt hibernates the machine; a fault is reported. History is
// saved in every case.
func (s *session) run() int {
	if f, err := os.Open(s.history); err == nil {
		_, _ = s.editor.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(s.history); err == nil {
			_, _ = s.editor.WriteHistory(f)
			_ = f.Close()
		}
	}()

	err := s.drive()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF):
		if herr := s.vm.HibernateToFile(s.snapshot); herr != nil {
			log.Printf("hibernate failed: %v", herr)
			return 1
		}
		fmt.Fprintf(s.out, "\nhibernated at ip %d -> %s\n", s.vm.IP, s.snapshot)
		return 0
	}
	log.Print(diag.Render(err, s.tag))
	return 1
}

// drive runs the machine, answering every scan from the line editor.
func (s *session) drive() error {
	for {
		if err := s.vm.Run(); err != nil {
			return err
		}
		if s.vm.Done() {
			return nil
		}
		v, _ := s.vm.Awaiting()
		line, err := s.editor.Prompt(fmt.Sprintf("%s%s (%s): ", s.prompt, v.Name, v.Type))
		if err != nil {
			return err
		}
		s.editor.AppendHistory(line)
		s.vm.PushInput(line)
	}
}
