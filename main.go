//go:build !js

package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"minigopher/pkg/cil"
	"minigopher/pkg/compiler"
	"minigopher/pkg/config"
	"minigopher/pkg/diag"
	"minigopher/pkg/postfix"
	"minigopher/pkg/psm"
	"minigopher/pkg/utils"
	"minigopher/pkg/vfs"
)

func main() {
	inPath := flag.String("in", "", "input .mgo source file")
	outPath := flag.String("out", "", "output postfix file path (default: input with .postfix extension)")
	cilPath := flag.String("cil", "", "output CIL listing path (default: input with .cil extension)")
	runProgram := flag.Bool("run", false, "run the compiled program on the stack machine")
	runPostfix := flag.String("run-psm", "", "run an existing .postfix file on the stack machine")
	configPath := flag.String("config", "", "configuration file (default: ./"+config.DefaultFile+" if present)")
	traceLevel := flag.String("trace", "", "trace level: error, info or debug")
	lang := flag.String("lang", "", "diagnostics language: en or uk")
	storagePath := flag.String("storage", "", "artifact disk directory")
	maxSteps := flag.Int("max-steps", -1, "stack machine step limit (0 = unlimited)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "trace":
			cfg.Trace = *traceLevel
		case "lang":
			cfg.Language = *lang
		case "storage":
			cfg.Storage = *storagePath
		case "max-steps":
			cfg.MaxSteps = *maxSteps
		case "cil":
			cfg.EmitCIL = true
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	compiler.SetTraceLevel(cfg.Trace)
	tag := diag.Language(cfg.Language)

	if *runProgram && *runPostfix != "" {
		fmt.Fprintln(os.Stderr, "use either -run or -run-psm, not both")
		os.Exit(2)
	}
	if *inPath == "" && *runPostfix == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in to compile, -run to run it, or -run-psm <file> to run an existing postfix program")
		flag.Usage()
		os.Exit(2)
	}
	if *runProgram && *inPath == "" {
		fmt.Fprintln(os.Stderr, "-run requires -in, or use -run-psm <file>")
		os.Exit(2)
	}

	var disk *vfs.Disk
	if cfg.Storage != "" {
		disk, err = vfs.Open(cfg.Storage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open storage %q: %v\n", cfg.Storage, err)
			os.Exit(1)
		}
	}

	var program *postfix.Program
	if *inPath != "" {
		program, err = build(*inPath, *outPath, *cilPath, cfg, disk)
		if err != nil {
			fmt.Fprintln(os.Stderr, diag.Render(err, tag))
			os.Exit(1)
		}
	}

	runTarget := *inPath
	switch {
	case *runPostfix != "":
		runTarget = *runPostfix
		data, err := readArtifact(disk, *runPostfix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %q: %v\n", *runPostfix, err)
			os.Exit(1)
		}
		program, err = postfix.Load(bytes.NewReader(data))
		if err != nil {
			fmt.Fprintln(os.Stderr, diag.Render(err, tag))
			os.Exit(1)
		}
	case *runProgram:
	default:
		return
	}

	if err := run(runTarget, program, cfg, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, diag.Render(err, tag))
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load(config.DefaultFile, true)
	}
	return config.Load(path, false)
}

// build compiles inPath and stores the postfix program (and the CIL listing
// when enabled) either next to the source or on the artifact disk.
func build(inPath, outPath, cilPath string, cfg config.Config, disk *vfs.Disk) (*postfix.Program, error) {
	source, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %q: %w", inPath, err)
	}

	art, err := compiler.Compile(string(source), utils.ModuleName(inPath))
	if err != nil {
		return nil, err
	}

	outPath = artifactPath(disk, outPath, inPath, ".postfix")
	if err := writeArtifact(disk, outPath, []byte(postfix.Format(art.Program))); err != nil {
		return nil, fmt.Errorf("failed to write postfix file %q: %w", outPath, err)
	}
	fmt.Printf("compiled %d postfix instructions -> %s\n", len(art.Program.Code), outPath)

	if cfg.EmitCIL {
		cilPath = artifactPath(disk, cilPath, inPath, ".cil")
		if err := writeArtifact(disk, cilPath, []byte(cil.Format(art.CIL))); err != nil {
			return nil, fmt.Errorf("failed to write CIL file %q: %w", cilPath, err)
		}
		fmt.Printf("translated %d CIL instructions -> %s\n", len(art.CIL.Code), cilPath)
	}

	if disk != nil && disk.Dirty() {
		if err := disk.Persist(); err != nil {
			return nil, fmt.Errorf("persist storage: %w", err)
		}
		fmt.Printf("storage %s: %d bytes free\n", disk.Root(), disk.FreeSpace())
	}
	return art.Program, nil
}

// artifactPath picks where an artifact goes: the explicit flag value, the
// bare artifact name on a disk, or the source path with ext swapped in.
func artifactPath(disk *vfs.Disk, explicit, inPath, ext string) string {
	switch {
	case explicit != "":
		return explicit
	case disk != nil:
		return vfs.ArtifactName(inPath, ext)
	}
	return utils.ReplaceExt(inPath, ext)
}

func writeArtifact(disk *vfs.Disk, path string, data []byte) error {
	if disk == nil {
		return os.WriteFile(path, data, 0o644)
	}
	return disk.Write(filepath.Base(path), data)
}

func readArtifact(disk *vfs.Disk, path string) ([]byte, error) {
	if disk == nil {
		return os.ReadFile(path)
	}
	return disk.Read(filepath.Base(path))
}

// run executes p reading scan input from in, writing program output and the
// final variable dump to out.
func run(name string, p *postfix.Program, cfg config.Config, in io.Reader, out io.Writer) error {
	input := psm.NewReaderInput(in)
	input.Echo = out

	vm := psm.New(p, psm.Options{
		Output:   out,
		Input:    input,
		MaxSteps: cfg.MaxSteps,
		Prompt:   cfg.Prompt,
	})
	if err := vm.Run(); err != nil {
		return err
	}

	fmt.Fprintf(out, "run complete (%s): state=%s steps=%d\n", name, vm.State, vm.Steps)
	for _, v := range vm.Variables() {
		val := v.Value
		if !v.Assigned {
			val = "undefined"
		}
		fmt.Fprintf(out, "  %-10s %-9s %s\n", v.Name, v.Type, val)
	}
	return nil
}
