package main

import (
	"bytes"
	"fmt"
	"strings"

	"minigopher/pkg/postfix"
	"minigopher/pkg/psm"
)

// listingWindow is how many instructions are shown around the ip.
const listingWindow = 18

// Debugger is the window-independent state of the step debugger.
type Debugger struct {
	vm       *psm.Machine
	opts     psm.Options
	out      *bytes.Buffer
	input    []rune
	running  bool
	status   string
	snapshot []byte
}

func NewDebugger(p *postfix.Program, maxSteps int) *Debugger {
	out := new(bytes.Buffer)
	opts := psm.Options{Output: out, MaxSteps: maxSteps}
	return &Debugger{
		vm:     psm.New(p, opts),
		opts:   opts,
		out:    out,
		status: "ready: space steps, F2 runs",
	}
}

// Step executes one instruction.
func (d *Debugger) Step() {
	d.running = false
	d.report(d.vm.Step())
}

// ToggleRun starts or pauses free running.
func (d *Debugger) ToggleRun() {
	d.running = !d.running
}

// Tick advances a running machine by at most budget steps.
func (d *Debugger) Tick(budget int) {
	if !d.running {
		return
	}
	for i := 0; i < budget; i++ {
		if d.vm.Done() || d.vm.State == psm.Waiting {
			break
		}
		if err := d.vm.Step(); err != nil {
			d.report(err)
			return
		}
	}
	d.report(nil)
}

// Type appends a character to the scan input line.
func (d *Debugger) Type(r rune) {
	if r >= ' ' && r != 0x7f {
		d.input = append(d.input, r)
	}
}

func (d *Debugger) Backspace() {
	if len(d.input) > 0 {
		d.input = d.input[:len(d.input)-1]
	}
}

// Enter hands the input line to a waiting machine.
func (d *Debugger) Enter() {
	if d.vm.State != psm.Waiting {
		d.status = "machine is not waiting for input"
		return
	}
	line := string(d.input)
	d.input = d.input[:0]
	d.vm.PushInput(line)
	d.status = fmt.Sprintf("input %q", line)
}

// Hibernate keeps an in-memory snapshot of the machine.
func (d *Debugger) Hibernate() {
	data, err := d.vm.HibernateToBytes()
	if err != nil {
		d.status = err.Error()
		return
	}
	d.snapshot = data
	d.status = fmt.Sprintf("hibernated at ip %d (%d bytes)", d.vm.IP, len(data))
}

// Restore rewinds to the last snapshot. Output printed since is kept.
func (d *Debugger) Restore() {
	if d.snapshot == nil {
		d.status = "no snapshot"
		return
	}
	vm, err := psm.RestoreFromBytes(d.snapshot, d.opts)
	if err != nil {
		d.status = err.Error()
		return
	}
	d.vm = vm
	d.running = false
	d.status = fmt.Sprintf("restored at ip %d", vm.IP)
}

func (d *Debugger) report(err error) {
	switch {
	case err != nil:
		d.running = false
		d.status = err.Error()
	case d.vm.State == psm.Waiting:
		d.running = false
		if v, ok := d.vm.Awaiting(); ok {
			d.status = fmt.Sprintf("scan %s (%s): type a value and press Enter", v.Name, v.Type)
		}
	case d.vm.State == psm.Halted:
		d.running = false
		d.status = fmt.Sprintf("halted after %d steps", d.vm.Steps)
	default:
		d.status = fmt.Sprintf("%s, ip %d", d.vm.State, d.vm.IP)
	}
}

// Listing returns the code around the ip, the current line marked with ">".
// Loaded programs also show the line of each instruction.
func (d *Debugger) Listing() []string {
	code := d.vm.Program.Code
	start := d.vm.IP - listingWindow/2
	if start > len(code)-listingWindow {
		start = len(code) - listingWindow
	}
	if start < 0 {
		start = 0
	}
	var lines []string
	for i := start; i < len(code) && i < start+listingWindow; i++ {
		mark := " "
		if i == d.vm.IP {
			mark = ">"
		}
		entry := fmt.Sprintf("%s%4d  %s", mark, i, code[i])
		if line := d.vm.Program.Line(i); line > 0 {
			entry += fmt.Sprintf("  @%d", line)
		}
		lines = append(lines, entry)
	}
	return lines
}

// StackLines lists the stack top first.
func (d *Debugger) StackLines() []string {
	lines := make([]string, 0, len(d.vm.Stack))
	for i := len(d.vm.Stack) - 1; i >= 0; i-- {
		lines = append(lines, d.vm.Stack[i].String())
	}
	return lines
}

// VarLines lists every variable with its value or "-" when unset.
func (d *Debugger) VarLines() []string {
	var lines []string
	for _, v := range d.vm.Variables() {
		val := "-"
		if v.Assigned {
			val = v.Value
		}
		lines = append(lines, fmt.Sprintf("%-8s %-8s %s", v.Name, v.Type, val))
	}
	return lines
}

// OutputLines returns the last n lines printed by the program.
func (d *Debugger) OutputLines(n int) []string {
	text := strings.TrimRight(d.out.String(), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func (d *Debugger) InputLine() string { return string(d.input) }

func (d *Debugger) Status() string { return d.status }
