package psm

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"minigopher/pkg/postfix"
)

const (
	stateEntry   = "machine_state.json"
	programEntry = "program.postfix"
)

type stackSlot struct {
	Value string `json:"value"`
	Tag   string `json:"tag"`
}

type varSlot struct {
	Name     string `json:"name"`
	Value    string `json:"value,omitempty"`
	Assigned bool   `json:"assigned"`
}

// machineState is the JSON snapshot of the machine's control state.
type machineState struct {
	IP      int         `json:"ip"`
	State   string      `json:"state"`
	Steps   int         `json:"steps"`
	Stack   []stackSlot `json:"stack"`
	Vars    []varSlot   `json:"vars"`
	Pending []string    `json:"pending,omitempty"`
}

// HibernateToBytes serialises the machine and its program into a ZIP archive.
// A faulted machine cannot be hibernated.
func (m *Machine) HibernateToBytes() ([]byte, error) {
	if m.State == Faulted {
		return nil, errors.New("psm: cannot hibernate a faulted machine")
	}
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := machineState{
		IP:      m.IP,
		State:   m.State.String(),
		Steps:   m.Steps,
		Pending: m.pending,
	}
	for _, e := range m.Stack {
		state.Stack = append(state.Stack, stackSlot{Value: e.Value, Tag: e.Tag.String()})
	}
	for _, v := range m.Variables() {
		state.Vars = append(state.Vars, varSlot{Name: v.Name, Value: v.Value, Assigned: v.Assigned})
	}

	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal machine_state: %w", err)
	}
	if err := writeZipEntry(zw, stateEntry, jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, programEntry, []byte(postfix.Format(m.Program))); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes rebuilds a machine from a HibernateToBytes archive.
func RestoreFromBytes(data []byte, opts Options) (*Machine, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	src, err := readZipEntry(fileMap, programEntry)
	if err != nil {
		return nil, err
	}
	m, err := Load(bytes.NewReader(src), opts)
	if err != nil {
		return nil, err
	}

	jsonData, err := readZipEntry(fileMap, stateEntry)
	if err != nil {
		return nil, err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return nil, fmt.Errorf("unmarshal machine_state: %w", err)
	}

	st, ok := parseState(state.State)
	if !ok || st == Faulted || st == Loading {
		return nil, fmt.Errorf("psm: snapshot has invalid state %q", state.State)
	}
	if state.IP < 0 || state.IP > len(m.Program.Code) {
		return nil, fmt.Errorf("psm: snapshot ip %d is out of range", state.IP)
	}
	for _, s := range state.Stack {
		tag, ok := postfix.ParseTag(s.Tag)
		if !ok {
			return nil, fmt.Errorf("psm: snapshot stack has unknown tag %q", s.Tag)
		}
		m.Stack = append(m.Stack, Entry{Value: s.Value, Tag: tag})
	}
	for _, s := range state.Vars {
		v, ok := m.vars[s.Name]
		if !ok {
			return nil, fmt.Errorf("psm: snapshot variable %q is not declared", s.Name)
		}
		v.Value = s.Value
		v.Assigned = s.Assigned
	}
	m.IP = state.IP
	m.Steps = state.Steps
	m.State = st
	m.pending = state.Pending
	return m, nil
}

// HibernateToFile writes the snapshot to path.
func (m *Machine) HibernateToFile(path string) error {
	data, err := m.HibernateToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// RestoreFromFile reads a snapshot written by HibernateToFile.
func RestoreFromFile(path string, opts Options) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return RestoreFromBytes(data, opts)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
