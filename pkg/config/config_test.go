package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want Config
	}{
		{"empty keeps defaults", "", Default()},
		{
			name: "override some",
			yaml: "language: uk\nmax_steps: 5000\n",
			want: Config{Language: "uk", Trace: "error", EmitCIL: true, MaxSteps: 5000, Prompt: "> "},
		},
		{
			name: "everything",
			yaml: "language: en\ntrace: debug\nemit_cil: false\nmax_steps: 0\nstorage: out\nprompt: \"? \"\n",
			want: Config{Language: "en", Trace: "debug", EmitCIL: false, Storage: "out", Prompt: "? "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "langauge: uk\n", "langauge"},
		{"bad language", "language: fr\n", `language "fr" is not supported`},
		{"bad trace", "trace: verbose\n", `trace level "verbose" is not supported`},
		{"negative steps", "max_steps: -1\n", "max_steps must not be negative, got -1"},
		{"wrong type", "max_steps: lots\n", "cannot unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, DefaultFile), true)
	if err != nil || cfg != Default() {
		t.Errorf("optional missing file = %+v, %v", cfg, err)
	}
	if _, err := Load(filepath.Join(dir, DefaultFile), false); !os.IsNotExist(err) {
		t.Errorf("required missing file error = %v", err)
	}

	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("trace: loud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, true); err == nil || !strings.HasPrefix(err.Error(), path+": ") {
		t.Errorf("parse error not prefixed with the path: %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Config{Language: "uk", Trace: "info", MaxSteps: 10, Storage: "disk", Prompt: ">> "}
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v\n%s", err, data)
	}
	if back != cfg {
		t.Errorf("round trip = %+v, want %+v", back, cfg)
	}
}
