package cil

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"minigopher/pkg/postfix"
)

func listing(m *Module) []string {
	out := make([]string, 0, len(m.Code))
	for _, in := range m.Code {
		out = append(out, in.String())
	}
	return out
}

func declare(b *postfix.Builder) {
	b.DeclareVar("i", postfix.TypeInt)
	b.DeclareVar("f", postfix.TypeFloat)
	b.DeclareVar("b", postfix.TypeBool)
}

func TestTranslate(t *testing.T) {
	pow := "call " + callPow
	tests := []struct {
		name  string
		build func(b *postfix.Builder)
		want  []string
	}{
		{
			name: "int into float widens once",
			build: func(b *postfix.Builder) {
				b.LVal("f")
				b.Literal("1", postfix.TypeInt)
				b.Op(postfix.OpAssign)
			},
			want: []string{"ldc.i4 1", "conv.r4", "stloc f", "ret"},
		},
		{
			name: "right operand widened in place",
			build: func(b *postfix.Builder) {
				b.LVal("f")
				b.RVal("f")
				b.RVal("i")
				b.Op(postfix.OpMul)
				b.Op(postfix.OpAssign)
			},
			want: []string{"ldloc f", "ldloc i", "conv.r4", "mul", "stloc f", "ret"},
		},
		{
			name: "left operand widened retroactively",
			build: func(b *postfix.Builder) {
				b.LVal("f")
				b.RVal("i")
				b.Literal("2", postfix.TypeInt)
				b.Op(postfix.OpAdd)
				b.RVal("f")
				b.Op(postfix.OpSub)
				b.Op(postfix.OpAssign)
			},
			want: []string{"ldloc i", "ldc.i4 2", "add", "conv.r4", "ldloc f", "sub", "stloc f", "ret"},
		},
		{
			name: "integer power",
			build: func(b *postfix.Builder) {
				b.LVal("i")
				b.RVal("i")
				b.Literal("2", postfix.TypeInt)
				b.Op(postfix.OpPow)
				b.Op(postfix.OpAssign)
			},
			want: []string{"ldloc i", "conv.r8", "ldc.i4 2", "conv.r8", pow, "conv.i4", "stloc i", "ret"},
		},
		{
			name: "float power",
			build: func(b *postfix.Builder) {
				b.LVal("f")
				b.Literal("1.5", postfix.TypeFloat)
				b.RVal("i")
				b.Op(postfix.OpPow)
				b.Op(postfix.OpAssign)
			},
			want: []string{"ldc.r4 1.5", "conv.r8", "ldloc i", "conv.r8", pow, "conv.r4", "stloc f", "ret"},
		},
		{
			name: "negated comparisons",
			build: func(b *postfix.Builder) {
				b.LVal("b")
				b.RVal("i")
				b.Literal("1", postfix.TypeInt)
				b.Op(postfix.OpGE)
				b.Op(postfix.OpAssign)
				b.LVal("b")
				b.RVal("i")
				b.RVal("i")
				b.Op(postfix.OpNE)
				b.Op(postfix.OpAssign)
			},
			want: []string{
				"ldloc i", "ldc.i4 1", "clt", "ldc.i4.0", "ceq", "stloc b",
				"ldloc i", "ldloc i", "ceq", "ldc.i4.0", "ceq", "stloc b",
				"ret",
			},
		},
		{
			name: "mixed comparison yields bool",
			build: func(b *postfix.Builder) {
				b.LVal("b")
				b.RVal("f")
				b.RVal("i")
				b.Op(postfix.OpLE)
				b.Op(postfix.OpAssign)
			},
			want: []string{"ldloc f", "ldloc i", "conv.r4", "cgt", "ldc.i4.0", "ceq", "stloc b", "ret"},
		},
		{
			name: "unary",
			build: func(b *postfix.Builder) {
				b.LVal("i")
				b.RVal("i")
				b.Op(postfix.OpNeg)
				b.Op(postfix.OpPos)
				b.Op(postfix.OpAssign)
			},
			want: []string{"ldloc i", "neg", "stloc i", "ret"},
		},
		{
			name: "scan and print",
			build: func(b *postfix.Builder) {
				b.LVal("f")
				b.In()
				b.RVal("f")
				b.Out()
				b.Literal("true", postfix.TypeBool)
				b.Out()
			},
			want: []string{
				"call " + callReadLine,
				"call float32 [mscorlib]System.Single::Parse(string)",
				"stloc f",
				"ldloc f",
				"call void [mscorlib]System.Console::WriteLine(float32)",
				"ldc.i4.1",
				"call void [mscorlib]System.Console::WriteLine(bool)",
				"ret",
			},
		},
		{
			name: "branches",
			build: func(b *postfix.Builder) {
				top := b.NewLabel()
				end := b.NewLabel()
				b.Label(top)
				b.RVal("b")
				b.JumpIfFalse(end)
				b.LVal("b")
				b.Literal("false", postfix.TypeBool)
				b.Op(postfix.OpAssign)
				b.Jump(top)
				b.Label(end)
			},
			want: []string{"L1:", "ldloc b", "brfalse L2", "ldc.i4.0", "stloc b", "br L1", "L2:", "ret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := postfix.NewBuilder()
			declare(b)
			tt.build(b)
			m, err := Translate(b.Program(), "test")
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if got := listing(m); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("code mismatch\n got: %s\nwant: %s", strings.Join(got, " | "), strings.Join(tt.want, " | "))
			}
		})
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *postfix.Builder)
		want  string
	}{
		{"underflow", func(b *postfix.Builder) { b.Op(postfix.OpAdd) }, "cil: instruction 0: stack underflow"},
		{"leftover", func(b *postfix.Builder) { b.Literal("1", postfix.TypeInt) },
			"cil: 1 operands left on the stack at end of code"},
		{"undeclared read", func(b *postfix.Builder) { b.RVal("zz") }, `cil: instruction 0: undeclared variable "zz"`},
		{"assign without target", func(b *postfix.Builder) {
			b.Literal("1", postfix.TypeInt)
			b.Literal("2", postfix.TypeInt)
			b.Op(postfix.OpAssign)
		}, "cil: instruction 2: expected an assignment target"},
		{"jump without label", func(b *postfix.Builder) {
			b.Literal("true", postfix.TypeBool)
			b.Literal("true", postfix.TypeBool)
			b.Program().Code = append(b.Program().Code, postfix.Instr{Operand: "JF", Tag: postfix.TagJF})
		}, "cil: instruction 2: expected a label on the stack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := postfix.NewBuilder()
			declare(b)
			tt.build(b)
			_, err := Translate(b.Program(), "bad")
			if err == nil || err.Error() != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	b := postfix.NewBuilder()
	b.DeclareVar("i", postfix.TypeInt)
	b.DeclareVar("f", postfix.TypeFloat)
	b.AddConstant("3", postfix.TypeInt)
	b.LVal("i")
	b.Literal("3", postfix.TypeInt)
	b.Op(postfix.OpAssign)
	m, err := Translate(b.Program(), "demo")
	if err != nil {
		t.Fatal(err)
	}

	out := Format(m)
	for _, want := range []string{
		"//   3            int32\n",
		".assembly demo {}\n",
		".module demo.exe\n",
		"    .entrypoint\n",
		"    .locals init (\n      [0] int32 i,\n      [1] float32 f\n    )\n",
		"    ldc.i4 3\n    stloc i\n    ret\n  }\n}\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing lacks %q\n%s", want, out)
		}
	}

	path := filepath.Join(t.TempDir(), "demo.il")
	if err := WriteFile(path, m); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out {
		t.Error("WriteFile output differs from Format")
	}
}

func TestWriteLabels(t *testing.T) {
	m := &Module{Name: "l", Code: []Instr{{Op: OpLabel, Arg: "L1"}, {Op: OpBr, Arg: "L1"}, {Op: OpRet}}}
	out := Format(m)
	if !strings.Contains(out, "\n  L1:\n    br L1\n    ret\n") {
		t.Errorf("labels not outdented:\n%s", out)
	}
	if strings.Contains(out, ".locals") || strings.Contains(out, "// constants") {
		t.Errorf("empty tables rendered:\n%s", out)
	}
}

func TestTypeName(t *testing.T) {
	tests := map[postfix.Type]string{
		postfix.TypeInt:     "int32",
		postfix.TypeFloat:   "float32",
		postfix.TypeBool:    "bool",
		postfix.TypeInvalid: "object",
	}
	for in, want := range tests {
		if got := TypeName(in); got != want {
			t.Errorf("TypeName(%s) = %q, want %q", in, got, want)
		}
	}
	if got := Opcode(99).String(); got != "Opcode(99)" {
		t.Errorf("unknown opcode renders as %q", got)
	}
}
