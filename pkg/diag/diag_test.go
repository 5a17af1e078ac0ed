package diag

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"minigopher/pkg/compiler"
	"minigopher/pkg/postfix"
	"minigopher/pkg/psm"
)

func compileErr(t *testing.T, src string) error {
	t.Helper()
	_, err := compiler.Compile(src, "diag")
	if err == nil {
		t.Fatalf("expected %q to fail", src)
	}
	return err
}

func faultErr(t *testing.T) error {
	t.Helper()
	art, err := compiler.Compile("a := 5;\nfunc main() {\n\ta = a / 0;\n}\n", "diag")
	if err != nil {
		t.Fatal(err)
	}
	err = psm.New(art.Program, psm.Options{}).Run()
	if err == nil {
		t.Fatal("expected a fault")
	}
	return err
}

func TestRender(t *testing.T) {
	semantic := compileErr(t, "var x int;\nfunc main() {\n\tx = y;\n}")
	lexical := compileErr(t, "var x int = 1 @;\nfunc main() {}")
	_, loadErr := postfix.LoadString("")
	fault := faultErr(t)

	tests := []struct {
		name string
		err  error
		tag  language.Tag
		want string
	}{
		{"semantic en", semantic, language.English,
			"semantic error on line 3: undeclared variable \"y\"\n  |> x = y;"},
		{"semantic uk", semantic, language.Ukrainian,
			"семантична помилка у рядку 3: неоголошена змінна \"y\"\n  |> x = y;"},
		{"lexical uk", lexical, language.Ukrainian,
			"лексична помилка у рядку 1: неочікуваний символ '@'\n  |> var x int = 1 @;"},
		{"load en", loadErr, language.English,
			"load error on line 0: missing header \".target: PSM\""},
		{"load uk", loadErr, language.Ukrainian,
			"помилка завантаження у рядку 0: відсутній заголовок \".target: PSM\""},
		{"fault en", fault, language.English,
			"division by zero at ip 6: 5 / 0 [a:r-val, 0:intnum]"},
		{"fault uk", fault, language.Ukrainian,
			"ділення на нуль на інструкції 6: 5 / 0 [a:r-val, 0:intnum]"},
		{"wrapped", fmt.Errorf("build: %w", semantic), language.Ukrainian,
			"семантична помилка у рядку 3: неоголошена змінна \"y\"\n  |> x = y;"},
		{"foreign error", errors.New("disk full"), language.Ukrainian, "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.err, tt.tag); got != tt.want {
				t.Errorf("Render =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestRenderReorderedArguments(t *testing.T) {
	err := compileErr(t, "var x int;\nfunc main() {\n\tx = 1.5;\n}")
	want := "семантична помилка у рядку 3: не можна присвоїти значення типу floatnum змінній \"x\" типу intnum\n  |> x = 1.5;"
	if got := Render(err, language.Ukrainian); got != want {
		t.Errorf("Render =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderFaultLine(t *testing.T) {
	art, err := compiler.Compile("a := 5;\nfunc main() {\n\ta = a / 0;\n}\n", "diag")
	if err != nil {
		t.Fatal(err)
	}
	m, err := psm.Load(strings.NewReader(postfix.Format(art.Program)), psm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	fault := m.Run()
	line := m.Program.Line(6)
	if line == 0 {
		t.Fatal("loaded program has no line for ip 6")
	}
	want := fmt.Sprintf("ділення на нуль на інструкції 6, рядок %d: 5 / 0 [a:r-val, 0:intnum]", line)
	if got := Render(fault, language.Ukrainian); got != want {
		t.Errorf("Render =\n%q\nwant\n%q", got, want)
	}
}

func TestLanguage(t *testing.T) {
	tests := map[string]language.Tag{
		"uk":    language.Ukrainian,
		"uk-UA": language.Ukrainian,
		"en":    language.English,
		"en-GB": language.English,
		"de":    language.English,
		"":      language.English,
		"%%":    language.English,
	}
	for name, want := range tests {
		if got := Language(name); got != want {
			t.Errorf("Language(%q) = %v, want %v", name, got, want)
		}
	}
}

var verb = regexp.MustCompile(`%(\[\d+\])?[a-zA-Z]`)

func TestCatalogVerbs(t *testing.T) {
	for key, msg := range ukrainian {
		if k, m := len(verb.FindAllString(key, -1)), len(verb.FindAllString(msg, -1)); k != m {
			t.Errorf("%q has %d verbs, translation %q has %d", key, k, msg, m)
		}
	}
}
