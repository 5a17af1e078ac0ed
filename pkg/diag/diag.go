// Package diag renders toolchain errors for people, in English or Ukrainian.
package diag

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"minigopher/pkg/compiler"
	"minigopher/pkg/postfix"
	"minigopher/pkg/psm"
)

var supported = []language.Tag{language.English, language.Ukrainian}

var matcher = language.NewMatcher(supported)

// Language picks the supported language closest to name ("uk", "en-GB", ...).
func Language(name string) language.Tag {
	tag, err := language.Parse(name)
	if err != nil {
		return language.English
	}
	_, idx, _ := matcher.Match(tag)
	return supported[idx]
}

// Render formats err in the language tag. Errors that are not toolchain
// diagnostics are returned as err.Error().
func Render(err error, tag language.Tag) string {
	p := message.NewPrinter(tag)

	var ce *compiler.Error
	if errors.As(err, &ce) {
		msg := p.Sprintf(ce.Kind.Error()) + " " + p.Sprintf("on line %d", ce.Line) + ": " + p.Sprintf(ce.Format, ce.Args...)
		if ce.Snippet != "" {
			msg += "\n  |> " + ce.Snippet
		}
		return msg
	}

	var le *postfix.LoadError
	if errors.As(err, &le) {
		return p.Sprintf(postfix.ErrLoad.Error()) + " " + p.Sprintf("on line %d", le.Line) + ": " + p.Sprintf(le.Format, le.Args...)
	}

	var f *psm.Fault
	if errors.As(err, &f) {
		msg := p.Sprintf(f.Kind.Error()) + " " + p.Sprintf("at ip %d", f.IP)
		if f.Line > 0 {
			msg += ", " + p.Sprintf("line %d", f.Line)
		}
		if f.Format != "" {
			msg += ": " + p.Sprintf(f.Format, f.Args...)
		}
		if len(f.Operands) > 0 {
			msg += " [" + strings.Join(f.Operands, ", ") + "]"
		}
		return msg
	}

	return err.Error()
}
