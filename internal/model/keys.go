package model

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NamedKeys is the allow-list of symbolic key names a KeyPress may use on its own.
var NamedKeys = []string{
	"Enter", "Tab", "Esc", "Space", "Backspace", "Delete", "Insert",
	"Home", "End", "PgUp", "PgDn", "Up", "Down", "Left", "Right",
	"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12",
}

// Modifiers are the modifier names accepted in a Modifier+Char chord.
var Modifiers = []string{"Ctrl", "Alt", "Shift"}

// Key is a parsed KeyPress name: either Named is set, or Modifier and Char are.
type Key struct {
	Named    string
	Modifier string
	Char     rune
}

// IsChord reports whether the key is a Modifier+Char chord.
func (k Key) IsChord() bool { return k.Named == "" }

func (k Key) String() string {
	if k.IsChord() {
		return k.Modifier + "+" + string(k.Char)
	}
	return k.Named
}

// ParseKey validates a symbolic key name and returns its canonical form.
// Names match case-insensitively; the returned Key uses canonical casing.
func ParseKey(name string) (Key, error) {
	name = strings.TrimSpace(name)
	for _, n := range NamedKeys {
		if strings.EqualFold(n, name) {
			return Key{Named: n}, nil
		}
	}

	mod, char, ok := strings.Cut(name, "+")
	if !ok {
		return Key{}, fmt.Errorf("%w: unknown key %q (expected one of %s, or Ctrl/Alt/Shift+<char>)",
			ErrValidation, name, strings.Join(NamedKeys, ", "))
	}
	var canonMod string
	for _, m := range Modifiers {
		if strings.EqualFold(m, strings.TrimSpace(mod)) {
			canonMod = m
		}
	}
	if canonMod == "" {
		return Key{}, fmt.Errorf("%w: unknown modifier %q in key %q (expected Ctrl, Alt or Shift)", ErrValidation, mod, name)
	}
	if utf8.RuneCountInString(char) != 1 {
		return Key{}, fmt.Errorf("%w: key %q must be a modifier plus exactly one character", ErrValidation, name)
	}
	r, _ := utf8.DecodeRuneInString(char)
	if !unicode.IsPrint(r) || unicode.IsSpace(r) {
		return Key{}, fmt.Errorf("%w: key %q has a non-printable character", ErrValidation, name)
	}
	return Key{Modifier: canonMod, Char: r}, nil
}
