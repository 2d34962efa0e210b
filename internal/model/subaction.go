package model

import (
	"fmt"
	"strings"
)

// SubAction is a follow-up input performed after the main action succeeds.
// The set of implementations is closed (TextInput, KeyPress, ScrollWheel).
type SubAction interface {
	isSubAction()
	Kind() string
	String() string
}

// TextInput types a string one character at a time.
type TextInput struct {
	Value string
}

// KeyPress presses a named key or a Modifier+Char chord.
type KeyPress struct {
	Name string
}

// ScrollWheel scrolls a fixed amount in one direction.
type ScrollWheel struct {
	Direction ScrollDirection
}

func (TextInput) isSubAction()   {}
func (KeyPress) isSubAction()    {}
func (ScrollWheel) isSubAction() {}

func (TextInput) Kind() string   { return "text" }
func (KeyPress) Kind() string    { return "key" }
func (ScrollWheel) Kind() string { return "scroll" }

func (t TextInput) String() string   { return fmt.Sprintf("text %q", t.Value) }
func (k KeyPress) String() string    { return "key " + k.Name }
func (s ScrollWheel) String() string { return "scroll " + s.Direction.String() }

// ScrollDirection is the direction of a ScrollWheel sub-action.
type ScrollDirection int

const (
	ScrollUp ScrollDirection = iota
	ScrollDown
)

func (d ScrollDirection) String() string {
	if d == ScrollDown {
		return "down"
	}
	return "up"
}

// ParseScrollDirection converts "up" or "down" (any case) to a ScrollDirection.
func ParseScrollDirection(s string) (ScrollDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return ScrollUp, nil
	case "down":
		return ScrollDown, nil
	default:
		return ScrollUp, fmt.Errorf("invalid scroll direction %q: use up or down", s)
	}
}

// ParseSubAction parses the "kind:value" shorthand used on the command line,
// e.g. "text:hello", "key:Ctrl+a", "scroll:down".
func ParseSubAction(s string) (SubAction, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid sub-action %q: expected kind:value (text:…, key:…, scroll:up|down)", s)
	}
	return newSubAction(kind, value)
}

func newSubAction(kind, value string) (SubAction, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "text":
		return TextInput{Value: value}, nil
	case "key":
		if _, err := ParseKey(value); err != nil {
			return nil, err
		}
		return KeyPress{Name: value}, nil
	case "scroll":
		d, err := ParseScrollDirection(value)
		if err != nil {
			return nil, err
		}
		return ScrollWheel{Direction: d}, nil
	default:
		return nil, fmt.Errorf("unknown sub-action type %q (expected text, key or scroll)", kind)
	}
}
