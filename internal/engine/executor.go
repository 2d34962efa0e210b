package engine

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/platform"
	log "github.com/sirupsen/logrus"
)

// Executor defaults.
const (
	DefaultCharDelay    = 30 * time.Millisecond
	DefaultSettleDelay  = 100 * time.Millisecond
	DefaultScrollAmount = 3
)

// nativeKeys maps allow-listed key names to backend key tokens.
var nativeKeys = map[string]string{
	"Enter":     "enter",
	"Tab":       "tab",
	"Esc":       "esc",
	"Space":     "space",
	"Backspace": "backspace",
	"Delete":    "delete",
	"Insert":    "insert",
	"Home":      "home",
	"End":       "end",
	"PgUp":      "pageup",
	"PgDn":      "pagedown",
	"Up":        "up",
	"Down":      "down",
	"Left":      "left",
	"Right":     "right",
	"F1":        "f1",
	"F2":        "f2",
	"F3":        "f3",
	"F4":        "f4",
	"F5":        "f5",
	"F6":        "f6",
	"F7":        "f7",
	"F8":        "f8",
	"F9":        "f9",
	"F10":       "f10",
	"F11":       "f11",
	"F12":       "f12",
}

var nativeModifiers = map[string]string{
	"Ctrl":  "ctrl",
	"Alt":   "alt",
	"Shift": "shift",
}

// SubActionError records one sub-action that failed.
type SubActionError struct {
	Index     int    `yaml:"index"      json:"index"` // 1-based
	SubAction string `yaml:"sub_action" json:"sub_action"`
	Err       error  `yaml:"-"          json:"-"`
	Message   string `yaml:"error"      json:"error"`
}

func (e SubActionError) Error() string {
	return fmt.Sprintf("sub-action %d (%s): %s", e.Index, e.SubAction, e.Message)
}

func (e SubActionError) Unwrap() error { return e.Err }

// Executor performs a step's main action and its sub-actions.
type Executor struct {
	Input        platform.Inputter
	Clock        Clock
	CharDelay    time.Duration
	SettleDelay  time.Duration
	ScrollAmount int
	Log          *log.Entry
}

// Act performs action at p. Backend errors and panics are reported as
// ErrActionExecution.
func (e *Executor) Act(ctx context.Context, p image.Point, action model.Action) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %s at (%d,%d) panicked: %v", ErrActionExecution, action, p.X, p.Y, v)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}

	switch action {
	case model.ActionHover:
		err = e.Input.MoveMouse(p.X, p.Y)
	default:
		err = e.Input.Click(p.X, p.Y, platform.MouseLeft, 1)
	}
	if err != nil {
		return fmt.Errorf("%w: %s at (%d,%d): %v", ErrActionExecution, action, p.X, p.Y, err)
	}
	return nil
}

// RunSubActions performs subs in order and returns the ones that failed.
// A failing sub-action does not stop the rest; cancellation of ctx does.
func (e *Executor) RunSubActions(ctx context.Context, subs []model.SubAction) []SubActionError {
	var failed []SubActionError
	for i, sub := range subs {
		if err := ctx.Err(); err != nil {
			failed = append(failed, newSubActionError(i, sub, err))
			break
		}
		if err := e.runSubAction(ctx, sub); err != nil {
			se := newSubActionError(i, sub, err)
			e.logger().WithField("sub_action", sub.String()).Warnf("Sub-action failed: %v", err)
			failed = append(failed, se)
		}
		// A cancelled settle is reported by the next iteration.
		_ = e.Clock.Sleep(ctx, e.SettleDelay)
	}
	return failed
}

func newSubActionError(i int, sub model.SubAction, err error) SubActionError {
	return SubActionError{Index: i + 1, SubAction: sub.String(), Err: err, Message: err.Error()}
}

func (e *Executor) runSubAction(ctx context.Context, sub model.SubAction) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %s panicked: %v", ErrActionExecution, sub, v)
		}
	}()

	switch s := sub.(type) {
	case model.TextInput:
		return e.typeText(ctx, s.Value)
	case model.KeyPress:
		return e.pressKey(s.Name)
	case model.ScrollWheel:
		amount := e.ScrollAmount
		if s.Direction == model.ScrollDown {
			amount = -amount
		}
		if err := e.Input.Scroll(0, 0, 0, amount); err != nil {
			return fmt.Errorf("%w: scroll %s: %v", ErrActionExecution, s.Direction, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported sub-action %T", model.ErrValidation, sub)
	}
}

// typeText emits one rune at a time with CharDelay between runes.
func (e *Executor) typeText(ctx context.Context, text string) error {
	first := true
	for _, r := range text {
		if !first {
			if err := e.Clock.Sleep(ctx, e.CharDelay); err != nil {
				return err
			}
		}
		first = false
		if err := e.Input.TypeText(string(r), 0); err != nil {
			return fmt.Errorf("%w: type %q: %v", ErrActionExecution, r, err)
		}
	}
	return nil
}

func (e *Executor) pressKey(name string) error {
	key, err := model.ParseKey(name)
	if err != nil {
		return err
	}
	if !key.IsChord() {
		if err := e.Input.KeyTap(nativeKeys[key.Named]); err != nil {
			return fmt.Errorf("%w: key %s: %v", ErrActionExecution, key, err)
		}
		return nil
	}

	mod := nativeModifiers[key.Modifier]
	if err := e.Input.KeyDown(mod); err != nil {
		return fmt.Errorf("%w: hold %s: %v", ErrActionExecution, key.Modifier, err)
	}
	tapErr := e.Input.KeyTap(strings.ToLower(string(key.Char)))
	upErr := e.Input.KeyUp(mod)
	if tapErr != nil {
		return fmt.Errorf("%w: key %s: %v", ErrActionExecution, key, tapErr)
	}
	if upErr != nil {
		return fmt.Errorf("%w: release %s: %v", ErrActionExecution, key.Modifier, upErr)
	}
	return nil
}

func (e *Executor) logger() *log.Entry {
	if e.Log == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return e.Log
}
