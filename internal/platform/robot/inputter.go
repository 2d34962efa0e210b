//go:build cgo

package robot

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
	"github.com/mj1618/desktop-flow/internal/platform"
)

// RobotInputter implements platform.Inputter with robotgo.
type RobotInputter struct {
	screen *RobotCapturer
}

// NewInputter creates an inputter that rejects points outside the virtual screen.
func NewInputter(screen *RobotCapturer) *RobotInputter {
	return &RobotInputter{screen: screen}
}

func (inp *RobotInputter) checkPoint(x, y int) error {
	b, err := inp.screen.VirtualScreen()
	if err != nil {
		return err
	}
	if x < b.X || y < b.Y || x >= b.X+b.Width || y >= b.Y+b.Height {
		return fmt.Errorf("point (%d, %d) is outside the virtual screen %s", x, y, b)
	}
	return nil
}

func (inp *RobotInputter) Click(x, y int, button platform.MouseButton, count int) error {
	if err := inp.checkPoint(x, y); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	robotgo.Move(x, y)
	robotgo.MilliSleep(10)
	if count >= 2 {
		robotgo.Click(button.String(), true)
		return nil
	}
	robotgo.Click(button.String(), false)
	return nil
}

func (inp *RobotInputter) MoveMouse(x, y int) error {
	if err := inp.checkPoint(x, y); err != nil {
		return fmt.Errorf("failed to move mouse: %w", err)
	}
	robotgo.Move(x, y)
	return nil
}

func (inp *RobotInputter) Scroll(x, y int, dx, dy int) error {
	// Skip the move if x and y are both 0 (scroll at current mouse position).
	if x != 0 || y != 0 {
		if err := inp.MoveMouse(x, y); err != nil {
			return err
		}
		robotgo.MilliSleep(10)
	}
	switch {
	case dy > 0:
		robotgo.ScrollDir(dy, "up")
	case dy < 0:
		robotgo.ScrollDir(-dy, "down")
	}
	switch {
	case dx > 0:
		robotgo.ScrollDir(dx, "left")
	case dx < 0:
		robotgo.ScrollDir(-dx, "right")
	}
	return nil
}

func (inp *RobotInputter) TypeText(text string, delayMs int) error {
	for _, ch := range text {
		robotgo.TypeStr(string(ch))
		if delayMs > 0 {
			robotgo.MilliSleep(delayMs)
		}
	}
	return nil
}

func (inp *RobotInputter) KeyTap(key string) error {
	if err := robotgo.KeyTap(strings.ToLower(key)); err != nil {
		return fmt.Errorf("failed to press %q: %w", key, err)
	}
	return nil
}

func (inp *RobotInputter) KeyDown(key string) error {
	if err := robotgo.KeyToggle(strings.ToLower(key), "down"); err != nil {
		return fmt.Errorf("failed to hold %q: %w", key, err)
	}
	return nil
}

func (inp *RobotInputter) KeyUp(key string) error {
	if err := robotgo.KeyToggle(strings.ToLower(key), "up"); err != nil {
		return fmt.Errorf("failed to release %q: %w", key, err)
	}
	return nil
}
