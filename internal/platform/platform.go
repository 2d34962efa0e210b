package platform

import "image"

// Inputter synthesizes mouse and keyboard input.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	MoveMouse(x, y int) error
	// Scroll scrolls dy lines vertically (positive = up) and dx horizontally
	// (positive = left). x and y both 0 scrolls at the current pointer.
	Scroll(x, y int, dx, dy int) error
	TypeText(text string, delayMs int) error
	// KeyTap presses and releases a native key token.
	KeyTap(key string) error
	KeyDown(key string) error
	KeyUp(key string) error
}

// ScreenCapturer captures pixels from the virtual screen (all displays).
type ScreenCapturer interface {
	// VirtualScreen returns the bounds enclosing every display.
	VirtualScreen() (Bounds, error)
	// Capture returns the pixels inside b, in screen coordinates.
	Capture(b Bounds) (image.Image, error)
}
