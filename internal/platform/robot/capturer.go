//go:build cgo

package robot

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-vgo/robotgo"
	"github.com/mj1618/desktop-flow/internal/platform"
)

// RobotCapturer implements platform.ScreenCapturer with robotgo.
type RobotCapturer struct{}

// NewCapturer creates a new screen capturer.
func NewCapturer() *RobotCapturer {
	return &RobotCapturer{}
}

// VirtualScreen returns the union of all display bounds.
func (c *RobotCapturer) VirtualScreen() (platform.Bounds, error) {
	n := robotgo.DisplaysNum()
	if n < 1 {
		return platform.Bounds{}, fmt.Errorf("no displays found")
	}
	var all platform.Bounds
	for i := 0; i < n; i++ {
		x, y, w, h := robotgo.GetDisplayBounds(i)
		all = all.Union(platform.Bounds{X: x, Y: y, Width: w, Height: h})
	}
	return all, nil
}

// Capture grabs the pixels inside b. The returned image is re-based so that
// its Bounds().Min equals (b.X, b.Y).
func (c *RobotCapturer) Capture(b platform.Bounds) (image.Image, error) {
	img, err := robotgo.CaptureImg(b.X, b.Y, b.Width, b.Height)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	return rebase(img, image.Pt(b.X, b.Y)), nil
}

// rebase shifts img so its minimum point is origin.
func rebase(img image.Image, origin image.Point) image.Image {
	if img.Bounds().Min == origin {
		return img
	}
	return &offsetImage{Image: img, delta: img.Bounds().Min.Sub(origin)}
}

type offsetImage struct {
	image.Image
	delta image.Point
}

func (o *offsetImage) Bounds() image.Rectangle {
	return o.Image.Bounds().Sub(o.delta)
}

func (o *offsetImage) At(x, y int) color.Color {
	return o.Image.At(x+o.delta.X, y+o.delta.Y)
}
