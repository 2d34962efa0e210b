package imagesearch

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	boxColor     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	markColor    = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Annotate returns a copy of capture with the matched box outlined, a cross
// at point, and label drawn next to it. box and point are in the capture's
// coordinate space.
func Annotate(capture image.Image, box image.Rectangle, point image.Point, label string) *image.RGBA {
	rgba := image.NewRGBA(capture.Bounds())
	draw.Draw(rgba, rgba.Rect, capture, capture.Bounds().Min, draw.Src)

	drawRectangle(rgba, box, boxColor)
	drawCross(rgba, point, 6, markColor)
	if label == "" {
		label = fmt.Sprintf("(%d,%d)", point.X, point.Y)
	}
	drawTextWithOutline(rgba, label, point.X, box.Max.Y+14)
	return rgba
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("png encode: %w", err)
	}
	return f.Close()
}

func drawRectangle(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Rect)
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

func drawCross(img *image.RGBA, p image.Point, arm int, c color.Color) {
	for d := -arm; d <= arm; d++ {
		if q := image.Pt(p.X+d, p.Y); q.In(img.Rect) {
			img.Set(q.X, q.Y, c)
		}
		if q := image.Pt(p.X, p.Y+d); q.In(img.Rect) {
			img.Set(q.X, q.Y, c)
		}
	}
}

// drawTextWithOutline centers text horizontally on x with its baseline at y.
func drawTextWithOutline(img *image.RGBA, text string, x, y int) {
	// basicfont.Face7x13 glyphs are 7 pixels wide.
	offsetX := x - len(text)*7/2

	drawer := func(c color.Color, dx, dy int) *font.Drawer {
		return &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(offsetX+dx, y+dy),
		}
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawer(outlineColor, dx, dy).DrawString(text)
		}
	}
	drawer(textColor, 0, 0).DrawString(text)
}
