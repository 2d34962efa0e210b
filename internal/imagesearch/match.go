// Package imagesearch finds a needle image on the screen using a
// per-channel color tolerance.
package imagesearch

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Variant selects which needle pixels are compared.
type Variant int

const (
	// VariantFast compares a sparse grid of needle pixels.
	VariantFast Variant = iota
	// VariantStandard compares every needle pixel.
	VariantStandard
	// VariantTransparent compares every needle pixel whose alpha is at
	// least half, so transparent regions match anything.
	VariantTransparent
)

func (v Variant) String() string {
	switch v {
	case VariantFast:
		return "fast"
	case VariantTransparent:
		return "transparent"
	default:
		return "standard"
	}
}

// Spec is one matching attempt: a tolerance (0-255 per channel) and a variant.
type Spec struct {
	Tolerance int
	Variant   Variant
}

func (s Spec) String() string {
	return fmt.Sprintf("%s/%d", s.Variant, s.Tolerance)
}

// fastGrid is the number of sample columns and rows used by VariantFast.
const fastGrid = 8

type sample struct {
	dx, dy  int
	r, g, b uint8
}

// Find returns the top-left point of the first window of haystack (scanning
// rows top to bottom, columns left to right) whose sampled pixels all lie
// within spec.Tolerance of the needle. The point is in haystack coordinates.
func Find(haystack, needle image.Image, spec Spec) (image.Point, bool, error) {
	nb := needle.Bounds()
	hb := haystack.Bounds()
	if nb.Empty() {
		return image.Point{}, false, fmt.Errorf("needle image is empty")
	}
	if nb.Dx() > hb.Dx() || nb.Dy() > hb.Dy() {
		return image.Point{}, false, nil
	}

	samples := sampleNeedle(toNRGBA(needle), spec.Variant)
	if len(samples) == 0 {
		return image.Point{}, false, fmt.Errorf("needle has no opaque pixels to compare")
	}

	hay := toNRGBA(haystack)
	tol := spec.Tolerance
	maxX := hay.Rect.Dx() - nb.Dx()
	maxY := hay.Rect.Dy() - nb.Dy()
	for y := 0; y <= maxY; y++ {
	window:
		for x := 0; x <= maxX; x++ {
			for _, s := range samples {
				i := (y+s.dy)*hay.Stride + (x+s.dx)*4
				if !within(hay.Pix[i], s.r, tol) || !within(hay.Pix[i+1], s.g, tol) || !within(hay.Pix[i+2], s.b, tol) {
					continue window
				}
			}
			return image.Pt(hb.Min.X+x, hb.Min.Y+y), true, nil
		}
	}
	return image.Point{}, false, nil
}

func within(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// sampleNeedle lists the needle pixels compared for variant, relative to the
// needle's top-left corner.
func sampleNeedle(n *image.NRGBA, v Variant) []sample {
	w, h := n.Rect.Dx(), n.Rect.Dy()
	at := func(x, y int) sample {
		i := y*n.Stride + x*4
		return sample{dx: x, dy: y, r: n.Pix[i], g: n.Pix[i+1], b: n.Pix[i+2]}
	}

	var out []sample
	switch v {
	case VariantFast:
		for _, y := range gridSteps(h) {
			for _, x := range gridSteps(w) {
				out = append(out, at(x, y))
			}
		}
	case VariantTransparent:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if n.Pix[y*n.Stride+x*4+3] >= 0x80 {
					out = append(out, at(x, y))
				}
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out = append(out, at(x, y))
			}
		}
	}
	return out
}

// gridSteps returns up to fastGrid evenly spaced offsets in [0, n-1],
// always including both ends.
func gridSteps(n int) []int {
	if n <= fastGrid {
		steps := make([]int, n)
		for i := range steps {
			steps[i] = i
		}
		return steps
	}
	steps := make([]int, fastGrid)
	for i := range steps {
		steps[i] = i * (n - 1) / (fastGrid - 1)
	}
	return steps
}

// toNRGBA returns img as an NRGBA whose Rect starts at (0, 0).
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}
