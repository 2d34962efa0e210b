package imagesearch

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mj1618/desktop-flow/internal/platform"
)

// pattern returns a w x h needle with distinct pixel colors.
func pattern(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(40 + x*13), G: uint8(60 + y*17), B: uint8(200 - x*5 - y*3), A: 255})
		}
	}
	return img
}

// scene paints needle onto a flat gray background at (px, py), shifting each
// channel of the pasted pixels by noise.
func scene(r image.Rectangle, needle *image.NRGBA, at image.Point, noise int) *image.NRGBA {
	img := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	nb := needle.Bounds()
	for y := 0; y < nb.Dy(); y++ {
		for x := 0; x < nb.Dx(); x++ {
			c := needle.NRGBAAt(x, y)
			if c.A < 0x80 {
				continue
			}
			img.SetNRGBA(at.X+x, at.Y+y, color.NRGBA{
				R: shift(c.R, noise), G: shift(c.G, noise), B: shift(c.B, noise), A: 255,
			})
		}
	}
	return img
}

func shift(v uint8, d int) uint8 {
	n := int(v) + d
	if n > 255 {
		n = int(v) - d
	}
	return uint8(n)
}

func TestFind_Tolerance(t *testing.T) {
	needle := pattern(12, 9)
	at := image.Pt(37, 21)
	hay := scene(image.Rect(0, 0, 120, 80), needle, at, 15)

	tests := []struct {
		spec   Spec
		wantOK bool
	}{
		{Spec{Tolerance: 10, Variant: VariantStandard}, false},
		{Spec{Tolerance: 20, Variant: VariantStandard}, true},
		{Spec{Tolerance: 10, Variant: VariantFast}, false},
		{Spec{Tolerance: 20, Variant: VariantFast}, true},
	}
	for _, tt := range tests {
		p, ok, err := Find(hay, needle, tt.spec)
		if err != nil {
			t.Fatalf("Find(%s): %v", tt.spec, err)
		}
		if ok != tt.wantOK {
			t.Errorf("Find(%s) ok = %v, want %v", tt.spec, ok, tt.wantOK)
		}
		if ok && p != at {
			t.Errorf("Find(%s) = %v, want %v", tt.spec, p, at)
		}
	}
}

func TestFind_OffsetHaystack(t *testing.T) {
	needle := pattern(5, 5)
	r := image.Rect(-1920, -100, -1800, 0)
	at := image.Pt(-1850, -40)
	hay := scene(r, needle, at, 0)

	p, ok, err := Find(hay, needle, Spec{Tolerance: 0, Variant: VariantStandard})
	if err != nil || !ok {
		t.Fatalf("Find = %v, %v, %v", p, ok, err)
	}
	if p != at {
		t.Errorf("Find = %v, want %v", p, at)
	}
}

func TestFind_Transparent(t *testing.T) {
	needle := pattern(10, 10)
	// Clear a border so only the inner 6x6 is opaque.
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 2 || y < 2 || x > 7 || y > 7 {
				needle.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	at := image.Pt(14, 3)
	hay := scene(image.Rect(0, 0, 40, 30), needle, at, 0)

	if _, ok, _ := Find(hay, needle, Spec{Tolerance: 40, Variant: VariantStandard}); ok {
		t.Error("standard variant should not match through transparent border")
	}
	p, ok, err := Find(hay, needle, Spec{Tolerance: 40, Variant: VariantTransparent})
	if err != nil || !ok {
		t.Fatalf("transparent Find = %v, %v, %v", p, ok, err)
	}
	if p != at {
		t.Errorf("transparent Find = %v, want %v", p, at)
	}
}

func TestFind_NeedleLargerThanHaystack(t *testing.T) {
	_, ok, err := Find(image.NewNRGBA(image.Rect(0, 0, 4, 4)), pattern(5, 5), Spec{Variant: VariantStandard})
	if err != nil || ok {
		t.Errorf("got ok=%v err=%v, want miss without error", ok, err)
	}
}

func TestFind_FullyTransparentNeedle(t *testing.T) {
	_, _, err := Find(image.NewNRGBA(image.Rect(0, 0, 8, 8)), image.NewNRGBA(image.Rect(0, 0, 2, 2)), Spec{Variant: VariantTransparent})
	if err == nil {
		t.Error("fully transparent needle should be an error")
	}
}

func TestGridSteps(t *testing.T) {
	steps := gridSteps(100)
	if len(steps) != fastGrid || steps[0] != 0 || steps[len(steps)-1] != 99 {
		t.Errorf("gridSteps(100) = %v", steps)
	}
	if got := gridSteps(3); len(got) != 3 {
		t.Errorf("gridSteps(3) = %v", got)
	}
}

type fakeCapturer struct {
	img      image.Image
	captures int
	err      error
}

func (f *fakeCapturer) VirtualScreen() (platform.Bounds, error) {
	return platform.BoundsFromRect(f.img.Bounds()), nil
}

func (f *fakeCapturer) Capture(b platform.Bounds) (image.Image, error) {
	f.captures++
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

func TestScreenSearcher(t *testing.T) {
	needle := pattern(6, 4)
	path := filepath.Join(t.TempDir(), "needle.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, needle); err != nil {
		t.Fatal(err)
	}
	f.Close()

	at := image.Pt(9, 11)
	capt := &fakeCapturer{img: scene(image.Rect(0, 0, 50, 40), needle, at, 0)}
	s := NewScreenSearcher(capt)
	region, _ := capt.VirtualScreen()

	for i := 0; i < 2; i++ {
		p, ok, err := s.Search(context.Background(), region, Spec{Tolerance: 10, Variant: VariantFast}, path)
		if err != nil || !ok || p != at {
			t.Fatalf("Search #%d = %v, %v, %v", i, p, ok, err)
		}
	}
	if capt.captures != 2 {
		t.Errorf("captures = %d, want one per search", capt.captures)
	}
	if len(s.needles) != 1 {
		t.Errorf("needle cache has %d entries, want 1", len(s.needles))
	}

	capt.err = errors.New("display gone")
	if _, _, err := s.Search(context.Background(), region, Spec{Variant: VariantStandard}, path); err == nil {
		t.Error("capture error should propagate")
	}
	if _, _, err := s.Search(context.Background(), region, Spec{}, filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("missing needle should be an error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := s.Search(ctx, region, Spec{}, path); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled search err = %v", err)
	}
}

func TestAnnotate(t *testing.T) {
	capture := image.NewRGBA(image.Rect(100, 100, 200, 180))
	box := image.Rect(120, 110, 150, 130)
	out := Annotate(capture, box, image.Pt(135, 120), "")

	if out.Bounds() != capture.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), capture.Bounds())
	}
	if got := out.RGBAAt(120, 110); got != boxColor {
		t.Errorf("box corner = %v, want %v", got, boxColor)
	}
	if got := out.RGBAAt(135, 120); got != markColor {
		t.Errorf("anchor mark = %v, want %v", got, markColor)
	}
}
