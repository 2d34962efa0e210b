package engine

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/desktop-flow/internal/images"
	"github.com/mj1618/desktop-flow/internal/imagesearch"
	"github.com/mj1618/desktop-flow/internal/logging"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/platform"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return ctx.Err()
}

// fakeInput records every call as a string and fails clicks at chosen points.
type fakeInput struct {
	calls       []string
	failAt      map[image.Point]bool
	failKeys    map[string]bool
	panicOnType bool
}

func (f *fakeInput) Click(x, y int, button platform.MouseButton, count int) error {
	f.calls = append(f.calls, fmt.Sprintf("click %d,%d %s x%d", x, y, button, count))
	if f.failAt[image.Pt(x, y)] {
		return fmt.Errorf("point (%d, %d) is outside the virtual screen", x, y)
	}
	return nil
}

func (f *fakeInput) MoveMouse(x, y int) error {
	f.calls = append(f.calls, fmt.Sprintf("move %d,%d", x, y))
	if f.failAt[image.Pt(x, y)] {
		return fmt.Errorf("point (%d, %d) is outside the virtual screen", x, y)
	}
	return nil
}

func (f *fakeInput) Scroll(x, y, dx, dy int) error {
	f.calls = append(f.calls, fmt.Sprintf("scroll %d,%d %d,%d", x, y, dx, dy))
	return nil
}

func (f *fakeInput) TypeText(text string, delayMs int) error {
	if f.panicOnType {
		panic("keyboard unplugged")
	}
	f.calls = append(f.calls, "type "+text)
	return nil
}

func (f *fakeInput) KeyTap(key string) error {
	f.calls = append(f.calls, "tap "+key)
	if f.failKeys[key] {
		return fmt.Errorf("no such key %q", key)
	}
	return nil
}

func (f *fakeInput) KeyDown(key string) error {
	f.calls = append(f.calls, "down "+key)
	return nil
}

func (f *fakeInput) KeyUp(key string) error {
	f.calls = append(f.calls, "up "+key)
	return nil
}

type fakeScreen struct{}

func (fakeScreen) VirtualScreen() (platform.Bounds, error) {
	return platform.Bounds{X: -1920, Y: 0, Width: 3840, Height: 1080}, nil
}

// fakeSearcher answers searches through respond and advances the clock by
// cost per call.
type fakeSearcher struct {
	clock   *fakeClock
	cost    time.Duration
	specs   []imagesearch.Spec
	paths   []string
	respond func(n int, spec imagesearch.Spec) (image.Point, bool, error)
}

func (s *fakeSearcher) Search(ctx context.Context, region platform.Bounds, spec imagesearch.Spec, imagePath string) (image.Point, bool, error) {
	s.specs = append(s.specs, spec)
	s.paths = append(s.paths, imagePath)
	if s.clock != nil {
		s.clock.Advance(s.cost)
	}
	if s.respond == nil {
		return image.Point{}, false, nil
	}
	return s.respond(len(s.specs), spec)
}

func foundAt(p image.Point) func(int, imagesearch.Spec) (image.Point, bool, error) {
	return func(int, imagesearch.Spec) (image.Point, bool, error) { return p, true, nil }
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(_ context.Context, title, message string) {
	n.messages = append(n.messages, message)
}

type fakeLookup struct {
	flows   map[string]model.Flow
	err     error
	lookups []string
}

func (l *fakeLookup) LookupFlow(_ context.Context, name string) (model.Flow, bool, error) {
	l.lookups = append(l.lookups, name)
	if l.err != nil {
		return model.Flow{}, false, l.err
	}
	f, ok := l.flows[name]
	return f, ok, nil
}

// harness bundles an engine with its fakes.
type harness struct {
	engine   *Engine
	clock    *fakeClock
	input    *fakeInput
	searcher *fakeSearcher
	notifier *fakeNotifier
	lookup   *fakeLookup
	imageDir string
}

func newHarness(t *testing.T, policy Policy) *harness {
	t.Helper()
	h := &harness{
		clock:    newFakeClock(),
		input:    &fakeInput{failAt: map[image.Point]bool{}, failKeys: map[string]bool{}},
		notifier: &fakeNotifier{},
		lookup:   &fakeLookup{flows: map[string]model.Flow{}},
		imageDir: t.TempDir(),
	}
	h.searcher = &fakeSearcher{clock: h.clock}
	h.engine = New(Deps{
		Input:      h.input,
		Screen:     fakeScreen{},
		Searcher:   h.searcher,
		Paths:      images.PathResolver{ImageDir: h.imageDir},
		Dimensions: images.NewDimensionCache(""),
		Flows:      h.lookup,
		Policy:     policy,
		Notifier:   h.notifier,
		Clock:      h.clock,
		Log:        logging.Discard(),
	}, DefaultSettings())
	return h
}

// writeImage creates a w x h PNG named name in the harness image directory.
func (h *harness) writeImage(t *testing.T, name string, w, ht int) string {
	t.Helper()
	path := filepath.Join(h.imageDir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, ht))); err != nil {
		t.Fatal(err)
	}
	return path
}

func coordStep(t *testing.T, name string, x, y int, subs ...model.SubAction) model.Step {
	t.Helper()
	s, err := model.NewStep(name, "", model.CoordinateTarget{X: x, Y: y}, model.ActionClick, model.AnchorCenter, 0, subs...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func imageStep(t *testing.T, name, path string, anchor model.Anchor) model.Step {
	t.Helper()
	s, err := model.NewStep(name, "", model.ImageTarget{Path: path}, model.ActionClick, anchor, 0)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
