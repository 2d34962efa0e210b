package images

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestResolve_ImageDirFallback(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "buttons", "ok.png"), 4, 3)
	writePNG(t, filepath.Join(dir, "cancel.png"), 2, 2)
	r := PathResolver{ImageDir: dir}

	got, err := r.Resolve("buttons/ok.png")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "ok.png" || !filepath.IsAbs(got) {
		t.Errorf("Resolve(buttons/ok.png) = %q", got)
	}

	// Stale directory prefix: found by base name in the image directory.
	got, err = r.Resolve("/old/machine/images/cancel.png")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "cancel.png" {
		t.Errorf("Resolve by base name = %q", got)
	}
}

func TestResolve_Missing(t *testing.T) {
	r := PathResolver{ImageDir: t.TempDir()}
	for _, ref := range []string{"nope.png", "", "  "} {
		if _, err := r.Resolve(ref); err == nil {
			t.Errorf("Resolve(%q) should fail", ref)
		}
	}
}

func TestKey(t *testing.T) {
	dir := t.TempDir()
	r := PathResolver{ImageDir: dir}
	tests := []struct {
		ref  string
		want string
	}{
		{filepath.Join(dir, "a", "b.png"), "a/b.png"},
		{"a/./b.png", "a/b.png"},
		{"x.png", "x.png"},
	}
	for _, tt := range tests {
		if got := r.Key(tt.ref); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestMeasure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.png")
	writePNG(t, path, 17, 9)
	s, err := Measure(path)
	if err != nil {
		t.Fatal(err)
	}
	if s != (Size{Width: 17, Height: 9}) {
		t.Errorf("Measure = %+v", s)
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Measure(bad); err == nil {
		t.Error("Measure of garbage should fail")
	}
}

func TestDimensionCache_SyncAndPersist(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 10, 20)
	writePNG(t, filepath.Join(dir, "sub", "b.png"), 3, 4)
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cachePath := filepath.Join(t.TempDir(), "dims.yaml")
	c := NewDimensionCache(cachePath)
	c.Put("gone.png", Size{Width: 1, Height: 1})

	r := PathResolver{ImageDir: dir}
	report, err := c.Sync(r)
	if err != nil {
		t.Fatal(err)
	}
	if report.Measured != 2 {
		t.Errorf("Measured = %d, want 2", report.Measured)
	}
	if len(report.Removed) != 1 || report.Removed[0] != "gone.png" {
		t.Errorf("Removed = %v", report.Removed)
	}
	if len(report.Failed) != 1 || report.Failed[0] != "broken.png" {
		t.Errorf("Failed = %v", report.Failed)
	}
	if s, ok := c.Get("sub/b.png"); !ok || s != (Size{Width: 3, Height: 4}) {
		t.Errorf("Get(sub/b.png) = %+v, %v", s, ok)
	}
	if _, ok := c.Get("broken.png"); ok {
		t.Error("failed measurement must not be cached")
	}

	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadDimensionCache(cachePath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 2 {
		t.Errorf("loaded Len = %d, want 2 (keys %v)", loaded.Len(), loaded.Keys())
	}
	if s, _ := loaded.Get("a.png"); s != (Size{Width: 10, Height: 20}) {
		t.Errorf("loaded a.png = %+v", s)
	}
}

func TestLoadDimensionCache_Missing(t *testing.T) {
	c, err := LoadDimensionCache(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestDimensionCache_SyncReplacesAliasKeys(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "x.png"), 20, 30)

	c := NewDimensionCache("")
	// Written before the image was recaptured, under the reference a step used.
	c.Put("images/x.png", Size{Width: 10, Height: 10})

	report, err := c.Sync(PathResolver{ImageDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Removed) != 1 || report.Removed[0] != "images/x.png" {
		t.Errorf("Removed = %v, want [images/x.png]", report.Removed)
	}
	if _, ok := c.Get("images/x.png"); ok {
		t.Error("stale alias should be dropped")
	}
	if s, ok := c.Get("x.png"); !ok || s != (Size{Width: 20, Height: 30}) {
		t.Errorf("Get(x.png) = %+v, %v", s, ok)
	}
}
