package platform

import "testing"

func TestParseBBox_Valid(t *testing.T) {
	b, err := ParseBBox("10,20,300,400")
	if err != nil {
		t.Fatal(err)
	}
	if b.X != 10 || b.Y != 20 || b.Width != 300 || b.Height != 400 {
		t.Errorf("got %+v, want {10 20 300 400}", b)
	}
}

func TestParseBBox_WithSpaces(t *testing.T) {
	b, err := ParseBBox("-1920, 0, 1920, 1080")
	if err != nil {
		t.Fatal(err)
	}
	if b.X != -1920 || b.Y != 0 || b.Width != 1920 || b.Height != 1080 {
		t.Errorf("got %+v, want {-1920 0 1920 1080}", b)
	}
}

func TestParseBBox_Invalid(t *testing.T) {
	tests := []string{
		"",
		"10,20,300",
		"10,20,300,400,500",
		"a,b,c,d",
		"10,20,abc,400",
		"10,20,0,400",
	}
	for _, s := range tests {
		_, err := ParseBBox(s)
		if err == nil {
			t.Errorf("ParseBBox(%q) should fail", s)
		}
	}
}

func TestBounds_Union(t *testing.T) {
	primary := Bounds{X: 0, Y: 0, Width: 1920, Height: 1080}
	left := Bounds{X: -1280, Y: 100, Width: 1280, Height: 1024}

	got := primary.Union(left)
	want := Bounds{X: -1280, Y: 0, Width: 3200, Height: 1124}
	if got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}

	if got := (Bounds{}).Union(primary); got != primary {
		t.Errorf("empty.Union = %+v, want %+v", got, primary)
	}
}

func TestMouseButton_String(t *testing.T) {
	for b, want := range map[MouseButton]string{MouseLeft: "left", MouseRight: "right", MouseMiddle: "middle"} {
		if got := b.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", b, got, want)
		}
	}
}
