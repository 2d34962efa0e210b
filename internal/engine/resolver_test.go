package engine

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/mj1618/desktop-flow/internal/imagesearch"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorOffset_WithinBounds(t *testing.T) {
	for _, anchor := range model.Anchors {
		for w := 1; w <= 9; w++ {
			for h := 1; h <= 9; h++ {
				p := AnchorOffset(anchor, w, h)
				assert.Equal(t, p, AnchorOffset(anchor, w, h), "deterministic")
				assert.True(t, p.X >= 0 && p.X <= w-1 && p.Y >= 0 && p.Y <= h-1,
					"%s offset %v outside %dx%d", anchor, p, w, h)
			}
		}
	}
}

func TestAnchorOffset_Values(t *testing.T) {
	tests := []struct {
		anchor model.Anchor
		want   image.Point
	}{
		{model.AnchorCenter, image.Pt(10, 5)},
		{model.AnchorUpperLeft, image.Pt(0, 0)},
		{model.AnchorUpperRight, image.Pt(20, 0)},
		{model.AnchorLowerLeft, image.Pt(0, 10)},
		{model.AnchorLowerRight, image.Pt(20, 10)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AnchorOffset(tt.anchor, 21, 11), tt.anchor.String())
	}
}

func TestResolve_CoordinateTargetNeverSearches(t *testing.T) {
	h := newHarness(t, ContinuePolicy)

	res, err := h.engine.Resolver.Resolve(context.Background(), model.CoordinateTarget{X: -5, Y: 7}, model.AnchorLowerRight, time.Second)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(-5, 7), res.Point)
	assert.Empty(t, h.searcher.specs)
	assert.Zero(t, res.Attempts)
}

func TestResolve_StrategyOrder(t *testing.T) {
	h := newHarness(t, ContinuePolicy)
	h.writeImage(t, "ok.png", 20, 10)

	res, err := h.engine.Resolver.Resolve(context.Background(), model.ImageTarget{Path: "ok.png"}, model.AnchorCenter, time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.Equal(t, Strategies, h.searcher.specs)
	assert.Equal(t, []int{10, 20, 30, 40}, tolerances(h.searcher.specs))
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 40, res.Tolerance)
	assert.Equal(t, "transparent", res.Strategy)
}

func TestResolve_FirstMatchStops(t *testing.T) {
	h := newHarness(t, ContinuePolicy)
	h.writeImage(t, "ok.png", 20, 10)
	h.searcher.respond = func(n int, spec imagesearch.Spec) (image.Point, bool, error) {
		return image.Pt(100, 50), n == 2, nil
	}

	res, err := h.engine.Resolver.Resolve(context.Background(), model.ImageTarget{Path: "ok.png"}, model.AnchorCenter, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(110, 55), res.Point)
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, h.searcher.specs, 2)
	assert.Equal(t, image.Rect(100, 50, 120, 60), res.Match)
}

func TestResolve_TimeoutStopsAttempts(t *testing.T) {
	h := newHarness(t, ContinuePolicy)
	h.writeImage(t, "slow.png", 4, 4)
	h.searcher.cost = 4 * time.Second

	res, err := h.engine.Resolver.Resolve(context.Background(), model.ImageTarget{Path: "slow.png"}, model.AnchorCenter, 10*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	// Checks happen at 0s, 4s, 8s (attempts) and 12s (over budget).
	assert.Len(t, h.searcher.specs, 3)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 12*time.Second, res.SearchTime)
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestResolve_MatchErrorIsRecordedAndSearchContinues(t *testing.T) {
	h := newHarness(t, ContinuePolicy)
	h.writeImage(t, "flaky.png", 8, 6)
	h.searcher.respond = func(n int, spec imagesearch.Spec) (image.Point, bool, error) {
		switch n {
		case 1:
			return image.Point{}, false, errors.New("capture failed")
		case 2:
			panic("matcher exploded")
		}
		return image.Pt(3, 4), true, nil
	}

	res, err := h.engine.Resolver.Resolve(context.Background(), model.ImageTarget{Path: "flaky.png"}, model.AnchorUpperLeft, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(3, 4), res.Point)
	assert.Equal(t, 3, res.Attempts)
	require.Len(t, res.Diagnostics, 2)
	assert.Contains(t, res.Diagnostics[0], "capture failed")
	assert.Contains(t, res.Diagnostics[1], "matcher exploded")
	assert.Contains(t, res.Diagnostics[0], ErrMatchAttempt.Error())
}

func TestResolve_PathNotFound(t *testing.T) {
	h := newHarness(t, ContinuePolicy)

	res, err := h.engine.Resolver.Resolve(context.Background(), model.ImageTarget{Path: "missing.png"}, model.AnchorCenter, time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathNotFound))
	assert.Equal(t, "PathNotFound", Kind(err))
	assert.Equal(t, "missing.png", res.ImagePath)
	assert.Empty(t, h.searcher.specs)
}

func TestResolve_ResolvesByBaseName(t *testing.T) {
	h := newHarness(t, ContinuePolicy)
	path := h.writeImage(t, "save.png", 10, 10)
	h.searcher.respond = foundAt(image.Pt(0, 0))

	res, err := h.engine.Resolver.Resolve(context.Background(), model.ImageTarget{Path: "/some/other/machine/save.png"}, model.AnchorCenter, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, path, res.ResolvedPath)
	assert.Equal(t, []string{path}, h.searcher.paths)
}

func TestResolve_Idempotent(t *testing.T) {
	h := newHarness(t, ContinuePolicy)
	h.writeImage(t, "same.png", 31, 17)
	h.searcher.respond = foundAt(image.Pt(200, 300))
	target := model.ImageTarget{Path: "same.png"}

	first, err := h.engine.Resolver.Resolve(context.Background(), target, model.AnchorCenter, time.Minute)
	require.NoError(t, err)
	_, cached := h.engine.Resolver.Dimensions.Get("same.png")
	assert.True(t, cached, "size cached after measurement")

	second, err := h.engine.Resolver.Resolve(context.Background(), target, model.AnchorCenter, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first.Point, second.Point)
	assert.Equal(t, image.Pt(215, 308), second.Point)
}

func TestResolve_CancelledContext(t *testing.T) {
	h := newHarness(t, ContinuePolicy)
	h.writeImage(t, "c.png", 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.engine.Resolver.Resolve(ctx, model.ImageTarget{Path: "c.png"}, model.AnchorCenter, time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, h.searcher.specs)
}

func tolerances(specs []imagesearch.Spec) []int {
	out := make([]int, len(specs))
	for i, s := range specs {
		out[i] = s.Tolerance
	}
	return out
}

func TestResolve_SyncRefreshesCachedSize(t *testing.T) {
	h := newHarness(t, ContinuePolicy)
	h.writeImage(t, "x.png", 10, 10)
	h.searcher.respond = foundAt(image.Pt(100, 200))
	target := model.ImageTarget{Path: "images/x.png"}

	res, err := h.engine.Resolver.Resolve(context.Background(), target, model.AnchorLowerRight, time.Second)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(109, 209), res.Point)
	assert.Equal(t, []string{"x.png"}, h.engine.Resolver.Dimensions.Keys())

	// Recaptured at a new size; a sync must be enough for anchors to follow.
	h.writeImage(t, "x.png", 20, 30)
	_, err = h.engine.Resolver.Dimensions.Sync(h.engine.Resolver.Paths)
	require.NoError(t, err)

	res, err = h.engine.Resolver.Resolve(context.Background(), target, model.AnchorLowerRight, time.Second)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(119, 229), res.Point)
}
