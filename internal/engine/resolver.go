package engine

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/mj1618/desktop-flow/internal/images"
	"github.com/mj1618/desktop-flow/internal/imagesearch"
	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/platform"
	log "github.com/sirupsen/logrus"
)

// DefaultResolveTimeout is the search budget for steps run from flows and
// workflows.
const DefaultResolveTimeout = 10 * time.Second

// Strategies are tried in order until one matches: cheapest and most exact
// first, then progressively more permissive.
var Strategies = []imagesearch.Spec{
	{Tolerance: 10, Variant: imagesearch.VariantFast},
	{Tolerance: 20, Variant: imagesearch.VariantStandard},
	{Tolerance: 30, Variant: imagesearch.VariantStandard},
	{Tolerance: 40, Variant: imagesearch.VariantTransparent},
}

// Screen reports the virtual screen bounds searched for image targets.
type Screen interface {
	VirtualScreen() (platform.Bounds, error)
}

// Resolution describes how a target was resolved. It is filled in as far
// as resolution got, on failure as well as success.
type Resolution struct {
	Point        image.Point   `yaml:"point"                   json:"point"`
	Size         images.Size   `yaml:"size"                    json:"size"`
	Attempts     int           `yaml:"attempts"                json:"attempts"`
	Strategy     string        `yaml:"strategy,omitempty"      json:"strategy,omitempty"`
	Tolerance    int           `yaml:"tolerance"               json:"tolerance"`
	SearchTime   time.Duration `yaml:"search_time"             json:"search_time"`
	ImagePath    string        `yaml:"image_path,omitempty"    json:"image_path,omitempty"`
	ResolvedPath string        `yaml:"resolved_path,omitempty" json:"resolved_path,omitempty"`
	Diagnostics  []string      `yaml:"diagnostics,omitempty"   json:"diagnostics,omitempty"`

	// Match is the matched region in screen coordinates; Region is the
	// screen area that was searched.
	Match  image.Rectangle `yaml:"-" json:"-"`
	Region platform.Bounds `yaml:"-" json:"-"`
}

// Resolver turns a step target into a screen point.
type Resolver struct {
	Paths      images.PathResolver
	Dimensions *images.DimensionCache
	Searcher   imagesearch.Searcher
	Screen     Screen
	Clock      Clock
	Log        *log.Entry
}

// AnchorOffset returns the offset of anchor inside a w x h region. The
// result lies in [0, w-1] x [0, h-1] for w, h >= 1.
func AnchorOffset(anchor model.Anchor, w, h int) image.Point {
	switch anchor {
	case model.AnchorUpperLeft:
		return image.Pt(0, 0)
	case model.AnchorUpperRight:
		return image.Pt(w-1, 0)
	case model.AnchorLowerLeft:
		return image.Pt(0, h-1)
	case model.AnchorLowerRight:
		return image.Pt(w-1, h-1)
	default:
		return image.Pt(w/2, h/2)
	}
}

// Resolve returns the point for target. Coordinate targets are returned as
// given. Image targets are searched with each of Strategies in turn; the
// elapsed time is checked against timeout before every attempt.
func (r *Resolver) Resolve(ctx context.Context, target model.Target, anchor model.Anchor, timeout time.Duration) (Resolution, error) {
	var res Resolution
	switch t := target.(type) {
	case model.CoordinateTarget:
		res.Point = image.Pt(t.X, t.Y)
		return res, nil
	case model.ImageTarget:
		return r.resolveImage(ctx, t, anchor, timeout, res)
	case nil:
		return res, fmt.Errorf("%w: step has no target", model.ErrValidation)
	default:
		return res, fmt.Errorf("%w: unsupported target %T", model.ErrValidation, target)
	}
}

func (r *Resolver) resolveImage(ctx context.Context, t model.ImageTarget, anchor model.Anchor, timeout time.Duration, res Resolution) (Resolution, error) {
	logger := r.logger().WithField("image", t.Path)
	res.ImagePath = t.Path

	path, err := r.Paths.Resolve(t.Path)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrPathNotFound, err)
	}
	res.ResolvedPath = path

	size, err := r.size(t.Path, path)
	if err != nil {
		return res, err
	}
	res.Size = size

	region, err := r.Screen.VirtualScreen()
	if err != nil {
		return res, fmt.Errorf("failed to read screen bounds: %w", err)
	}
	res.Region = region

	start := r.Clock.Now()

	for _, spec := range Strategies {
		if elapsed := r.Clock.Now().Sub(start); elapsed > timeout {
			res.SearchTime = elapsed
			return res, fmt.Errorf("%w after %s (%d attempts)", ErrTimeout, elapsed.Round(time.Millisecond), res.Attempts)
		}
		if err := ctx.Err(); err != nil {
			res.SearchTime = r.Clock.Now().Sub(start)
			return res, fmt.Errorf("search cancelled after %d attempts: %w", res.Attempts, err)
		}

		res.Attempts++
		res.Strategy = spec.Variant.String()
		res.Tolerance = spec.Tolerance

		logger.WithFields(log.Fields{
			"attempt":   res.Attempts,
			"tolerance": spec.Tolerance,
			"variant":   spec.Variant.String(),
		}).Debug("Searching for image")

		found, ok, err := r.attempt(ctx, region, spec, path)
		if err != nil {
			diag := fmt.Errorf("%w (%s): %v", ErrMatchAttempt, spec, err)
			res.Diagnostics = append(res.Diagnostics, diag.Error())
			logger.Warnf("Match attempt failed: %v", diag)
			continue
		}
		if !ok {
			continue
		}

		res.Match = image.Rectangle{Min: found, Max: found.Add(image.Pt(size.Width, size.Height))}
		res.Point = found.Add(AnchorOffset(anchor, size.Width, size.Height))
		res.SearchTime = r.Clock.Now().Sub(start)
		logger.WithFields(log.Fields{
			"attempts": res.Attempts,
			"x":        res.Point.X,
			"y":        res.Point.Y,
		}).Debug("Image found")
		return res, nil
	}

	res.SearchTime = r.Clock.Now().Sub(start)
	return res, fmt.Errorf("%w: %s after %d attempts", ErrNotFound, t.Path, res.Attempts)
}

// attempt runs one search, turning a panic in the matcher into an error.
func (r *Resolver) attempt(ctx context.Context, region platform.Bounds, spec imagesearch.Spec, path string) (p image.Point, ok bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			p, ok, err = image.Point{}, false, fmt.Errorf("matcher panic: %v", v)
		}
	}()
	return r.Searcher.Search(ctx, region, spec, path)
}

// size returns the cached dimensions for the image at path, measuring and
// caching them on a miss. Entries are keyed by the resolved file, the same
// key a bulk sync writes.
func (r *Resolver) size(ref, path string) (images.Size, error) {
	key := r.Paths.Key(path)
	if r.Dimensions != nil {
		if s, ok := r.Dimensions.Get(key); ok {
			return s, nil
		}
	}
	s, err := images.Measure(path)
	if err != nil {
		return images.Size{}, fmt.Errorf("failed to measure %s: %w", ref, err)
	}
	if r.Dimensions != nil {
		r.Dimensions.Put(key, s)
	}
	return s, nil
}

func (r *Resolver) logger() *log.Entry {
	if r.Log == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return r.Log
}
