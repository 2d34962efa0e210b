package imagesearch

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/mj1618/desktop-flow/internal/images"
	"github.com/mj1618/desktop-flow/internal/platform"
)

// Searcher is the matching primitive: find the needle stored at imagePath
// inside region of the screen. A miss is (zero, false, nil).
type Searcher interface {
	Search(ctx context.Context, region platform.Bounds, spec Spec, imagePath string) (image.Point, bool, error)
}

// ScreenSearcher captures the screen and runs Find over it.
type ScreenSearcher struct {
	capturer platform.ScreenCapturer

	mu      sync.Mutex
	needles map[string]cachedNeedle
}

type cachedNeedle struct {
	img     image.Image
	modTime time.Time
}

// NewScreenSearcher creates a searcher over capturer.
func NewScreenSearcher(capturer platform.ScreenCapturer) *ScreenSearcher {
	return &ScreenSearcher{
		capturer: capturer,
		needles:  make(map[string]cachedNeedle),
	}
}

// Search implements Searcher.
func (s *ScreenSearcher) Search(ctx context.Context, region platform.Bounds, spec Spec, imagePath string) (image.Point, bool, error) {
	if err := ctx.Err(); err != nil {
		return image.Point{}, false, err
	}
	needle, err := s.needle(imagePath)
	if err != nil {
		return image.Point{}, false, err
	}
	screen, err := s.capturer.Capture(region)
	if err != nil {
		return image.Point{}, false, err
	}
	return Find(screen, needle, spec)
}

// needle decodes imagePath, reusing the previous decode while the file's
// modification time is unchanged.
func (s *ScreenSearcher) needle(imagePath string) (image.Image, error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat needle: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.needles[imagePath]; ok && c.modTime.Equal(info.ModTime()) {
		return c.img, nil
	}
	img, err := images.Decode(imagePath)
	if err != nil {
		return nil, err
	}
	s.needles[imagePath] = cachedNeedle{img: img, modTime: info.ModTime()}
	return img, nil
}
