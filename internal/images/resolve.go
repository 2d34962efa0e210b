// Package images maps stored image references to files on disk and keeps
// their pixel dimensions in a persistent cache.
package images

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Decoders registered for DecodeConfig/Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotFound is returned when no candidate path for a reference exists.
var ErrNotFound = errors.New("image file not found")

// Extensions lists the file extensions treated as images by Sync.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Size is an image's pixel dimensions.
type Size struct {
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// PathResolver resolves stored image references against an image directory.
type PathResolver struct {
	ImageDir string
}

// Candidates returns the paths tried for ref, in order: as given, inside
// the image directory, then by bare filename inside the image directory.
func (r PathResolver) Candidates(ref string) []string {
	ref = filepath.FromSlash(ref)
	candidates := []string{ref}
	if r.ImageDir != "" && !filepath.IsAbs(ref) {
		candidates = append(candidates, filepath.Join(r.ImageDir, ref))
	}
	if r.ImageDir != "" {
		candidates = append(candidates, filepath.Join(r.ImageDir, filepath.Base(ref)))
	}
	return dedupe(candidates)
}

// Resolve returns the first existing regular file among Candidates(ref).
func (r PathResolver) Resolve(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: empty reference", ErrNotFound)
	}
	candidates := r.Candidates(ref)
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			if abs, err := filepath.Abs(c); err == nil {
				return abs, nil
			}
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q (tried %s)", ErrNotFound, ref, strings.Join(candidates, ", "))
}

// StandardKey returns ref cleaned and slash-separated.
func StandardKey(ref string) string {
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(ref)))
}

// Key returns the standardized cache key for ref, made relative to the
// image directory when ref lies inside it.
func (r PathResolver) Key(ref string) string {
	p := filepath.FromSlash(StandardKey(ref))
	if r.ImageDir != "" {
		dir := filepath.Clean(r.ImageDir)
		absDir, errDir := filepath.Abs(dir)
		absP, errP := filepath.Abs(p)
		if errDir == nil && errP == nil {
			if rel, err := filepath.Rel(absDir, absP); err == nil && !strings.HasPrefix(rel, "..") {
				p = rel
			}
		}
	}
	return StandardKey(p)
}

// Measure returns the pixel dimensions of the image at path without
// decoding the full image.
func Measure(path string) (Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return Size{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Size{}, fmt.Errorf("failed to read image header %s: %w", path, err)
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return Size{}, fmt.Errorf("image %s has empty dimensions %dx%d", path, cfg.Width, cfg.Height)
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// Decode reads and decodes the image file at path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// IsImageFile reports whether name has one of the known image extensions.
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
