package images

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// DimensionCache maps standardized image keys to pixel sizes. Entries are
// written only after a successful measurement.
type DimensionCache struct {
	mu      sync.RWMutex
	entries map[string]Size
	path    string // backing YAML file; empty keeps the cache in memory
}

// NewDimensionCache creates an empty cache backed by path (may be empty).
func NewDimensionCache(path string) *DimensionCache {
	return &DimensionCache{
		entries: make(map[string]Size),
		path:    path,
	}
}

// LoadDimensionCache reads the cache file at path. A missing file yields an
// empty cache.
func LoadDimensionCache(path string) (*DimensionCache, error) {
	c := NewDimensionCache(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read dimension cache: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parse dimension cache %s: %w", path, err)
	}
	if c.entries == nil {
		c.entries = make(map[string]Size)
	}
	return c, nil
}

// Get returns the cached size for key.
func (c *DimensionCache) Get(key string) (Size, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[key]
	return s, ok
}

// Put records the size for key.
func (c *DimensionCache) Put(key string, s Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = s
}

// Len returns the number of cached entries.
func (c *DimensionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cached keys in sorted order.
func (c *DimensionCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the cache to its backing file. It is a no-op for in-memory caches.
func (c *DimensionCache) Save() error {
	if c.path == "" {
		return nil
	}
	c.mu.RLock()
	data, err := yaml.Marshal(c.entries)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write dimension cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// SyncReport summarizes a Sync pass.
type SyncReport struct {
	Measured int      `yaml:"measured"          json:"measured"`
	Removed  []string `yaml:"removed,omitempty" json:"removed,omitempty"`
	Failed   []string `yaml:"failed,omitempty"  json:"failed,omitempty"`
}

// Sync re-measures every image under the resolver's image directory and
// drops entries whose files no longer resolve.
func (c *DimensionCache) Sync(r PathResolver) (SyncReport, error) {
	var report SyncReport
	if r.ImageDir == "" {
		return report, fmt.Errorf("image directory is not set")
	}

	fresh := make(map[string]Size)
	err := filepath.WalkDir(r.ImageDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsImageFile(d.Name()) {
			return nil
		}
		size, err := Measure(path)
		if err != nil {
			report.Failed = append(report.Failed, r.Key(path))
			return nil
		}
		fresh[r.Key(path)] = size
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("failed to scan %s: %w", r.ImageDir, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if _, ok := fresh[key]; ok {
			continue
		}
		path, err := r.Resolve(key)
		if err != nil {
			delete(c.entries, key)
			report.Removed = append(report.Removed, key)
			continue
		}
		// An alias for a file measured above would shadow the fresh size.
		if _, ok := fresh[r.Key(path)]; ok {
			delete(c.entries, key)
			report.Removed = append(report.Removed, key)
		}
	}
	for key, size := range fresh {
		c.entries[key] = size
	}
	report.Measured = len(fresh)
	sort.Strings(report.Removed)
	sort.Strings(report.Failed)
	return report, nil
}
