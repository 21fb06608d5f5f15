package templates

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"

	"jordanella.com/autovision/internal/cv"
)

// cachedTemplate pairs a template definition with its decoded pixels
type cachedTemplate struct {
	cv.Template
	mu    sync.Mutex
	image *image.RGBA
}

// ImageCache manages template image loading and caching
type ImageCache struct {
	templates map[string]*cachedTemplate
	mu        sync.RWMutex
	stats     CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits        int64 // Cache hits
	Misses      int64 // Cache misses (had to load)
	Unloads     int64 // Total unload operations
	PreloadFail int64 // Failed preloads
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		templates: make(map[string]*cachedTemplate),
	}
}

// Register adds a template to the cache, optionally preloading its image
func (ic *ImageCache) Register(template cv.Template, preload bool) error {
	ic.mu.Lock()
	cached := &cachedTemplate{Template: template}
	ic.templates[template.Name] = cached
	ic.mu.Unlock()

	if preload {
		if _, err := cached.getOrLoad(); err != nil {
			ic.mu.Lock()
			ic.stats.PreloadFail++
			ic.mu.Unlock()
			return fmt.Errorf("failed to preload template %s: %w", template.Name, err)
		}
	}

	return nil
}

// Get retrieves a template and its image, loading if necessary
func (ic *ImageCache) Get(name string) (*image.RGBA, cv.Template, error) {
	ic.mu.RLock()
	cached, ok := ic.templates[name]
	ic.mu.RUnlock()

	if !ok {
		return nil, cv.Template{}, fmt.Errorf("template '%s' not found in cache", name)
	}

	loaded := cached.isLoaded()

	img, err := cached.getOrLoad()
	if err != nil {
		return nil, cv.Template{}, err
	}

	ic.mu.Lock()
	if loaded {
		ic.stats.Hits++
	} else {
		ic.stats.Misses++
	}
	ic.mu.Unlock()

	return img, cached.Template, nil
}

// Release drops a template's cached image
func (ic *ImageCache) Release(name string) {
	ic.mu.RLock()
	cached, ok := ic.templates[name]
	ic.mu.RUnlock()

	if !ok {
		return
	}

	cached.mu.Lock()
	if cached.image != nil {
		cached.image = nil
		ic.mu.Lock()
		ic.stats.Unloads++
		ic.mu.Unlock()
	}
	cached.mu.Unlock()
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.stats
}

// cachedTemplate methods

func (ct *cachedTemplate) isLoaded() bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.image != nil
}

// getOrLoad returns the cached image or decodes it from disk
func (ct *cachedTemplate) getOrLoad() (*image.RGBA, error) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.image != nil {
		return ct.image, nil
	}

	file, err := os.Open(ct.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template %s: %w", ct.Path, err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", ct.Path, err)
	}

	ct.image = cv.ToRGBA(img)
	return ct.image, nil
}
