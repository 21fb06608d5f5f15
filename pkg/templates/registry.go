// Package templates manages named needle images used for on-screen
// pattern searches. Definitions live in YAML manifests; pixel data is
// loaded lazily through an image cache.
package templates

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"jordanella.com/autovision/internal/cv"
)

// Registry manages a dynamic collection of needle templates loaded from
// YAML manifests
type Registry struct {
	mu         sync.RWMutex
	templates  map[string]cv.Template
	basePath   string      // Base path for template image files
	imageCache *ImageCache // Caches decoded images
}

// TemplateDefinition represents a template in the YAML file
type TemplateDefinition struct {
	Name      string     `yaml:"name"`
	Path      string     `yaml:"path"`
	Threshold float64    `yaml:"threshold"`
	Region    *RegionDef `yaml:"region,omitempty"`
	Preload   bool       `yaml:"preload,omitempty"` // Load image at startup
}

// RegionDef represents a region in the YAML file
type RegionDef struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TemplateFile represents the structure of a template YAML file
type TemplateFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// defaultThreshold applies when a manifest entry carries none
const defaultThreshold = 0.8

// NewRegistry creates a new template registry.
// basePath is the root directory where template image files are stored.
func NewRegistry(basePath string) *Registry {
	return &Registry{
		templates:  make(map[string]cv.Template),
		basePath:   basePath,
		imageCache: NewImageCache(),
	}
}

// LoadFromFile loads templates from a YAML manifest
func (r *Registry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}

	var templateFile TemplateFile
	if err := yaml.Unmarshal(data, &templateFile); err != nil {
		return fmt.Errorf("failed to unmarshal template YAML: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, def := range templateFile.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}
		if def.Path == "" {
			return fmt.Errorf("template %d (%s): path cannot be empty", i+1, def.Name)
		}

		template := cv.Template{
			Name:      def.Name,
			Path:      filepath.Join(r.basePath, def.Path),
			Threshold: def.Threshold,
		}

		if def.Region != nil {
			region := cv.NewRegion(def.Region.X, def.Region.Y, def.Region.Width, def.Region.Height)
			template.Region = &region
		}

		if template.Threshold == 0 {
			template.Threshold = defaultThreshold
		}

		r.templates[def.Name] = template

		if err := r.imageCache.Register(template, def.Preload); err != nil {
			// Preload failures don't block loading; the image can still
			// be loaded on demand.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	return nil
}

// LoadFromDirectory loads all YAML manifests from a directory
func (r *Registry) LoadFromDirectory(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read template directory %s: %w", dirPath, err)
	}

	var loadErrors []error

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		if err := r.LoadFromFile(fullPath); err != nil {
			loadErrors = append(loadErrors, fmt.Errorf("file %s: %w", entry.Name(), err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("failed to load %d template files (first error): %w", len(loadErrors), loadErrors[0])
	}

	return nil
}

// Get retrieves a template by name
func (r *Registry) Get(name string) (cv.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, ok := r.templates[name]
	return template, ok
}

// Image retrieves a template's decoded needle image along with its
// definition, loading and caching the pixels on first use
func (r *Registry) Image(name string) (*image.RGBA, cv.Template, error) {
	r.mu.RLock()
	_, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return nil, cv.Template{}, fmt.Errorf("template '%s' not found in registry", name)
	}

	return r.imageCache.Get(name)
}

// Register adds a template to the registry programmatically
func (r *Registry) Register(template cv.Template) error {
	if template.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.templates[template.Name] = template
	return r.imageCache.Register(template, false)
}

// Has checks if a template exists in the registry
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.templates[name]
	return ok
}

// List returns all template names in the registry
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// Count returns the number of templates in the registry
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.templates)
}

// Remove removes a template from the registry and its cached image
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[name]; ok {
		delete(r.templates, name)
		r.imageCache.Release(name)
		return true
	}
	return false
}
