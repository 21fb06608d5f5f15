// Package storage provides the production persistence sink for captured
// images.
package storage

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DiskSink writes images to the local filesystem. The image format is
// derived from the path extension (png, jpg, bmp, ...).
type DiskSink struct{}

// Store encodes and writes the image to path, creating parent directories
// as needed.
func (DiskSink) Store(img image.Image, path string) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image to %s: %w", path, err)
	}
	return nil
}
