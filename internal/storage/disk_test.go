package storage

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskSinkStore(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 210, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "nested", "dir", "capture.png")

	var sink DiskSink
	if err := sink.Store(img, path); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stored file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Stored file is empty")
	}
}

func TestDiskSinkNilImage(t *testing.T) {
	var sink DiskSink
	if err := sink.Store(nil, filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("Expected an error for a nil image")
	}
}

func TestDiskSinkUnknownFormat(t *testing.T) {
	var sink DiskSink
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := sink.Store(img, filepath.Join(t.TempDir(), "capture.xyz")); err == nil {
		t.Error("Expected an error for an unsupported extension")
	}
}
