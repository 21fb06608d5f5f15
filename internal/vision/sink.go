package vision

import (
	"fmt"
	"image"
)

// Sink is a persistence target for writing images to durable storage
type Sink interface {
	Store(img image.Image, path string) error
}

// SinkError wraps a persistence I/O failure on save
type SinkError struct {
	Path string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink write failure for %s: %v", e.Path, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
