// Package capture provides the screen capture provider contract and its
// production implementation.
package capture

import (
	"image"

	"jordanella.com/autovision/internal/cv"
)

// Provider produces raw image buffers for the full screen or a sub-region.
// Dimension queries report OS-level logical values, which may differ from
// physical pixel density on scaled displays; callers must not assume the
// two agree.
type Provider interface {
	GrabScreen() (*image.RGBA, error)
	GrabScreenRegion(r cv.Region) (*image.RGBA, error)
	Width() int
	Height() int
	Size() cv.Region
}
