package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"jordanella.com/autovision/internal/cv"
)

// DisplayProvider captures from a single OS display. Region coordinates
// are relative to that display's origin.
type DisplayProvider struct {
	display int
}

// NewDisplayProvider creates a provider for the given display index
func NewDisplayProvider(display int) (*DisplayProvider, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays detected")
	}
	if display < 0 || display >= n {
		return nil, fmt.Errorf("display %d out of range (have %d)", display, n)
	}
	return &DisplayProvider{display: display}, nil
}

// GrabScreen captures the whole display
func (p *DisplayProvider) GrabScreen() (*image.RGBA, error) {
	img, err := screenshot.CaptureDisplay(p.display)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", p.display, err)
	}
	return img, nil
}

// GrabScreenRegion captures a sub-region of the display. The region is
// clamped to the display bounds before capture.
func (p *DisplayProvider) GrabScreenRegion(r cv.Region) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty capture region %+v", r)
	}

	bounds := screenshot.GetDisplayBounds(p.display)
	rect := r.ToRectangle().Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("capture region %+v outside display %d", r, p.display)
	}

	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region %+v: %w", r, err)
	}
	return img, nil
}

// Width returns the display width in OS-reported logical pixels
func (p *DisplayProvider) Width() int {
	return screenshot.GetDisplayBounds(p.display).Dx()
}

// Height returns the display height in OS-reported logical pixels
func (p *DisplayProvider) Height() int {
	return screenshot.GetDisplayBounds(p.display).Dy()
}

// Size returns the full display as a region anchored at the origin
func (p *DisplayProvider) Size() cv.Region {
	bounds := screenshot.GetDisplayBounds(p.display)
	return cv.NewRegion(0, 0, bounds.Dx(), bounds.Dy())
}
