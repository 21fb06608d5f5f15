package cv

import "image"

// Region is an axis-aligned rectangle in screen or image coordinates.
type Region struct {
	X, Y          int
	Width, Height int
}

type Point struct {
	X, Y int
}

// Helper functions

// NewRegion creates a new region
func NewRegion(x, y, width, height int) Region {
	return Region{X: x, Y: y, Width: width, Height: height}
}

// Empty reports whether the region covers no pixels
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains checks if a point is within the region
func (r Region) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// ToRectangle converts Region to image.Rectangle for use with CV operations
func (r Region) ToRectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// RegionFromRectangle converts an image.Rectangle to a Region
func RegionFromRectangle(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}
