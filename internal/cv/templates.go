package cv

// Template names a needle image on disk together with its default
// matching threshold and an optional search region.
type Template struct {
	Name      string
	Path      string
	Threshold float64
	Region    *Region
}

// Builder methods

// InRegion sets the search region for the template
func (t Template) InRegion(x, y, width, height int) Template {
	region := NewRegion(x, y, width, height)
	t.Region = &region
	return t
}

// WithThreshold sets the matching threshold
func (t Template) WithThreshold(threshold float64) Template {
	t.Threshold = threshold
	return t
}
