package cv

import (
	"fmt"
	"image"
	"math"
)

// Candidate is a single position reported by a matching engine, with the
// score the engine assigned to it.
type Candidate struct {
	Location   Region
	Confidence float64
}

// Engine is the integration point between the Finder and an underlying
// template-matching implementation. Given a haystack image, a needle image
// and a minimum confidence it returns zero or more candidate matches.
type Engine interface {
	FindCandidates(haystack, needle *image.RGBA, minConfidence float64) ([]Candidate, error)
}

// MatchMethod defines template matching algorithm
type MatchMethod int

const (
	// MatchMethodSAD - Sum of Absolute Differences (fastest)
	MatchMethodSAD MatchMethod = iota
	// MatchMethodSSD - Sum of Squared Differences (balanced)
	MatchMethodSSD
	// MatchMethodNCC - Normalized Cross-Correlation (most accurate)
	MatchMethodNCC
)

// KernelEngine is the built-in pure-Go matching engine. It scans the
// haystack row-major and scores every needle-sized window with the
// configured kernel.
type KernelEngine struct {
	method        MatchMethod
	maxCandidates int
}

// NewKernelEngine creates a kernel engine with the given options
func NewKernelEngine(opts ...KernelOption) *KernelEngine {
	e := &KernelEngine{
		method:        MatchMethodSSD,
		maxCandidates: 32,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindCandidates scans the haystack and returns every window scoring at
// least minConfidence, in row-major scan order, capped at the configured
// candidate limit. Scan order is deterministic, so first-encountered
// tie-breaking upstream is stable.
func (e *KernelEngine) FindCandidates(haystack, needle *image.RGBA, minConfidence float64) ([]Candidate, error) {
	if haystack == nil || needle == nil {
		return nil, fmt.Errorf("%w: nil image buffer", ErrInvalidImage)
	}

	haystackBounds := haystack.Bounds()
	needleBounds := needle.Bounds()

	needleWidth := needleBounds.Dx()
	needleHeight := needleBounds.Dy()

	if needleWidth <= 0 || needleHeight <= 0 || haystackBounds.Empty() {
		return nil, fmt.Errorf("%w: empty image buffer", ErrInvalidImage)
	}
	if needleWidth > haystackBounds.Dx() || needleHeight > haystackBounds.Dy() {
		return nil, fmt.Errorf("%w: needle %dx%d exceeds haystack %dx%d",
			ErrTemplateTooLarge, needleWidth, needleHeight,
			haystackBounds.Dx(), haystackBounds.Dy())
	}

	maxY := haystackBounds.Max.Y - needleHeight
	maxX := haystackBounds.Max.X - needleWidth

	var candidates []Candidate

	for y := haystackBounds.Min.Y; y <= maxY; y++ {
		for x := haystackBounds.Min.X; x <= maxX; x++ {
			score := e.score(haystack, needle, x, y)
			if score < minConfidence {
				continue
			}

			candidates = append(candidates, Candidate{
				Location:   NewRegion(x, y, needleWidth, needleHeight),
				Confidence: score,
			})

			if e.maxCandidates > 0 && len(candidates) >= e.maxCandidates {
				return candidates, nil
			}
		}
	}

	return candidates, nil
}

// score computes similarity between the needle and the haystack window at (x, y)
func (e *KernelEngine) score(haystack, needle *image.RGBA, x, y int) float64 {
	needleBounds := needle.Bounds()
	width := needleBounds.Dx()
	height := needleBounds.Dy()

	switch e.method {
	case MatchMethodSAD:
		return matchSAD(haystack, needle, x, y, width, height)
	case MatchMethodNCC:
		return matchNCC(haystack, needle, x, y, width, height)
	default:
		return matchSSD(haystack, needle, x, y, width, height)
	}
}

// matchSAD - Sum of Absolute Differences (fastest, least accurate)
func matchSAD(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var sad uint64
	nMin := needle.Bounds().Min

	// PixOffset keeps the math valid for buffers whose bounds are not
	// anchored at the origin, such as CropRegion output.
	for ny := 0; ny < height; ny++ {
		hIdx := haystack.PixOffset(x, y+ny)
		nIdx := needle.PixOffset(nMin.X, nMin.Y+ny)

		for nx := 0; nx < width; nx++ {
			// RGB difference
			sad += uint64(abs(int(haystack.Pix[hIdx]) - int(needle.Pix[nIdx])))
			sad += uint64(abs(int(haystack.Pix[hIdx+1]) - int(needle.Pix[nIdx+1])))
			sad += uint64(abs(int(haystack.Pix[hIdx+2]) - int(needle.Pix[nIdx+2])))

			hIdx += 4
			nIdx += 4
		}
	}

	// Normalize to 0-1 (lower SAD = better match)
	maxSAD := float64(width * height * 3 * 255)
	return 1.0 - (float64(sad) / maxSAD)
}

// matchSSD - Sum of Squared Differences (balanced)
func matchSSD(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var ssd uint64
	nMin := needle.Bounds().Min

	for ny := 0; ny < height; ny++ {
		hIdx := haystack.PixOffset(x, y+ny)
		nIdx := needle.PixOffset(nMin.X, nMin.Y+ny)

		for nx := 0; nx < width; nx++ {
			dr := int(haystack.Pix[hIdx]) - int(needle.Pix[nIdx])
			dg := int(haystack.Pix[hIdx+1]) - int(needle.Pix[nIdx+1])
			db := int(haystack.Pix[hIdx+2]) - int(needle.Pix[nIdx+2])

			ssd += uint64(dr*dr + dg*dg + db*db)

			hIdx += 4
			nIdx += 4
		}
	}

	// Normalize to 0-1
	maxSSD := float64(width * height * 3 * 255 * 255)
	return 1.0 - (float64(ssd) / maxSSD)
}

// matchNCC - Normalized Cross-Correlation (slowest, most accurate)
func matchNCC(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var sumH, sumN, sumHN, sumHH, sumNN float64
	pixelCount := float64(width * height * 3)
	nMin := needle.Bounds().Min

	for ny := 0; ny < height; ny++ {
		hIdx := haystack.PixOffset(x, y+ny)
		nIdx := needle.PixOffset(nMin.X, nMin.Y+ny)

		for nx := 0; nx < width; nx++ {
			for c := 0; c < 3; c++ {
				h := float64(haystack.Pix[hIdx+c])
				n := float64(needle.Pix[nIdx+c])

				sumH += h
				sumN += n
				sumHN += h * n
				sumHH += h * h
				sumNN += n * n
			}

			hIdx += 4
			nIdx += 4
		}
	}

	numerator := sumHN - (sumH * sumN / pixelCount)
	denomH := math.Sqrt(sumHH - (sumH * sumH / pixelCount))
	denomN := math.Sqrt(sumNN - (sumN * sumN / pixelCount))

	if denomH == 0 || denomN == 0 {
		return 0
	}

	// Correlation coefficient (-1 to 1, normalize to 0-1)
	correlation := numerator / (denomH * denomN)
	return (correlation + 1.0) / 2.0
}

// Helper functions

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Grayscale converts an RGBA image to grayscale using the luminance formula
func Grayscale(img *image.RGBA) *image.RGBA {
	bounds := img.Bounds()
	gray := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		srcIdx := img.PixOffset(bounds.Min.X, y)
		dstIdx := gray.PixOffset(bounds.Min.X, y)

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r := img.Pix[srcIdx]
			g := img.Pix[srcIdx+1]
			b := img.Pix[srcIdx+2]

			// Luminance formula
			grayValue := uint8((int(r)*299 + int(g)*587 + int(b)*114) / 1000)

			gray.Pix[dstIdx] = grayValue
			gray.Pix[dstIdx+1] = grayValue
			gray.Pix[dstIdx+2] = grayValue
			gray.Pix[dstIdx+3] = 255

			srcIdx += 4
			dstIdx += 4
		}
	}

	return gray
}

// ToRGBA returns img as an RGBA buffer, converting when necessary
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

// CropRegion extracts a rectangular region from an image
func CropRegion(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	cropped := image.NewRGBA(rect)

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			cropped.SetRGBA(x, y, img.RGBAAt(x, y))
		}
	}

	return cropped
}
