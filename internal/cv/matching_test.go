package cv

import (
	"errors"
	"image"
	"testing"
)

// frameWithSquare draws a filled square on a dark background
func frameWithSquare(w, h, sx, sy, size int, r, g, b uint8) *image.RGBA {
	img := solidImage(w, h, 20, 20, 20)
	for y := sy; y < sy+size; y++ {
		for x := sx; x < sx+size; x++ {
			idx := y*img.Stride + x*4
			img.Pix[idx] = r
			img.Pix[idx+1] = g
			img.Pix[idx+2] = b
		}
	}
	return img
}

func TestKernelEngineLocatesSquare(t *testing.T) {
	tests := []struct {
		name   string
		method MatchMethod
	}{
		{"SAD", MatchMethodSAD},
		{"SSD", MatchMethodSSD},
		{"NCC", MatchMethodNCC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			haystack := frameWithSquare(60, 60, 23, 31, 8, 220, 40, 40)
			needle := solidImage(8, 8, 220, 40, 40)

			engine := NewKernelEngine(WithMethod(tt.method))
			candidates, err := engine.FindCandidates(haystack, needle, 0.99)
			if err != nil {
				t.Fatalf("FindCandidates failed: %v", err)
			}
			if len(candidates) == 0 {
				t.Fatal("Expected at least one candidate")
			}

			best := candidates[0]
			for _, c := range candidates[1:] {
				if c.Confidence > best.Confidence {
					best = c
				}
			}

			if best.Location.X != 23 || best.Location.Y != 31 {
				t.Errorf("Expected square at (23,31), got (%d,%d)", best.Location.X, best.Location.Y)
			}
			if best.Location.Width != 8 || best.Location.Height != 8 {
				t.Errorf("Expected 8x8 bounds, got %dx%d", best.Location.Width, best.Location.Height)
			}
		})
	}
}

func TestKernelEngineExactSelfMatch(t *testing.T) {
	img := frameWithSquare(30, 30, 5, 5, 10, 60, 180, 90)

	engine := NewKernelEngine(WithMethod(MatchMethodSSD))
	candidates, err := engine.FindCandidates(img, img, 0.99)
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected a single exact candidate, got %d", len(candidates))
	}
	if candidates[0].Confidence != 1.0 {
		t.Errorf("Self match should score 1.0, got %v", candidates[0].Confidence)
	}
}

func TestKernelEngineCroppedHaystack(t *testing.T) {
	// CropRegion output keeps the crop rectangle as its bounds, so the
	// haystack is not anchored at the origin.
	frame := frameWithSquare(200, 160, 120, 70, 8, 220, 40, 40)
	cropped := CropRegion(frame, image.Rect(100, 50, 180, 130))
	needle := solidImage(8, 8, 220, 40, 40)

	if cropped.Bounds().Min == (image.Point{}) {
		t.Fatal("Test needs a haystack with non-zero origin")
	}

	tests := []struct {
		name   string
		method MatchMethod
	}{
		{"SAD", MatchMethodSAD},
		{"SSD", MatchMethodSSD},
		{"NCC", MatchMethodNCC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewKernelEngine(WithMethod(tt.method))
			candidates, err := engine.FindCandidates(cropped, needle, 0.99)
			if err != nil {
				t.Fatalf("FindCandidates failed: %v", err)
			}
			if len(candidates) == 0 {
				t.Fatal("Expected a candidate inside the cropped haystack")
			}

			best := candidates[0]
			for _, c := range candidates[1:] {
				if c.Confidence > best.Confidence {
					best = c
				}
			}

			// Locations stay in the cropped image's own coordinate space
			if best.Location.X != 120 || best.Location.Y != 70 {
				t.Errorf("Expected square at (120,70), got (%d,%d)", best.Location.X, best.Location.Y)
			}
		})
	}
}

func TestFindMatchCroppedHaystackGrayscalePath(t *testing.T) {
	frame := frameWithSquare(200, 160, 120, 70, 8, 220, 40, 40)
	cropped := CropRegion(frame, image.Rect(100, 50, 180, 130))
	needle := solidImage(8, 8, 220, 40, 40)

	// Below the colour boundary, so both buffers run through Grayscale
	finder := NewFinder(NewKernelEngine(WithMethod(MatchMethodSSD)))
	result, err := finder.FindMatch(MatchRequest{
		Needle:        needle,
		Haystack:      cropped,
		MinConfidence: 0.98,
	})
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if result.Location.X != 120 || result.Location.Y != 70 {
		t.Errorf("Expected square at (120,70), got (%d,%d)", result.Location.X, result.Location.Y)
	}
}

func TestKernelEngineOversizedNeedle(t *testing.T) {
	haystack := solidImage(10, 10, 0, 0, 0)
	needle := solidImage(20, 20, 0, 0, 0)

	engine := NewKernelEngine()
	_, err := engine.FindCandidates(haystack, needle, 0.5)
	if !errors.Is(err, ErrTemplateTooLarge) {
		t.Errorf("Expected ErrTemplateTooLarge, got %v", err)
	}
}

func TestKernelEngineNilImages(t *testing.T) {
	engine := NewKernelEngine()

	if _, err := engine.FindCandidates(nil, solidImage(4, 4, 0, 0, 0), 0.5); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage for nil haystack, got %v", err)
	}
	if _, err := engine.FindCandidates(solidImage(4, 4, 0, 0, 0), nil, 0.5); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage for nil needle, got %v", err)
	}
}

func TestKernelEngineCandidateCap(t *testing.T) {
	// A uniform haystack makes every window a perfect candidate
	haystack := solidImage(20, 20, 128, 128, 128)
	needle := solidImage(2, 2, 128, 128, 128)

	engine := NewKernelEngine(WithMaxCandidates(5))
	candidates, err := engine.FindCandidates(haystack, needle, 0.99)
	if err != nil {
		t.Fatalf("FindCandidates failed: %v", err)
	}
	if len(candidates) != 5 {
		t.Errorf("Expected candidate cap of 5, got %d", len(candidates))
	}
}

func TestGrayscale(t *testing.T) {
	img := solidImage(4, 4, 200, 30, 30)
	gray := Grayscale(img)

	r := gray.Pix[0]
	g := gray.Pix[1]
	b := gray.Pix[2]
	if r != g || g != b {
		t.Errorf("Expected uniform channels, got (%d,%d,%d)", r, g, b)
	}

	// Luminance of (200,30,30) = (200*299 + 30*587 + 30*114) / 1000
	expected := uint8((200*299 + 30*587 + 30*114) / 1000)
	if r != expected {
		t.Errorf("Expected luminance %d, got %d", expected, r)
	}
}

func TestToRGBA(t *testing.T) {
	rgba := solidImage(4, 4, 10, 20, 30)
	if ToRGBA(rgba) != rgba {
		t.Error("RGBA input should pass through unchanged")
	}

	grayImg := image.NewGray(image.Rect(0, 0, 4, 4))
	converted := ToRGBA(grayImg)
	if converted == nil {
		t.Fatal("Expected conversion, got nil")
	}
	if converted.Bounds() != grayImg.Bounds() {
		t.Errorf("Converted bounds %v differ from source %v", converted.Bounds(), grayImg.Bounds())
	}
}
