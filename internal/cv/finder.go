package cv

import (
	"errors"
	"fmt"
	"image"
)

// MatchRequest describes a single pattern search: the needle to find, the
// haystack to search and the minimum confidence a candidate must reach.
// Requests are read-only once constructed.
type MatchRequest struct {
	Needle        *image.RGBA
	Haystack      *image.RGBA
	MinConfidence float64
}

// MatchResult contains the bounding box and score of the best match
type MatchResult struct {
	Location   Region
	Confidence float64
}

// Error types
var (
	// ErrNoMatch indicates the engine produced no candidate that cleared
	// the requested confidence threshold
	ErrNoMatch = errors.New("no match found")
	// ErrTemplateTooLarge indicates the needle exceeds the haystack
	ErrTemplateTooLarge = errors.New("template larger than search image")
	// ErrInvalidImage indicates a malformed or missing image buffer
	ErrInvalidImage = errors.New("invalid image provided")
)

// EngineError wraps a fault raised by the matching engine itself, as
// opposed to a clean "nothing found" outcome.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("matching engine failure: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// colorThreshold is the confidence boundary for colour-space selection.
// At or above it the search runs in full colour; below it both images are
// converted to grayscale first. Near-exact matches benefit from colour
// discrimination, looser matches need the noise reduction.
const colorThreshold = 0.99

// Finder wraps a matching engine and owns the confidence-threshold and
// colour-space policy plus best-match selection.
type Finder struct {
	engine Engine
}

// NewFinder creates a finder over the given matching engine
func NewFinder(engine Engine) *Finder {
	return &Finder{engine: engine}
}

// FindMatch searches for the request's needle inside its haystack and
// returns the single best candidate. It fails with ErrNoMatch when no
// candidate clears the minimum confidence, and with *EngineError when the
// engine itself faults.
func (f *Finder) FindMatch(req MatchRequest) (MatchResult, error) {
	if req.Needle == nil || req.Haystack == nil {
		return MatchResult{}, &EngineError{Err: fmt.Errorf("%w: nil image buffer", ErrInvalidImage)}
	}
	if req.MinConfidence < 0 || req.MinConfidence > 1 {
		return MatchResult{}, &EngineError{Err: fmt.Errorf("minimum confidence %v outside [0,1]", req.MinConfidence)}
	}

	haystack := req.Haystack
	needle := req.Needle
	if req.MinConfidence < colorThreshold {
		haystack = Grayscale(haystack)
		needle = Grayscale(needle)
	}

	candidates, err := f.engine.FindCandidates(haystack, needle, req.MinConfidence)
	if err != nil {
		return MatchResult{}, &EngineError{Err: err}
	}
	if len(candidates) == 0 {
		return MatchResult{}, fmt.Errorf("%w: no candidate above confidence %.3f", ErrNoMatch, req.MinConfidence)
	}

	// Strictly-highest score wins; ties keep the first-encountered
	// candidate, which is stable for a deterministic engine.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}

	if best.Confidence < req.MinConfidence {
		return MatchResult{}, fmt.Errorf("%w: best candidate %.3f below confidence %.3f",
			ErrNoMatch, best.Confidence, req.MinConfidence)
	}

	return MatchResult{Location: best.Location, Confidence: best.Confidence}, nil
}
