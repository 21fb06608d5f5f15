// Package vision composes screen capture, pattern matching, text
// recognition and image persistence behind one facade. Every operation
// that touches an engine or the OS returns a deferred result; failures
// from collaborators surface on the same task failure channel as
// successes, never as panics, and nothing is retried internally.
package vision

import (
	"context"
	"fmt"
	"image"

	"jordanella.com/autovision/internal/async"
	"jordanella.com/autovision/internal/capture"
	"jordanella.com/autovision/internal/cv"
	"jordanella.com/autovision/internal/events"
	"jordanella.com/autovision/internal/logging"
	"jordanella.com/autovision/internal/ocr"
	"jordanella.com/autovision/internal/storage"
	"jordanella.com/autovision/pkg/templates"
)

// Finder locates a needle image inside a haystack under a confidence
// threshold policy.
type Finder interface {
	FindMatch(req cv.MatchRequest) (cv.MatchResult, error)
}

// TextReader extracts page text and word-level results from images
type TextReader interface {
	ReadPage(ctx context.Context, img *image.RGBA, lang ocr.Language) (string, error)
	ReadWords(ctx context.Context, img *image.RGBA, lang ocr.Language) ([]ocr.Word, error)
	Close() error
}

// MatchRequest describes a pattern search against a live screen region.
// An empty Region searches the whole screen. MinConfidence must be in
// [0,1]; requests are read-only once constructed.
type MatchRequest struct {
	Needle        *image.RGBA
	Region        cv.Region
	MinConfidence float64
}

// Vision is the facade over all vision collaborators
type Vision struct {
	provider capture.Provider
	finder   Finder
	reader   TextReader
	sink     Sink
	registry *templates.Registry
	log      *logging.Logger
	bus      events.Bus
}

// Option substitutes a collaborator or tunes the facade. Unset options
// fall back to the production collaborator.
type Option func(*Vision)

// WithProvider replaces the screen capture provider
func WithProvider(p capture.Provider) Option {
	return func(v *Vision) { v.provider = p }
}

// WithFinder replaces the finder
func WithFinder(f Finder) Option {
	return func(v *Vision) { v.finder = f }
}

// WithReader replaces the text reader
func WithReader(r TextReader) Option {
	return func(v *Vision) { v.reader = r }
}

// WithSink replaces the persistence sink
func WithSink(s Sink) Option {
	return func(v *Vision) { v.sink = s }
}

// WithTemplates attaches a needle template registry
func WithTemplates(reg *templates.Registry) Option {
	return func(v *Vision) { v.registry = reg }
}

// WithLogger replaces the facade logger
func WithLogger(log *logging.Logger) Option {
	return func(v *Vision) { v.log = log }
}

// WithBus publishes lifecycle events onto the given bus
func WithBus(bus events.Bus) Option {
	return func(v *Vision) { v.bus = bus }
}

// New creates a vision facade. Collaborators not overridden by options
// get their production defaults: display 0 capture, the built-in kernel
// matcher and the tesseract text reader, and a disk sink.
func New(opts ...Option) (*Vision, error) {
	v := &Vision{
		log: logging.NewLogger("vision"),
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.provider == nil {
		provider, err := capture.NewDisplayProvider(0)
		if err != nil {
			return nil, fmt.Errorf("failed to create capture provider: %w", err)
		}
		v.provider = provider
	}
	if v.finder == nil {
		v.finder = cv.NewFinder(cv.NewKernelEngine())
	}
	if v.reader == nil {
		readerOpts := []ocr.ReaderOption{}
		if v.bus != nil {
			readerOpts = append(readerOpts, ocr.WithReaderBus(v.bus))
		}
		v.reader = ocr.NewReader(ocr.NewTesseractEngine(), readerOpts...)
	}
	if v.sink == nil {
		v.sink = storage.DiskSink{}
	}

	return v, nil
}

// Close releases the text reader's engine worker
func (v *Vision) Close() error {
	return v.reader.Close()
}

// GrabScreen captures the whole screen
func (v *Vision) GrabScreen() *async.Task[*image.RGBA] {
	return async.Run(func() (*image.RGBA, error) {
		img, err := v.provider.GrabScreen()
		if err != nil {
			return nil, err
		}
		v.publish(events.Event{
			Type:   events.EventTypeScreenGrabbed,
			Source: "vision",
			Data:   map[string]interface{}{"width": img.Bounds().Dx(), "height": img.Bounds().Dy()},
		})
		return img, nil
	})
}

// GrabScreenRegion captures a sub-region of the screen
func (v *Vision) GrabScreenRegion(r cv.Region) *async.Task[*image.RGBA] {
	return async.Run(func() (*image.RGBA, error) {
		return v.provider.GrabScreenRegion(r)
	})
}

// ScreenWidth reports the OS-level screen width. The value is a logical
// dimension and may differ from physical pixel density on scaled
// displays; it is reported as-is, not corrected.
func (v *Vision) ScreenWidth() int {
	return v.provider.Width()
}

// ScreenHeight reports the OS-level screen height (logical, uncorrected)
func (v *Vision) ScreenHeight() int {
	return v.provider.Height()
}

// ScreenSize reports the full screen as a region (logical, uncorrected)
func (v *Vision) ScreenSize() cv.Region {
	return v.provider.Size()
}

// FindOnScreenRegion captures the request's region and searches it for
// the needle. The returned location is translated back into screen
// coordinates. A synchronous panic from the matching engine surfaces on
// the task's failure channel like any asynchronous error.
func (v *Vision) FindOnScreenRegion(req MatchRequest) *async.Task[cv.MatchResult] {
	return async.Run(func() (result cv.MatchResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &cv.EngineError{Err: fmt.Errorf("engine panic: %v", r)}
				v.publish(events.NewErrorEvent("vision", err))
			}
		}()
		return v.findOnRegion(req)
	})
}

func (v *Vision) findOnRegion(req MatchRequest) (cv.MatchResult, error) {
	region := req.Region
	if region.Empty() {
		region = v.provider.Size()
	}

	haystack, err := v.provider.GrabScreenRegion(region)
	if err != nil {
		return cv.MatchResult{}, err
	}

	result, err := v.finder.FindMatch(cv.MatchRequest{
		Needle:        req.Needle,
		Haystack:      haystack,
		MinConfidence: req.MinConfidence,
	})
	if err != nil {
		v.log.DebugWithContext("pattern search missed", map[string]interface{}{
			"min_confidence": req.MinConfidence,
			"error":          err.Error(),
		})
		v.publish(events.NewMatchMissedEvent("vision", req.MinConfidence))
		return cv.MatchResult{}, err
	}

	// Translate the haystack-relative location into screen coordinates
	result.Location.X += region.X
	result.Location.Y += region.Y

	v.publish(events.NewMatchFoundEvent("vision", result.Location.X, result.Location.Y, result.Confidence))
	return result, nil
}

// FindTemplate resolves a registered needle template by name and searches
// the given screen region for it, using the template's own threshold and
// preferring its registered search region when none is supplied.
func (v *Vision) FindTemplate(name string, region cv.Region) *async.Task[cv.MatchResult] {
	if v.registry == nil {
		return async.Failed[cv.MatchResult](fmt.Errorf("no template registry configured"))
	}

	needle, tmpl, err := v.registry.Image(name)
	if err != nil {
		return async.Failed[cv.MatchResult](err)
	}

	if region.Empty() && tmpl.Region != nil {
		region = *tmpl.Region
	}

	return v.FindOnScreenRegion(MatchRequest{
		Needle:        needle,
		Region:        region,
		MinConfidence: tmpl.Threshold,
	})
}

// SaveImage writes an image to the persistence sink under the given path
func (v *Vision) SaveImage(img image.Image, path string) *async.Task[struct{}] {
	return async.Run(func() (struct{}, error) {
		if err := v.sink.Store(img, path); err != nil {
			sinkErr := &SinkError{Path: path, Err: err}
			v.publish(events.Event{
				Type:   events.EventTypeImageSaveFailed,
				Source: "vision",
				Data:   map[string]interface{}{"path": path, "error": sinkErr.Error()},
			})
			return struct{}{}, sinkErr
		}
		v.publish(events.Event{
			Type:   events.EventTypeImageSaved,
			Source: "vision",
			Data:   map[string]interface{}{"path": path},
		})
		return struct{}{}, nil
	})
}

// ReadText recognizes the image and returns the page text. The zero
// Language selects English.
func (v *Vision) ReadText(img *image.RGBA, lang ocr.Language) *async.Task[string] {
	return async.Run(func() (string, error) {
		return v.reader.ReadPage(context.Background(), img, lang)
	})
}

// ReadWords recognizes the image and returns one result per word in
// document order. The zero Language selects English.
func (v *Vision) ReadWords(img *image.RGBA, lang ocr.Language) *async.Task[[]ocr.Word] {
	return async.Run(func() ([]ocr.Word, error) {
		return v.reader.ReadWords(context.Background(), img, lang)
	})
}

// publish sends an event when a bus is attached; publishing never blocks
// a vision operation.
func (v *Vision) publish(event events.Event) {
	if v.bus != nil {
		v.bus.PublishAsync(event)
	}
}
