package ocr

import (
	"context"
	"fmt"
	"image"

	"jordanella.com/autovision/internal/events"
	"jordanella.com/autovision/internal/logging"
)

// Reader wraps an OCR engine with job submission, progress sequencing and
// result projection. One Reader owns its engine's worker lifetime.
type Reader struct {
	engine Engine
	log    *logging.Logger
	bus    events.Bus
}

// ReaderOption configures the reader
type ReaderOption func(*Reader)

// WithReaderLogger sets the reader logger
func WithReaderLogger(log *logging.Logger) ReaderOption {
	return func(r *Reader) {
		r.log = log
	}
}

// WithReaderBus forwards progress notifications onto an event bus
func WithReaderBus(bus events.Bus) ReaderOption {
	return func(r *Reader) {
		r.bus = bus
	}
}

// NewReader creates a text reader over the given engine
func NewReader(engine Engine, opts ...ReaderOption) *Reader {
	r := &Reader{
		engine: engine,
		log:    logging.NewLogger("ocr.reader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadPage recognizes the image and returns the full page text. An empty
// language selects English.
func (r *Reader) ReadPage(ctx context.Context, img *image.RGBA, lang Language) (string, error) {
	page, err := r.recognize(ctx, img, lang)
	if err != nil {
		return "", err
	}
	return page.Text, nil
}

// ReadWords recognizes the image and returns one result per word in the
// engine's document order, each carrying its own bounds and confidence.
func (r *Reader) ReadWords(ctx context.Context, img *image.RGBA, lang Language) ([]Word, error) {
	page, err := r.recognize(ctx, img, lang)
	if err != nil {
		return nil, err
	}
	return page.Words, nil
}

// Close terminates the underlying engine worker
func (r *Reader) Close() error {
	return r.engine.Terminate()
}

// recognize submits a job and waits for its terminal outcome, draining the
// progress side-channel along the way. Cancelling the context abandons the
// wait; the job itself still runs to completion inside the engine.
func (r *Reader) recognize(ctx context.Context, img *image.RGBA, lang Language) (Page, error) {
	if img == nil {
		return Page{}, &RecognitionError{Message: "nil image"}
	}
	lang = lang.normalize()

	job := r.engine.Submit(img, lang)
	if r.bus != nil {
		r.bus.PublishAsync(events.Event{
			Type:   events.EventTypeOcrSubmitted,
			Source: "ocr.reader",
			Data:   map[string]interface{}{"language": string(lang)},
		})
	}

	progress := job.Progress()
	for {
		select {
		case p, ok := <-progress:
			if !ok {
				// Side-channel closed ahead of the terminal state
				progress = nil
				continue
			}
			r.log.DebugWithContext("recognition progress", map[string]interface{}{
				"status":   p.Status,
				"fraction": p.Fraction,
			})
			if r.bus != nil {
				r.bus.PublishAsync(events.NewOcrProgressEvent("ocr.reader", p.Status, p.Fraction))
			}

		case <-job.Done():
			page, err := job.Result()
			if err != nil {
				if r.bus != nil {
					r.bus.PublishAsync(events.Event{
						Type:   events.EventTypeOcrFailed,
						Source: "ocr.reader",
						Data:   map[string]interface{}{"error": err.Error()},
					})
				}
				return Page{}, r.asRecognitionError(err)
			}
			if r.bus != nil {
				r.bus.PublishAsync(events.Event{
					Type:   events.EventTypeOcrCompleted,
					Source: "ocr.reader",
					Data:   map[string]interface{}{"words": len(page.Words)},
				})
			}
			return page, nil

		case <-ctx.Done():
			return Page{}, fmt.Errorf("recognition abandoned: %w", ctx.Err())
		}
	}
}

// asRecognitionError guarantees the failure surfaces in the documented
// error taxonomy even when an engine reports a bare error.
func (r *Reader) asRecognitionError(err error) error {
	if _, ok := err.(*RecognitionError); ok {
		return err
	}
	return &RecognitionError{Message: "engine failure", Err: err}
}
