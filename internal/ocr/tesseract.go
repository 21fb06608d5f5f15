package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"jordanella.com/autovision/internal/cv"
	"jordanella.com/autovision/internal/logging"
)

// TesseractEngine runs recognition jobs on a single reusable worker
// goroutine holding one gosseract client. The worker is created lazily on
// the first submission, so the first call pays the engine start-up cost.
type TesseractEngine struct {
	mu      sync.Mutex
	jobs    chan submission
	started bool
	closed  bool
	wg      sync.WaitGroup

	tessdataPrefix string
	log            *logging.Logger
}

type submission struct {
	img  *image.RGBA
	lang Language
	job  *Job
}

// TesseractOption configures the engine
type TesseractOption func(*TesseractEngine)

// WithTessdataPrefix points the engine at a non-default trained data directory
func WithTessdataPrefix(prefix string) TesseractOption {
	return func(e *TesseractEngine) {
		e.tessdataPrefix = prefix
	}
}

// WithEngineLogger sets the engine logger
func WithEngineLogger(log *logging.Logger) TesseractOption {
	return func(e *TesseractEngine) {
		e.log = log
	}
}

// NewTesseractEngine creates a tesseract-backed OCR engine
func NewTesseractEngine(opts ...TesseractOption) *TesseractEngine {
	e := &TesseractEngine{
		log: logging.NewLogger("ocr.tesseract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit queues a recognition job. The job fails immediately when the
// engine has been terminated.
func (e *TesseractEngine) Submit(img *image.RGBA, lang Language) *Job {
	job := NewJob()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		job.Fail(&RecognitionError{Message: "engine terminated"})
		return job
	}
	if img == nil {
		job.Fail(&RecognitionError{Message: "nil image"})
		return job
	}

	if !e.started {
		e.jobs = make(chan submission, 16)
		e.wg.Add(1)
		go e.worker()
		e.started = true
	}

	// Send under the lock so Terminate cannot close the channel between
	// the closed check and the send.
	e.jobs <- submission{img: img, lang: lang.normalize(), job: job}
	return job
}

// Terminate stops the worker and releases the tesseract client. Jobs
// already queued still run to completion.
func (e *TesseractEngine) Terminate() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.started {
		close(e.jobs)
	}
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// worker owns the gosseract client for its whole lifetime
func (e *TesseractEngine) worker() {
	defer e.wg.Done()

	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			e.log.Warn(fmt.Sprintf("failed to set tessdata prefix %s: %v", e.tessdataPrefix, err))
		}
	}

	for sub := range e.jobs {
		e.process(client, sub)
	}
}

// process drives a single job to its terminal state
func (e *TesseractEngine) process(client *gosseract.Client, sub submission) {
	job := sub.job
	job.Notify(Progress{Status: "preparing", Fraction: 0.1})

	if err := client.SetLanguage(string(sub.lang)); err != nil {
		job.Fail(&RecognitionError{Message: fmt.Sprintf("language %q rejected", sub.lang), Err: err})
		return
	}

	// Grayscale preprocessing improves recognition on noisy screen grabs
	gray := imaging.Grayscale(sub.img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		job.Fail(&RecognitionError{Message: "failed to encode image", Err: err})
		return
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		job.Fail(&RecognitionError{Message: "engine rejected image", Err: err})
		return
	}

	job.Notify(Progress{Status: "recognizing", Fraction: 0.5})

	text, err := client.Text()
	if err != nil {
		job.Fail(&RecognitionError{Message: "text extraction failed", Err: err})
		return
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		job.Fail(&RecognitionError{Message: "word extraction failed", Err: err})
		return
	}

	words := make([]Word, 0, len(boxes))
	var sum float64
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		conf := box.Confidence / 100.0
		words = append(words, Word{
			Text:       box.Word,
			Confidence: conf,
			Bounds:     cv.RegionFromRectangle(box.Box),
		})
		sum += conf
	}

	var pageConfidence float64
	if len(words) > 0 {
		pageConfidence = sum / float64(len(words))
	}

	job.Notify(Progress{Status: "done", Fraction: 1.0})
	job.Succeed(Page{
		Text:       text,
		Confidence: pageConfidence,
		Words:      words,
	})
}
