package ocr

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"jordanella.com/autovision/internal/cv"
)

// scriptedEngine drives each submitted job with a canned outcome
type scriptedEngine struct {
	page     Page
	err      error
	notifies []Progress

	gotLang    Language
	submitted  int
	terminated bool
}

func (e *scriptedEngine) Submit(img *image.RGBA, lang Language) *Job {
	e.gotLang = lang
	e.submitted++

	job := NewJob()
	go func() {
		for _, p := range e.notifies {
			job.Notify(p)
		}
		if e.err != nil {
			job.Fail(e.err)
			return
		}
		job.Succeed(e.page)
	}()
	return job
}

func (e *scriptedEngine) Terminate() error {
	e.terminated = true
	return nil
}

func testImage() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 10, 10))
}

func TestReadPage(t *testing.T) {
	engine := &scriptedEngine{
		page: Page{Text: "Hello World", Confidence: 0.91},
		notifies: []Progress{
			{Status: "preparing", Fraction: 0.1},
			{Status: "recognizing", Fraction: 0.5},
		},
	}
	reader := NewReader(engine)

	text, err := reader.ReadPage(context.Background(), testImage(), English)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if text != "Hello World" {
		t.Errorf("Expected 'Hello World', got %q", text)
	}
}

func TestReadWordsPreservesOrder(t *testing.T) {
	words := []Word{
		{Text: "alpha", Confidence: 0.95, Bounds: cv.NewRegion(0, 0, 40, 12)},
		{Text: "beta", Confidence: 0.88, Bounds: cv.NewRegion(50, 0, 32, 12)},
		{Text: "gamma", Confidence: 0.91, Bounds: cv.NewRegion(90, 0, 45, 12)},
	}
	engine := &scriptedEngine{page: Page{Text: "alpha beta gamma", Words: words}}
	reader := NewReader(engine)

	got, err := reader.ReadWords(context.Background(), testImage(), English)
	if err != nil {
		t.Fatalf("ReadWords failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 words, got %d", len(got))
	}

	for i, want := range words {
		if got[i].Text != want.Text {
			t.Errorf("Word %d: expected %q, got %q", i, want.Text, got[i].Text)
		}
		if got[i].Bounds != want.Bounds {
			t.Errorf("Word %d: expected bounds %+v, got %+v", i, want.Bounds, got[i].Bounds)
		}
		if got[i].Confidence != want.Confidence {
			t.Errorf("Word %d: expected confidence %v, got %v", i, want.Confidence, got[i].Confidence)
		}
	}
}

func TestReadDefaultsToEnglish(t *testing.T) {
	engine := &scriptedEngine{page: Page{Text: "ok"}}
	reader := NewReader(engine)

	if _, err := reader.ReadPage(context.Background(), testImage(), ""); err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if engine.gotLang != English {
		t.Errorf("Zero language should normalize to English, got %q", engine.gotLang)
	}
}

func TestReadFailureSurfacesRecognitionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"typed failure", &RecognitionError{Message: "model missing"}},
		{"bare failure", errors.New("something low level")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &scriptedEngine{err: tt.err}
			reader := NewReader(engine)

			_, err := reader.ReadPage(context.Background(), testImage(), English)
			if err == nil {
				t.Fatal("Expected an error")
			}

			var recErr *RecognitionError
			if !errors.As(err, &recErr) {
				t.Fatalf("Expected *RecognitionError, got %T: %v", err, err)
			}
			if recErr.Error() == "" {
				t.Error("Recognition errors must never have an empty message")
			}
		})
	}
}

func TestReadNilImage(t *testing.T) {
	engine := &scriptedEngine{}
	reader := NewReader(engine)

	_, err := reader.ReadPage(context.Background(), nil, English)

	var recErr *RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("Expected *RecognitionError for nil image, got %v", err)
	}
	if engine.submitted != 0 {
		t.Error("Nil image must not reach the engine")
	}
}

func TestReadAbandonedByContext(t *testing.T) {
	// An engine that never settles its jobs
	engine := &stuckEngine{}
	reader := NewReader(engine)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := reader.ReadPage(ctx, testImage(), English)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context deadline error, got %v", err)
	}
}

type stuckEngine struct{}

func (e *stuckEngine) Submit(img *image.RGBA, lang Language) *Job { return NewJob() }
func (e *stuckEngine) Terminate() error                           { return nil }

func TestReaderCloseTerminatesEngine(t *testing.T) {
	engine := &scriptedEngine{}
	reader := NewReader(engine)

	if err := reader.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !engine.terminated {
		t.Error("Close must terminate the engine")
	}
}
