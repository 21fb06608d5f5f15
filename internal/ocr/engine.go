package ocr

import (
	"fmt"
	"image"
)

// Engine is the integration contract around an OCR implementation. Submit
// never blocks on recognition; the returned job settles asynchronously.
// Terminate releases engine resources and is called by the owner of the
// Text Reader, not per call.
type Engine interface {
	Submit(img *image.RGBA, lang Language) *Job
	Terminate() error
}

// RecognitionError carries an engine-reported failure for a submitted job
type RecognitionError struct {
	Message string
	Err     error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr recognition failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("ocr recognition failed: %s", e.Message)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}
