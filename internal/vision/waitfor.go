package vision

import (
	"errors"
	"fmt"
	"time"

	"jordanella.com/autovision/internal/async"
	"jordanella.com/autovision/internal/cv"
)

// WaitFor polls FindOnScreenRegion until the needle appears or the
// timeout elapses. The find primitive itself never retries; all retry
// policy lives here, on the caller's side of the contract. Engine faults
// abort the wait immediately.
func (v *Vision) WaitFor(req MatchRequest, timeout, interval time.Duration) *async.Task[cv.MatchResult] {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	return async.Run(func() (cv.MatchResult, error) {
		deadline := time.Now().Add(timeout)

		for {
			result, err := func() (result cv.MatchResult, err error) {
				defer func() {
					if r := recover(); r != nil {
						err = &cv.EngineError{Err: fmt.Errorf("engine panic: %v", r)}
					}
				}()
				return v.findOnRegion(req)
			}()

			if err == nil {
				return result, nil
			}
			if !errors.Is(err, cv.ErrNoMatch) {
				return cv.MatchResult{}, err
			}
			if time.Now().After(deadline) {
				return cv.MatchResult{}, fmt.Errorf("%w: needle did not appear within %v", cv.ErrNoMatch, timeout)
			}

			time.Sleep(interval)
		}
	})
}
