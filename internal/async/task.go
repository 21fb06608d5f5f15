// Package async provides a minimal single-result deferred value used by the
// vision facade. A task settles exactly once with either a value or an
// error and is safe to abandon: the underlying work runs to completion and
// the task is simply garbage collected.
package async

import "context"

// Task is a deferred result that settles exactly once
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Run starts fn in its own goroutine and returns the task tracking it
func Run[T any](fn func() (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.val, t.err = fn()
	}()
	return t
}

// Completed returns an already-settled successful task
func Completed[T any](val T) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), val: val}
	close(t.done)
	return t
}

// Failed returns an already-settled failed task
func Failed[T any](err error) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

// Done is closed when the task has settled
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles or ctx ends. Cancelling the context
// abandons the task; the underlying work still runs to completion.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result blocks until the task settles and returns its outcome
func (t *Task[T]) Result() (T, error) {
	<-t.done
	return t.val, t.err
}

// Err blocks until the task settles and returns only its error
func (t *Task[T]) Err() error {
	<-t.done
	return t.err
}

// Settled reports whether the task has already reached its outcome
func (t *Task[T]) Settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
