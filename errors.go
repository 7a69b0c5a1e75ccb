package eagerq

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTask reports a nil task handed to an enqueue variant. TryEnqueue
	// panics with it; the forced-insertion paths return it.
	ErrNilTask = errors.New("task must not be nil")

	// ErrPoolNotAttached is returned by the forced-insertion paths when the
	// queue has no pool that could ever run the work.
	ErrPoolNotAttached = errors.New("task queue has no pool attached")

	// ErrPoolShutdown is returned by the forced-insertion paths when the
	// attached pool is already shut down.
	ErrPoolShutdown = errors.New("task queue's pool is shut down")
)

// NotExecutedError tells a task's owner that work the queue had accepted will
// never run, typically because the queue was drained during shutdown. It is
// delivered through the task's OnFailure hook.
type NotExecutedError struct {
	Reason string
	Err    error
}

func (e *NotExecutedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task not executed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("task not executed: %s", e.Reason)
}

// Unwrap returns the underlying cause, if any.
func (e *NotExecutedError) Unwrap() error { return e.Err }
