package eagerq

// Pool is the queue's read-only view of the worker pool it feeds. The queue
// consults it on every admission decision; implementations should answer from
// cheap atomic state because the methods are called on the submit path.
//
// Reads are racy on purpose. The queue re-reads live values for each
// comparison and tolerates staleness: a stale answer only shifts a task
// between being queued and triggering pool growth.
type Pool interface {
	// CurrentSize returns the number of workers alive right now.
	CurrentSize() int

	// MaximumSize returns the ceiling the pool may grow to.
	MaximumSize() int

	// InFlightTasks returns the number of tasks accepted by the pool and not
	// yet finished, queued tasks included.
	InFlightTasks() int

	// IsShutdown reports whether the pool has started shutting down.
	IsShutdown() bool
}
