package eagerq

import "sync/atomic"

type queueStats struct {
	offered  atomic.Uint64
	admitted atomic.Uint64
	rejected atomic.Uint64
	forced   atomic.Uint64
	drained  atomic.Uint64
}

// Stats is a point-in-time snapshot of a queue's counters. Offered counts
// TryEnqueue calls; Admitted the ones that queued a task; Rejected the
// refusals issued to push the pool to grow. Offers that failed only because
// the queue was full count in Offered but in neither Admitted nor Rejected.
type Stats struct {
	Offered  uint64
	Admitted uint64
	Rejected uint64
	Forced   uint64
	Drained  uint64
}
