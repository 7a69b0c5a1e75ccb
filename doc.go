// Package eagerq provides a bounded FIFO task queue that makes a worker pool
// eager: when every worker is busy and the pool can still grow, the queue
// refuses new work so the pool spawns another worker instead of letting tasks
// sit behind a fixed core of workers. Once the pool is at its maximum size the
// queue buffers as usual.
//
// The queue only reads pool state; it never creates workers itself. Attach any
// pool that can report its size, maximum, in-flight count and shutdown state,
// and route its rejected submissions into new workers.
package eagerq
