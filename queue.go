package eagerq

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// TaskQueue is a bounded FIFO queue that coordinates with the pool draining
// it. A plain bounded queue absorbs bursts while the pool idles at its core
// size; TaskQueue instead reports itself full whenever every worker is busy
// and the pool can still grow, so the pool's rejection handling spawns a
// worker. Tasks come out in the order they went in.
//
// All methods are safe for concurrent use.
type TaskQueue struct {
	tasks chan Task

	// pool is published once by AttachPool and read lock-free on every
	// admission decision. nil means the queue runs standalone.
	pool atomic.Pointer[Pool]

	// override, when non-nil, replaces the computed value RemainingCapacity
	// reports. See SetCapacityOverride.
	override atomic.Pointer[int]

	stats queueStats
}

// New creates a TaskQueue holding at most capacity tasks. An unbounded queue
// would never refuse work and so could never push the pool to grow; capacity
// must be positive and New panics when it is not.
func New(capacity int) *TaskQueue {
	if capacity < 1 {
		panic(fmt.Sprintf("eagerq: queue capacity must be positive, got %d", capacity))
	}
	return &TaskQueue{tasks: make(chan Task, capacity)}
}

// AttachPool publishes the pool whose state drives admission. The pool should
// call this once right after constructing the queue, before work is
// submitted; the store is atomic so late submitters always see it. Attaching
// a nil pool panics.
func (q *TaskQueue) AttachPool(p Pool) {
	if p == nil {
		panic("eagerq: nil pool")
	}
	q.pool.Store(&p)
}

func (q *TaskQueue) loadPool() Pool {
	if pp := q.pool.Load(); pp != nil {
		return *pp
	}
	return nil
}

// TryEnqueue offers a task without blocking and reports whether it was
// queued. false is the only rejection signal on this path: it can mean the
// queue is full, or that the queue wants the pool to grow.
//
// With no pool attached this is a plain bounded enqueue. With a pool
// attached the task is queued when the pool is at its maximum size or has an
// idle worker (in-flight tasks at most the current size); when the pool is
// busy but still below its maximum the offer is refused even though the queue
// has room. Every comparison re-reads live pool state, so concurrent growth
// or shrink lands the task in whichever branch the interleaving produces.
//
// TryEnqueue panics with ErrNilTask when task is nil.
func (q *TaskQueue) TryEnqueue(task Task) bool {
	if task == nil {
		panic(ErrNilTask)
	}
	q.stats.offered.Add(1)

	p := q.loadPool()
	if p == nil {
		return q.admit(task)
	}

	// Pool maxed out: queueing is the only option left.
	if p.CurrentSize() == p.MaximumSize() {
		return q.admit(task)
	}

	// An idle worker can take this without a spawn.
	if p.InFlightTasks() <= p.CurrentSize() {
		return q.admit(task)
	}

	// Busy pool with headroom: refuse so the pool spawns a worker.
	if p.CurrentSize() < p.MaximumSize() {
		q.stats.rejected.Add(1)
		return false
	}

	// Reached only when the maximum shrank between reads; queue as usual.
	return q.admit(task)
}

// ForceEnqueue inserts a task regardless of the admission policy, waiting up
// to timeout for space. It serves administrative paths, such as re-queueing
// archived work, that must not be bounced by the grow-first rule. Insertion
// is still refused with ErrPoolNotAttached or ErrPoolShutdown when no pool
// could ever run the task, and with ErrNilTask when task is nil.
//
// It returns (true, nil) once the task is queued, (false, nil) when timeout
// elapses first, and (false, ctx.Err()) when ctx is done before or while
// waiting. A caller arriving with a done ctx never enqueues.
func (q *TaskQueue) ForceEnqueue(ctx context.Context, task Task, timeout time.Duration) (bool, error) {
	if task == nil {
		return false, ErrNilTask
	}
	if err := q.poolHealthy(); err != nil {
		return false, err
	}

	// The select below picks among ready cases at random; a ctx already done
	// on entry must not race a free slot.
	if err := ctx.Err(); err != nil {
		return false, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case q.tasks <- task:
		q.stats.forced.Add(1)
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// TryForceEnqueue is ForceEnqueue without the wait: one non-blocking insert
// attempt once pool health checks pass. (false, nil) means the queue was
// full.
func (q *TaskQueue) TryForceEnqueue(task Task) (bool, error) {
	if task == nil {
		return false, ErrNilTask
	}
	if err := q.poolHealthy(); err != nil {
		return false, err
	}
	if !q.put(task) {
		return false, nil
	}
	q.stats.forced.Add(1)
	return true, nil
}

// poolHealthy guards the forced paths against queueing work no pool will
// ever run.
func (q *TaskQueue) poolHealthy() error {
	p := q.loadPool()
	if p == nil {
		return ErrPoolNotAttached
	}
	if p.IsShutdown() {
		return ErrPoolShutdown
	}
	return nil
}

// Dequeue removes the oldest task, blocking until one is available or ctx is
// done.
func (q *TaskQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryDequeue removes the oldest task without blocking.
func (q *TaskQueue) TryDequeue() (Task, bool) {
	select {
	case task := <-q.tasks:
		return task, true
	default:
		return nil, false
	}
}

// RemainingCapacity reports how many more tasks the queue accepts right now.
// While an override is set that value is returned instead of the computed
// headroom.
func (q *TaskQueue) RemainingCapacity() int {
	if v := q.override.Load(); v != nil {
		return *v
	}
	return cap(q.tasks) - len(q.tasks)
}

// SetCapacityOverride pins the value RemainingCapacity reports without
// touching real queue behaviour. Pools use it around pause and resume
// transitions, when the physical headroom would mislead their worker
// bookkeeping. Only the single goroutine driving such a transition should
// set or clear it.
func (q *TaskQueue) SetCapacityOverride(n int) {
	q.override.Store(&n)
}

// ClearCapacityOverride reverts RemainingCapacity to the computed headroom.
func (q *TaskQueue) ClearCapacityOverride() {
	q.override.Store(nil)
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int { return len(q.tasks) }

// Cap returns the capacity fixed at construction.
func (q *TaskQueue) Cap() int { return cap(q.tasks) }

// Archiver persists tasks evicted from a queue. *Archive satisfies it.
type Archiver interface {
	Save(ctx context.Context, rec *Record) error
}

// DrainTo empties the queue into dst, oldest first, typically while the pool
// shuts down. Each drained task is captured as a Record, saved, and then told
// it will not run via OnFailure with a *NotExecutedError. When a save fails
// the task is re-queued at the tail if space remains, behind anything still
// queued, and draining stops with the count saved so far.
func (q *TaskQueue) DrainTo(ctx context.Context, dst Archiver) (int, error) {
	const reason = "queue drained"

	drained := 0
	for {
		task, ok := q.TryDequeue()
		if !ok {
			return drained, nil
		}

		rec := NewRecord(task, reason)
		if err := dst.Save(ctx, rec); err != nil {
			if !q.put(task) {
				task.OnFailure(&NotExecutedError{Reason: "archive failed while draining", Err: err})
			}
			return drained, fmt.Errorf("archive task %s: %w", rec.ID, err)
		}

		task.OnFailure(&NotExecutedError{Reason: reason})
		q.stats.drained.Add(1)
		drained++
	}
}

// Stats returns a snapshot of the queue's counters.
func (q *TaskQueue) Stats() Stats {
	return Stats{
		Offered:  q.stats.offered.Load(),
		Admitted: q.stats.admitted.Load(),
		Rejected: q.stats.rejected.Load(),
		Forced:   q.stats.forced.Load(),
		Drained:  q.stats.drained.Load(),
	}
}

func (q *TaskQueue) admit(task Task) bool {
	if !q.put(task) {
		return false
	}
	q.stats.admitted.Add(1)
	return true
}

func (q *TaskQueue) put(task Task) bool {
	select {
	case q.tasks <- task:
		return true
	default:
		return false
	}
}
