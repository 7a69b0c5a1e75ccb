package eagerq_test

import (
	"fmt"

	"github.com/eagerq/eagerq"
)

// staticPool reports a pool with two busy workers and room to grow to four.
type staticPool struct{}

func (staticPool) CurrentSize() int   { return 2 }
func (staticPool) MaximumSize() int   { return 4 }
func (staticPool) InFlightTasks() int { return 5 }
func (staticPool) IsShutdown() bool   { return false }

func Example() {
	q := eagerq.New(16)
	q.AttachPool(staticPool{})

	job := eagerq.NewJob("email:send", []byte(`{"to":"ops@example.com"}`), func() error {
		return nil
	})

	// Every worker is busy and the pool can still grow, so the offer is
	// refused even though all sixteen slots are free. The pool reacts to the
	// refusal by spawning a worker.
	fmt.Println(q.TryEnqueue(job))
	fmt.Println(q.RemainingCapacity())
	// Output:
	// false
	// 16
}
