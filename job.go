package eagerq

import "github.com/oklog/ulid/v2"

// Job is a ready-made Task that also satisfies Envelope, so it survives a
// drain with its identity intact: a ULID, a kind used for handler routing,
// and an opaque payload the queue never reads.
type Job struct {
	id        string
	kind      string
	payload   []byte
	fn        func() error
	onFailure func(error)
}

// NewJob builds a Job around fn. payload is whatever the caller wants
// persisted should the job be drained before it runs.
func NewJob(kind string, payload []byte, fn func() error) *Job {
	return &Job{
		id:      ulid.Make().String(),
		kind:    kind,
		payload: payload,
		fn:      fn,
	}
}

// WithTaskID replaces the generated id. Restore uses it to rebuild archived
// jobs under their original identity.
func (j *Job) WithTaskID(id string) *Job {
	j.id = id
	return j
}

// WithOnFailure registers a callback receiving every error handed to
// OnFailure.
func (j *Job) WithOnFailure(fn func(error)) *Job {
	j.onFailure = fn
	return j
}

// Execute runs the wrapped function.
func (j *Job) Execute() error {
	if j.fn != nil {
		return j.fn()
	}
	return nil
}

// OnFailure forwards err to the registered callback, if any.
func (j *Job) OnFailure(err error) {
	if j.onFailure != nil {
		j.onFailure(err)
	}
}

func (j *Job) TaskID() string  { return j.id }
func (j *Job) Kind() string    { return j.kind }
func (j *Job) Payload() []byte { return j.payload }
