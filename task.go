package eagerq

// Task is a unit of work held by a TaskQueue.
type Task interface {
	// Execute performs the work.
	Execute() error

	// OnFailure handles any error returned from Execute. The queue also uses
	// it to deliver a *NotExecutedError when accepted work is drained away
	// before a worker picks it up.
	OnFailure(error)
}

// Envelope is implemented by tasks that carry a durable identity. A drained
// task that is also an Envelope keeps its id, kind and payload in the archive
// and can be rebuilt by Restore; plain Tasks are archived under a generated
// id with no payload.
type Envelope interface {
	TaskID() string
	Kind() string
	Payload() []byte
}
