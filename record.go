package eagerq

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// rfc3339Milli is like time.RFC3339Nano, but with millisecond precision.
const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

// Record is the archived form of a task: what a drain writes out and what
// Restore later turns back into runnable work.
type Record struct {
	ID         string `msgpack:"id"`
	Kind       string `msgpack:"kind"`
	Payload    []byte `msgpack:"payload"`
	Reason     string `msgpack:"reason"`
	ArchivedAt string `msgpack:"archived_at"`
}

// NewRecord captures a queued task into a Record. Envelope tasks keep their
// id, kind and payload; any other task is filed under a fresh ULID with its
// Go type as kind and no payload, which makes it listable but not
// restorable.
func NewRecord(task Task, reason string) *Record {
	rec := &Record{
		ID:         ulid.Make().String(),
		Reason:     reason,
		ArchivedAt: time.Now().UTC().Format(rfc3339Milli),
	}

	if env, ok := task.(Envelope); ok {
		if id := env.TaskID(); id != "" {
			rec.ID = id
		}
		rec.Kind = env.Kind()
		rec.Payload = env.Payload()
		return rec
	}

	rec.Kind = fmt.Sprintf("%T", task)
	return rec
}

// Marshal encodes the record for storage.
func (r *Record) Marshal() ([]byte, error) {
	return msgpack.Marshal(r)
}

func unmarshalRecord(raw []byte) (*Record, error) {
	rec := &Record{}
	if err := msgpack.Unmarshal(raw, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
