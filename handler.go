package eagerq

import "context"

// A Handler reprocesses archived records.
//
// ProcessRecord should return nil once the record's work has been handled,
// whether that meant re-running it inline or translating it into fresh
// tasks. A non-nil error is surfaced by whatever drives the handler.
type Handler interface {
	ProcessRecord(context.Context, *Record) error
}

// The HandlerFunc type is an adapter to allow the use of ordinary functions
// as a Handler. If f is a function with the appropriate signature,
// HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(context.Context, *Record) error

// ProcessRecord calls fn(ctx, rec).
func (fn HandlerFunc) ProcessRecord(ctx context.Context, rec *Record) error {
	return fn(ctx, rec)
}
