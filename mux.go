package eagerq

import (
	"context"
	"fmt"
	"sync"
)

// Mux routes archived records to handlers by task kind.
type Mux struct {
	entries map[string]muxEntry
	mu      *sync.RWMutex
}

type muxEntry struct {
	h    Handler
	kind string
}

func NewMux() *Mux {
	return &Mux{
		entries: make(map[string]muxEntry),
		mu:      &sync.RWMutex{},
	}
}

// Handle registers a handler for a task kind.
func (m *Mux) Handle(kind string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[kind] = muxEntry{
		h:    h,
		kind: kind,
	}
}

// match finds a handler in entries given a task kind.
func (m *Mux) match(kind string) Handler {
	// only exact matches for now.
	v, ok := m.entries[kind]
	if ok {
		return v.h
	}

	return nil
}

// lookup is match under the read lock, reporting absence to callers that
// must not fall through to the not-found handler.
func (m *Mux) lookup(kind string) (Handler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.match(kind)
	return h, h != nil
}

// ProcessRecord dispatches the record to the handler registered for its
// kind.
func (m *Mux) ProcessRecord(ctx context.Context, rec *Record) error {
	h := m.Handler(rec.Kind)
	return h.ProcessRecord(ctx, rec)
}

// Handler returns the handler to use for the given kind. It always returns a
// non-nil handler: when no registered handler applies it returns a 'not
// found' handler which fails the record with an error.
func (m *Mux) Handler(kind string) (h Handler) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h = m.match(kind)
	if h == nil {
		h = NotFoundHandler()
	}

	return h
}

// NotFound returns an error indicating that no handler is registered for the
// record's kind.
func NotFound(_ context.Context, rec *Record) error {
	return fmt.Errorf("no handler registered for kind %q", rec.Kind)
}

// NotFoundHandler returns a Handler that fails every record with a "not
// found" error.
func NotFoundHandler() Handler { return HandlerFunc(NotFound) }
