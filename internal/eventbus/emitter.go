// Package eventbus provides a minimal in-process, synchronous event emitter.
// Handlers are registered per event type (or under Wildcard) and invoked in
// registration order on the caller's goroutine.
package eventbus

import "slices"

// Registry maps event types to their ordered handler sequences.
// A Registry shared between emitters is observed live by all of them.
type Registry[P any] map[EventType][]*Handler[P]

// Emitter dispatches payloads of type P to registered handlers.
//
// An Emitter is not safe for concurrent use. Handlers may call On and Off on
// the emitter that is dispatching to them.
type Emitter[P any] struct {
	// All is the live registry. It is exported for bulk inspection and
	// mutation, e.g. clearing every handler at once.
	All Registry[P]
}

// New creates an Emitter over all. A nil registry is replaced with an empty
// one; otherwise all is adopted as-is, without copying.
func New[P any](all Registry[P]) *Emitter[P] {
	if all == nil {
		all = make(Registry[P])
	}
	return &Emitter[P]{All: all}
}

// On appends h to the handlers for t. Registering the same handler twice
// means it is invoked twice. A nil h is kept in the sequence and does nothing
// when dispatched.
func (e *Emitter[P]) On(t EventType, h *Handler[P]) {
	e.All[t] = append(e.All[t], h)
}

// Off removes the first occurrence of h from the handlers for t.
// A nil h clears every handler for t but keeps the key registered.
// Unknown types and handlers are ignored.
func (e *Emitter[P]) Off(t EventType, h *Handler[P]) {
	handlers, ok := e.All[t]
	if !ok {
		return
	}
	if h == nil {
		e.All[t] = []*Handler[P]{}
		return
	}
	if i := slices.Index(handlers, h); i >= 0 {
		e.All[t] = slices.Delete(handlers, i, i+1)
	}
}

// Emit invokes the handlers for t with payload, then the Wildcard handlers
// with t and payload. The handler sets are captured when each stage starts,
// so registrations made during dispatch apply from the next Emit.
//
// The first handler error is returned unchanged and stops the dispatch.
// Panics are not recovered.
func (e *Emitter[P]) Emit(t EventType, payload P) error {
	if err := e.dispatch(t, t, payload); err != nil {
		return err
	}
	return e.dispatch(Wildcard, t, payload)
}

// Signal emits the zero value of P for t.
func (e *Emitter[P]) Signal(t EventType) error {
	var zero P
	return e.Emit(t, zero)
}

// dispatch runs a snapshot of the handlers stored under key.
func (e *Emitter[P]) dispatch(key, t EventType, payload P) error {
	handlers := e.All[key]
	if len(handlers) == 0 {
		return nil
	}
	snapshot := slices.Clone(handlers)
	for _, h := range snapshot {
		if err := h.call(t, payload); err != nil {
			return err
		}
	}
	return nil
}
