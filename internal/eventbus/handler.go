package eventbus

// EventType identifies a class of events.
type EventType string

// Wildcard is the reserved key whose handlers receive every emitted event.
// It is never a concrete event type.
const Wildcard EventType = "*"

// Handler is a registered callback. Handlers are compared by pointer, so the
// value returned by Func or WildcardFunc is the reference passed to Off.
type Handler[P any] struct {
	payload func(P) error
	typed   func(EventType, P) error
}

// Func creates a payload-only handler for a concrete event type.
func Func[P any](fn func(P) error) *Handler[P] {
	return &Handler[P]{payload: fn}
}

// WildcardFunc creates a handler that also receives the event type.
// Register it under Wildcard to observe every event.
func WildcardFunc[P any](fn func(EventType, P) error) *Handler[P] {
	return &Handler[P]{typed: fn}
}

func (h *Handler[P]) call(t EventType, payload P) error {
	if h == nil {
		return nil
	}
	if h.typed != nil {
		return h.typed(t, payload)
	}
	if h.payload != nil {
		return h.payload(payload)
	}
	return nil
}
