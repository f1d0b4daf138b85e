package events

// EventEmitter defines the interface for access-log backends.
// Implementations must not block the request path.
type EventEmitter interface {
	// Emit records an event. Errors are logged internally, never returned.
	Emit(event *PageEvent)

	Close() error
}

// NoopEmitter discards events.
type NoopEmitter struct{}

func (n *NoopEmitter) Emit(event *PageEvent) {}

func (n *NoopEmitter) Close() error { return nil }
