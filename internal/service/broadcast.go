package service

// Broadcaster pushes game events to connected clients. Implemented by
// the realtime hub; a no-op implementation keeps services testable
// without wiring up connections.
type Broadcaster interface {
	BroadcastGameEvent(gameID string, eventType string, data any)
}

// NoopBroadcaster discards all events.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastGameEvent(gameID string, eventType string, data any) {}
