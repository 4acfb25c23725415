package coordinator

import "github.com/mcoot/mpcoord/internal/model"

// Publish enqueues an event for the real-time connections. An empty
// targets set broadcasts. Events are rejected while the dispatcher is stopped.
// System event types cannot be published from outside the coordinator.
func (c *Coordinator) Publish(from string, eventType model.EventType, data any, targets []string) error {
	if eventType.IsSystem() {
		return model.ErrReservedEventType
	}
	if !c.Running() {
		return model.ErrNotRunning
	}
	return c.bus.Publish(model.Event{
		Type:       eventType,
		FromPlayer: from,
		Data:       data,
		Targets:    targets,
	})
}

// SendEventToPlayer publishes an event for one user only
func (c *Coordinator) SendEventToPlayer(username string, eventType model.EventType, data any) error {
	return c.Publish("", eventType, data, []string{username})
}
