package events

import (
	"fmt"
	"time"
)

// Event is what leaves the process: the NATS publisher derives its subject
// from EventType and ships Payload as the message body.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

var _ Event = ChangeEvent{}

// EventType is "<entity>.<op>", e.g. "prompt.insert".
func (e ChangeEvent) EventType() string {
	return fmt.Sprintf("%s.%s", e.Entity, e.Op)
}

// Payload mirrors the JSON form of the change so consumers can decode it
// back into a ChangeEvent.
func (e ChangeEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"entity":      e.Entity,
		"entity_id":   e.EntityID.String(),
		"op":          string(e.Op),
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e ChangeEvent) Timestamp() time.Time {
	return e.OccurredAt
}
