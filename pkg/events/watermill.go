package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const metadataEventType = "event_type"

// ChangePublisher queues committed store changes on a watermill topic.
type ChangePublisher struct {
	publisher message.Publisher
	topic     string
}

func NewChangePublisher(publisher message.Publisher, topic string) *ChangePublisher {
	return &ChangePublisher{
		publisher: publisher,
		topic:     topic,
	}
}

func (p *ChangePublisher) Topic() string {
	return p.topic
}

func (p *ChangePublisher) Publish(ctx context.Context, changes []ChangeEvent) error {
	if len(changes) == 0 {
		return nil
	}

	msgs := make([]*message.Message, 0, len(changes))
	for _, change := range changes {
		payload, err := json.Marshal(change)
		if err != nil {
			return fmt.Errorf("failed to marshal change %s: %w", change.EventType(), err)
		}
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		msg.Metadata.Set(metadataEventType, change.EventType())
		msgs = append(msgs, msg)
	}

	if err := p.publisher.Publish(p.topic, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d changes to %s: %w", len(msgs), p.topic, err)
	}
	return nil
}

// DecodeChange reverses Publish for a single message.
func DecodeChange(msg *message.Message) (ChangeEvent, error) {
	var change ChangeEvent
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		return ChangeEvent{}, fmt.Errorf("failed to unmarshal change message %s: %w", msg.UUID, err)
	}
	return change, nil
}
