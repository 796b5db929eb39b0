package service

import (
	"context"

	"prompt-manager-core/internal/pkg/logger"
	"prompt-manager-core/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const replicationModule = "Replication"

// ChangeForwarder ships a committed change to the outside world.
type ChangeForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IReplicationService interface {
	// Start subscribes to the change topic and returns once the subscription
	// exists. Messages are processed until ctx is cancelled.
	Start(ctx context.Context) error
}

type replicationService struct {
	subscriber message.Subscriber
	topic      string
	forwarder  ChangeForwarder
	logger     logger.ILogger
}

// NewReplicationService forwards changes when forwarder is non-nil and only
// logs them otherwise.
func NewReplicationService(subscriber message.Subscriber, topic string, forwarder ChangeForwarder, log logger.ILogger) IReplicationService {
	return &replicationService{
		subscriber: subscriber,
		topic:      topic,
		forwarder:  forwarder,
		logger:     log,
	}
}

func (rs *replicationService) Start(ctx context.Context) error {
	messages, err := rs.subscriber.Subscribe(ctx, rs.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			rs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks. A failed forward is logged; the local write it
// describes is already durable.
func (rs *replicationService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	change, err := events.DecodeChange(msg)
	if err != nil {
		rs.logger.Error(replicationModule, "Dropping undecodable change", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	details := map[string]interface{}{
		"event":     change.EventType(),
		"entity_id": change.EntityID.String(),
	}

	if rs.forwarder == nil {
		rs.logger.Debug(replicationModule, "Change committed", details)
		return
	}

	if err := rs.forwarder.Publish(ctx, change); err != nil {
		details["error"] = err.Error()
		rs.logger.Warn(replicationModule, "Failed to forward change", details)
		return
	}
	rs.logger.Debug(replicationModule, "Change forwarded", details)
}
