package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"prompt-manager-core/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ChangeHandler processes one replicated change. Returning an error
// redelivers the message.
type ChangeHandler func(ctx context.Context, change events.ChangeEvent) error

// Subscriber reads replicated changes back from JetStream.
type Subscriber struct {
	nc   *nats.Conn
	js   jetstream.JetStream
	stop jetstream.ConsumeContext
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	ensureStream(js)
	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe attaches a durable consumer filtered on subject, for example
// "events.prompt.>".
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler ChangeHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var change events.ChangeEvent
		if err := json.Unmarshal(msg.Data(), &change); err != nil {
			log.Printf("Dropping undecodable change on %s: %v", msg.Subject(), err)
			_ = msg.Term()
			return
		}

		if err := handler(ctx, change); err != nil {
			log.Printf("Handler failed for %s: %v", msg.Subject(), err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.stop = cc
	return nil
}

func (s *Subscriber) Close() {
	if s.stop != nil {
		s.stop.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
